package lod

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

func TestDrawTree(t *testing.T) {
	h := newHarness(t, QuadtreeConfig{BaseChunkSize: 16, FullResolution: 65})
	h.settle(math.Vec3{})

	img := DrawTree(h.tree, 4)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())

	// Level-1 leaf covering the far quadrant, child 3.
	assert.Equal(t, color.RGBA{R: 204, B: 255, A: 255}, img.RGBAAt(13, 13))
	// Level-0 leaf at (1,0), child 1.
	assert.Equal(t, color.RGBA{R: 255, G: 51, B: 255, A: 255}, img.RGBAAt(5, 1))
	// Border pixel.
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(8, 9))
}
