package debug

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

func TestAppendBoxLines(t *testing.T) {
	b := math.AABB{Min: math.Vec3{X: 0, Y: 0, Z: 0}, Max: math.Vec3{X: 2, Y: 1, Z: 3}}
	out := AppendBoxLines([]float32{9}, b, 0.5)

	require.Len(t, out, 1+BoxLineVertexCount*3)
	assert.Equal(t, float32(9), out[0])
	for i := 1; i < len(out); i += 3 {
		x, y, z := out[i], out[i+1], out[i+2]
		assert.Contains(t, []float32{-0.5, 2.5}, x)
		assert.Contains(t, []float32{-0.5, 1.5}, y)
		assert.Contains(t, []float32{-0.5, 3.5}, z)
	}
}

func TestLodColor(t *testing.T) {
	assert.Equal(t, LodColor(0), LodColor(-3))
	assert.NotEqual(t, LodColor(0), LodColor(1))
	assert.Equal(t, LodColor(len(lodPalette)-1), LodColor(40))
}

func TestSavePixelsFlipsRows(t *testing.T) {
	s := NewSnapshots(filepath.Join(t.TempDir(), "shots"), "view")
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }

	// Two rows, bottom red and top blue.
	pixels := []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}
	path, err := s.SavePixels("frame", pixels, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "view_frame_2024-03-01_12-30-00.png", filepath.Base(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	assert.Equal(t, color.RGBA{B: 255, A: 255}, color.RGBAModel.Convert(img.At(0, 0)))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, color.RGBAModel.Convert(img.At(0, 1)))
}

func TestSavePixelsSizeMismatch(t *testing.T) {
	s := NewSnapshots(t.TempDir(), "view")
	_, err := s.SavePixels("frame", make([]byte, 7), 1, 2)
	assert.Error(t, err)
}

func TestWritePNGCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "tree.png")
	require.NoError(t, WritePNG(path, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}
