package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// Snapshots writes numbered, timestamped PNG files into one directory.
type Snapshots struct {
	outputDir string
	prefix    string
	now       func() time.Time
}

// NewSnapshots creates a snapshot writer. An empty outputDir means the
// working directory.
func NewSnapshots(outputDir, prefix string) *Snapshots {
	return &Snapshots{
		outputDir: outputDir,
		prefix:    prefix,
		now:       time.Now,
	}
}

// Filename returns the path the next snapshot tagged tag would be written to.
func (s *Snapshots) Filename(tag string) string {
	name := fmt.Sprintf("%s_%s_%s.png", s.prefix, tag, s.now().Format("2006-01-02_15-04-05"))
	if s.outputDir != "" {
		name = filepath.Join(s.outputDir, name)
	}
	return name
}

// SavePixels writes bottom-up RGBA pixels, as returned by glReadPixels,
// flipped so row 0 is the top of the image.
func (s *Snapshots) SavePixels(tag string, pixels []byte, width, height int) (string, error) {
	if len(pixels) != width*height*4 {
		return "", fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		dst := y * img.Stride
		copy(img.Pix[dst:dst+rowSize], pixels[src:src+rowSize])
	}
	return s.SaveImage(tag, img)
}

// SaveImage encodes img to a new file and returns its path.
func (s *Snapshots) SaveImage(tag string, img image.Image) (string, error) {
	path := s.Filename(tag)
	return path, WritePNG(path, img)
}

// WritePNG encodes img to path, creating parent directories.
func WritePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return file.Close()
}
