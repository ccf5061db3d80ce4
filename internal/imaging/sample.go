package imaging

import (
	"fmt"
	"image"
	"image/color"
)

// ImageSample is a dense row-major RGBA pixel buffer. It is immutable once
// constructed; all analyzers read it through accessor methods and never
// retain a reference past the call that received it.
type ImageSample struct {
	Width  int
	Height int
	// Pix holds 4 interleaved 8-bit channel values (R, G, B, A) per pixel.
	Pix []uint8
}

// NewImageSample validates dimensions against the buffer length.
func NewImageSample(width, height int, pix []uint8) (*ImageSample, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("negative dimensions %dx%d", width, height)
	}
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("pixel buffer length %d does not match %dx%dx4", len(pix), width, height)
	}
	return &ImageSample{Width: width, Height: height, Pix: pix}, nil
}

// FromImage converts any decoded image into an ImageSample, collapsing the
// source color model to 8-bit RGBA.
func FromImage(img image.Image) *ImageSample {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pix := make([]uint8, width*height*4)

	// Fast path for the common decode output
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == width*4 && bounds.Min == (image.Point{}) {
		copy(pix, rgba.Pix[:width*height*4])
		return &ImageSample{Width: width, Height: height, Pix: pix}
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			pix[i] = uint8(r >> 8)
			pix[i+1] = uint8(g >> 8)
			pix[i+2] = uint8(b >> 8)
			pix[i+3] = uint8(a >> 8)
			i += 4
		}
	}
	return &ImageSample{Width: width, Height: height, Pix: pix}
}

// RGBAt returns the 8-bit channel values at (x, y). Callers are expected to
// stay in bounds; the hot analyzer loops do their own bounds math.
func (s *ImageSample) RGBAt(x, y int) (r, g, b, a uint8) {
	i := (y*s.Width + x) * 4
	return s.Pix[i], s.Pix[i+1], s.Pix[i+2], s.Pix[i+3]
}

// ToImage materializes the sample as a standard image for encoding.
func (s *ImageSample) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	copy(img.Pix, s.Pix)
	return img
}

// At implements enough of image.Image for encoders that want color access.
func (s *ImageSample) At(x, y int) color.Color {
	r, g, b, a := s.RGBAt(x, y)
	return color.RGBA{R: r, G: g, B: b, A: a}
}

// Gray computes the derived grayscale field using ITU-R BT.601 weights
// (0.299R + 0.587G + 0.114B). The view is recomputed per call and owned by
// the caller.
func (s *ImageSample) Gray() *GrayscaleView {
	data := make([]float64, s.Width*s.Height)
	for i := 0; i < len(data); i++ {
		p := i * 4
		data[i] = 0.299*float64(s.Pix[p]) + 0.587*float64(s.Pix[p+1]) + 0.114*float64(s.Pix[p+2])
	}
	return &GrayscaleView{Width: s.Width, Height: s.Height, data: data}
}

// GrayscaleView is a scalar luminance field derived from an ImageSample.
// Values are full-precision floats in [0, 255].
type GrayscaleView struct {
	Width  int
	Height int
	data   []float64
}

// NewGrayscaleView wraps a precomputed luminance buffer. Used by tests and
// by the enhancer which already works on a separated luma channel.
func NewGrayscaleView(width, height int, data []float64) (*GrayscaleView, error) {
	if len(data) != width*height {
		return nil, fmt.Errorf("gray buffer length %d does not match %dx%d", len(data), width, height)
	}
	return &GrayscaleView{Width: width, Height: height, data: data}, nil
}

// At returns the luminance at (x, y).
func (g *GrayscaleView) At(x, y int) float64 {
	return g.data[y*g.Width+x]
}

// Values exposes the raw row-major buffer for bulk statistics.
func (g *GrayscaleView) Values() []float64 {
	return g.data
}

// Level returns the luminance at (x, y) clamped and rounded to an integer
// gray level in [0, 255]. Histogram-style consumers bin on levels.
func (g *GrayscaleView) Level(x, y int) int {
	v := int(g.data[y*g.Width+x] + 0.5)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
