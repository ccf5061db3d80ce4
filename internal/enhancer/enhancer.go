package enhancer

import (
	"fmt"
	"math"

	apperrors "go-lowlight-vision/internal/errors"
	"go-lowlight-vision/internal/imaging"
)

// Mode selects one of the enhancement variants.
type Mode string

const (
	// ModeComposite applies local adaptive histogram equalization to the
	// luminance channel followed by a fixed gamma remap.
	ModeComposite Mode = "composite"
	// ModeHistEq applies a global CDF stretch to the luminance channel.
	ModeHistEq Mode = "histeq"
	// ModeGamma applies a gamma lookup table to all three RGB channels.
	ModeGamma Mode = "gamma"
)

const (
	compositeGamma = 1.8
	claheClipLimit = 3.0
	claheTileGrid  = 8
)

// Enhancer produces an enhanced version of an input image. Implementations
// are pure: identical pixels in, identical pixels out.
type Enhancer interface {
	Enhance(sample *imaging.ImageSample) (*imaging.ImageSample, error)
	Name() string
}

// New creates an enhancer for the given mode. Gamma is only consulted by
// ModeGamma; the composite variant always uses its fixed 1.8 remap.
func New(mode Mode, gamma float64) (Enhancer, error) {
	switch mode {
	case ModeComposite:
		return &compositeEnhancer{}, nil
	case ModeHistEq:
		return &histEqEnhancer{}, nil
	case ModeGamma:
		if gamma <= 0 {
			return nil, apperrors.NewEnhancementError(fmt.Sprintf("gamma must be positive, got %g", gamma), nil)
		}
		return &gammaEnhancer{gamma: gamma}, nil
	default:
		return nil, apperrors.NewEnhancementError(fmt.Sprintf("unknown enhancement mode %q", mode), nil)
	}
}

// GammaLUT precomputes the 256-entry remap table
//
//	lut[i] = floor((i/255)^(1/gamma) * 255)
//
// The truncation (not rounding) is load-bearing: golden-output comparisons
// depend on it.
func GammaLUT(gamma float64) [256]uint8 {
	var lut [256]uint8
	inv := 1.0 / gamma
	for i := 0; i < 256; i++ {
		lut[i] = uint8(math.Pow(float64(i)/255.0, inv) * 255.0)
	}
	return lut
}

func validate(sample *imaging.ImageSample) error {
	if sample == nil {
		return apperrors.NewEnhancementError("nil image sample", nil)
	}
	if sample.Width <= 0 || sample.Height <= 0 {
		return apperrors.NewEnhancementError(
			fmt.Sprintf("cannot enhance %dx%d image", sample.Width, sample.Height), nil)
	}
	if len(sample.Pix) != sample.Width*sample.Height*4 {
		return apperrors.NewEnhancementError("malformed pixel buffer", nil)
	}
	return nil
}

// gammaEnhancer remaps all three channels directly on the RGB image.
type gammaEnhancer struct {
	gamma float64
}

func (e *gammaEnhancer) Name() string { return string(ModeGamma) }

func (e *gammaEnhancer) Enhance(sample *imaging.ImageSample) (*imaging.ImageSample, error) {
	if err := validate(sample); err != nil {
		return nil, err
	}
	lut := GammaLUT(e.gamma)
	out := make([]uint8, len(sample.Pix))
	for i := 0; i < len(sample.Pix); i += 4 {
		out[i] = lut[sample.Pix[i]]
		out[i+1] = lut[sample.Pix[i+1]]
		out[i+2] = lut[sample.Pix[i+2]]
		out[i+3] = sample.Pix[i+3]
	}
	return &imaging.ImageSample{Width: sample.Width, Height: sample.Height, Pix: out}, nil
}

// histEqEnhancer equalizes only the luma channel's histogram with the
// standard CDF stretch, leaving chroma untouched.
type histEqEnhancer struct{}

func (e *histEqEnhancer) Name() string { return string(ModeHistEq) }

func (e *histEqEnhancer) Enhance(sample *imaging.ImageSample) (*imaging.ImageSample, error) {
	if err := validate(sample); err != nil {
		return nil, err
	}
	luma, cb, cr := toYCbCr(sample)

	var hist [256]int
	for _, y := range luma {
		hist[y]++
	}
	total := len(luma)

	var cdf [256]int
	running := 0
	cdfMin := 0
	for i := 0; i < 256; i++ {
		running += hist[i]
		cdf[i] = running
		if cdfMin == 0 && hist[i] > 0 {
			cdfMin = running
		}
	}

	var mapping [256]uint8
	if total == cdfMin {
		// Single gray level: the stretch is undefined, keep levels as-is.
		for i := 0; i < 256; i++ {
			mapping[i] = uint8(i)
		}
	} else {
		denom := float64(total - cdfMin)
		for i := 0; i < 256; i++ {
			v := math.Round(float64(cdf[i]-cdfMin) / denom * 255.0)
			mapping[i] = clampLevel(v)
		}
	}

	out := make([]uint8, len(luma))
	for i, y := range luma {
		out[i] = mapping[y]
	}
	return fromYCbCr(sample, out, cb, cr), nil
}

// compositeEnhancer is the full low-light transform: CLAHE on the luminance
// channel (clip 3.0, 8x8 tiles), chroma untouched, then a gamma 1.8 remap
// on the recombined RGB image.
type compositeEnhancer struct{}

func (e *compositeEnhancer) Name() string { return string(ModeComposite) }

func (e *compositeEnhancer) Enhance(sample *imaging.ImageSample) (*imaging.ImageSample, error) {
	if err := validate(sample); err != nil {
		return nil, err
	}
	luma, cb, cr := toYCbCr(sample)
	equalized := applyCLAHE(luma, sample.Width, sample.Height, claheClipLimit, claheTileGrid)
	rgb := fromYCbCr(sample, equalized, cb, cr)

	lut := GammaLUT(compositeGamma)
	for i := 0; i < len(rgb.Pix); i += 4 {
		rgb.Pix[i] = lut[rgb.Pix[i]]
		rgb.Pix[i+1] = lut[rgb.Pix[i+1]]
		rgb.Pix[i+2] = lut[rgb.Pix[i+2]]
	}
	return rgb, nil
}

// toYCbCr separates the image into a quantized BT.601 luma channel and
// full-precision chroma planes.
func toYCbCr(sample *imaging.ImageSample) (luma []uint8, cb, cr []float64) {
	n := sample.Width * sample.Height
	luma = make([]uint8, n)
	cb = make([]float64, n)
	cr = make([]float64, n)
	for i := 0; i < n; i++ {
		p := i * 4
		r := float64(sample.Pix[p])
		g := float64(sample.Pix[p+1])
		b := float64(sample.Pix[p+2])
		y := 0.299*r + 0.587*g + 0.114*b
		luma[i] = clampLevel(math.Round(y))
		cb[i] = 128.0 - 0.168736*r - 0.331264*g + 0.5*b
		cr[i] = 128.0 + 0.5*r - 0.418688*g - 0.081312*b
	}
	return luma, cb, cr
}

// fromYCbCr recombines a processed luma channel with the original chroma
// planes and converts back to RGBA, preserving the source alpha.
func fromYCbCr(sample *imaging.ImageSample, luma []uint8, cb, cr []float64) *imaging.ImageSample {
	n := sample.Width * sample.Height
	out := make([]uint8, n*4)
	for i := 0; i < n; i++ {
		y := float64(luma[i])
		dcb := cb[i] - 128.0
		dcr := cr[i] - 128.0
		p := i * 4
		out[p] = clampLevel(math.Round(y + 1.402*dcr))
		out[p+1] = clampLevel(math.Round(y - 0.344136*dcb - 0.714136*dcr))
		out[p+2] = clampLevel(math.Round(y + 1.772*dcb))
		out[p+3] = sample.Pix[p+3]
	}
	return &imaging.ImageSample{Width: sample.Width, Height: sample.Height, Pix: out}
}

func clampLevel(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
