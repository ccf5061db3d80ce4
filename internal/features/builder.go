package features

import (
	"gonum.org/v1/gonum/floats"

	"go-lowlight-vision/pkg/models"
)

const (
	// Fixed slice widths keep the fused vector length identical across
	// images regardless of their size.
	hogSliceLen = 20
	lbpSliceLen = 20

	normEpsilon = 1e-10
)

// Builder fuses the analyzer outputs into a single L2-normalized vector
// while retaining sub-vector boundaries for later reporting.
type Builder struct{}

// NewBuilder creates a feature vector builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build concatenates the keypoint counts, fixed texture slices and
// statistical moments, then L2-normalizes the fused vector. A pre-norm below
// the epsilon guard yields the zero vector.
func (b *Builder) Build(keypoints models.KeypointStats, texture models.TextureFeatures, statistical models.StatisticalFeatures) models.FeatureVector {
	kp := []float64{float64(keypoints.ORB), float64(keypoints.FAST), float64(keypoints.SIFT)}

	tex := make([]float64, 0, hogSliceLen+lbpSliceLen+3)
	tex = append(tex, headPadded(texture.HOG.Descriptor, hogSliceLen)...)
	tex = append(tex, headPadded(texture.LBP.Histogram, lbpSliceLen)...)
	tex = append(tex, texture.GLCM.Contrast, texture.GLCM.Energy, texture.GLCM.Homogeneity)

	st := make([]float64, 0, 13)
	st = append(st, statistical.HuMoments[:]...)
	st = append(st, statistical.ColorMoments.Mean[:]...)
	st = append(st, statistical.ColorMoments.Std[:]...)

	fused := make([]float64, 0, len(kp)+len(tex)+len(st))
	fused = append(fused, kp...)
	fused = append(fused, tex...)
	fused = append(fused, st...)

	norm := floats.Norm(fused, 2)
	if norm > normEpsilon {
		floats.Scale(1.0/norm, fused)
	} else {
		for i := range fused {
			fused[i] = 0
		}
	}

	return models.FeatureVector{
		Keypoints:      kp,
		Texture:        tex,
		Statistical:    st,
		Fused:          fused,
		Dimensionality: len(fused),
	}
}

// headPadded returns the first n values, zero-padding when the source is
// shorter (tiny images produce short descriptors).
func headPadded(src []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, src)
	return out
}
