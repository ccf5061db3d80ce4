package features

import (
	"math"

	"gonum.org/v1/gonum/floats"

	apperrors "go-lowlight-vision/internal/errors"
	"go-lowlight-vision/pkg/models"
)

// Comparator measures similarity and labeled deltas between the raw and
// enhanced feature sets of the same image.
type Comparator struct{}

// NewComparator creates a comparator.
func NewComparator() *Comparator {
	return &Comparator{}
}

// Compare computes cosine similarity and Euclidean distance over the fused
// vectors (min-length overlap) plus per-component deltas from the un-fused
// structures. Empty fused vectors are a ComparisonError.
func (c *Comparator) Compare(raw, enhanced *models.ImageFeatures) (models.ComparisonResult, error) {
	a := raw.Vector.Fused
	b := enhanced.Vector.Fused
	if len(a) == 0 || len(b) == 0 {
		return models.ComparisonResult{}, apperrors.NewComparisonError("empty fused vector", nil)
	}

	overlap := len(a)
	if len(b) < overlap {
		overlap = len(b)
	}
	a = a[:overlap]
	b = b[:overlap]

	dot := floats.Dot(a, b)
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	similarity := dot / (normA*normB + normEpsilon)
	distance := floats.Distance(a, b, 2)

	return models.ComparisonResult{
		Similarity:        similarity,
		EuclideanDistance: distance,
		Deltas: models.ComponentDeltas{
			Keypoints: models.KeypointDeltas{
				ORBPct:  PercentChange(float64(raw.Keypoints.ORB), float64(enhanced.Keypoints.ORB)),
				FASTPct: PercentChange(float64(raw.Keypoints.FAST), float64(enhanced.Keypoints.FAST)),
				SIFTPct: PercentChange(float64(raw.Keypoints.SIFT), float64(enhanced.Keypoints.SIFT)),
			},
			Quality: models.QualityDeltas{
				Brightness: enhanced.Quality.Brightness - raw.Quality.Brightness,
				Contrast:   enhanced.Quality.Contrast - raw.Quality.Contrast,
				Sharpness:  enhanced.Quality.Sharpness - raw.Quality.Sharpness,
			},
			GLCM: models.GLCMDeltas{
				Contrast:    enhanced.Texture.GLCM.Contrast - raw.Texture.GLCM.Contrast,
				Energy:      enhanced.Texture.GLCM.Energy - raw.Texture.GLCM.Energy,
				Homogeneity: enhanced.Texture.GLCM.Homogeneity - raw.Texture.GLCM.Homogeneity,
			},
		},
	}, nil
}

// PercentChange computes (enhanced-raw)/raw * 100 with raw=0 treated as 0
// rather than a division blowup.
func PercentChange(raw, enhanced float64) float64 {
	if math.Abs(raw) < normEpsilon {
		return 0
	}
	return (enhanced - raw) / raw * 100.0
}
