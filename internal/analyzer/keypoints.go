package analyzer

import (
	"math"

	"go-lowlight-vision/internal/imaging"
	"go-lowlight-vision/pkg/models"
)

// Keypoint estimate coefficients. Each count is an affine function of the
// complexity and edge-density base statistics, floored to an integer. These
// are designed proxy metrics: deterministic and monotone with edge content,
// used only for relative before/after comparison.
const (
	complexityThreshold = 30.0

	orbComplexityWeight  = 1200.0
	orbEdgeWeight        = 800.0
	fastComplexityWeight = 2000.0
	fastEdgeWeight       = 1500.0
	siftComplexityWeight = 900.0
	siftEdgeWeight       = 600.0
)

type keypointEstimator struct{}

// NewKeypointEstimator creates a keypoint-density estimator.
func NewKeypointEstimator() KeypointEstimator {
	return &keypointEstimator{}
}

func (ke *keypointEstimator) EstimateKeypoints(gray *imaging.GrayscaleView) models.KeypointStats {
	complexity := ke.complexity(gray)
	edgeDensity := ke.edgeDensity(gray)

	return models.KeypointStats{
		ORB:  int(orbComplexityWeight*complexity + orbEdgeWeight*edgeDensity),
		FAST: int(fastComplexityWeight*complexity + fastEdgeWeight*edgeDensity),
		SIFT: int(siftComplexityWeight*complexity + siftEdgeWeight*edgeDensity),
	}
}

// complexity is the fraction of right/down neighbor pairs whose gray
// difference exceeds the fixed threshold.
func (ke *keypointEstimator) complexity(gray *imaging.GrayscaleView) float64 {
	width, height := gray.Width, gray.Height
	pairs := 0
	above := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := gray.At(x, y)
			if x+1 < width {
				pairs++
				if math.Abs(v-gray.At(x+1, y)) > complexityThreshold {
					above++
				}
			}
			if y+1 < height {
				pairs++
				if math.Abs(v-gray.At(x, y+1)) > complexityThreshold {
					above++
				}
			}
		}
	}
	if pairs == 0 {
		return 0
	}
	return float64(above) / float64(pairs)
}

// edgeDensity is the mean Sobel gradient magnitude over interior pixels,
// normalized by 255.
func (ke *keypointEstimator) edgeDensity(gray *imaging.GrayscaleView) float64 {
	width, height := gray.Width, gray.Height
	if width < 3 || height < 3 {
		return 0
	}
	var sum float64
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			gx := -gray.At(x-1, y-1) + gray.At(x+1, y-1) +
				-2*gray.At(x-1, y) + 2*gray.At(x+1, y) +
				-gray.At(x-1, y+1) + gray.At(x+1, y+1)
			gy := -gray.At(x-1, y-1) - 2*gray.At(x, y-1) - gray.At(x+1, y-1) +
				gray.At(x-1, y+1) + 2*gray.At(x, y+1) + gray.At(x+1, y+1)
			sum += math.Sqrt(gx*gx + gy*gy)
		}
	}
	interior := float64((width - 2) * (height - 2))
	return sum / interior / 255.0
}
