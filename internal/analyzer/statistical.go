package analyzer

import (
	"math"

	"go-lowlight-vision/internal/imaging"
	"go-lowlight-vision/pkg/models"
)

const momentEpsilon = 1e-10

type statisticalAnalyzer struct{}

// NewStatisticalAnalyzer creates a statistical analyzer.
func NewStatisticalAnalyzer() StatisticalAnalyzer {
	return &statisticalAnalyzer{}
}

func (sa *statisticalAnalyzer) AnalyzeStatistics(sample *imaging.ImageSample, gray *imaging.GrayscaleView) models.StatisticalFeatures {
	return models.StatisticalFeatures{
		HuMoments:    sa.huMoments(gray),
		ColorMoments: sa.colorMoments(sample),
	}
}

// huMoments computes the simplified 7-value shape-moment vector. Raw moments
// use grayscale intensity as weight; central moments are normalized by m00
// squared and combined into fixed polynomials of eta20, eta02 and eta11.
// The combinations are intentionally not the textbook Hu invariants.
func (sa *statisticalAnalyzer) huMoments(gray *imaging.GrayscaleView) [7]float64 {
	width, height := gray.Width, gray.Height
	var m00, m10, m01 float64
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := gray.At(x, y)
			m00 += g
			m10 += float64(x) * g
			m01 += float64(y) * g
		}
	}
	if m00 < momentEpsilon {
		return [7]float64{}
	}

	xc := m10 / m00
	yc := m01 / m00

	var mu20, mu02, mu11 float64
	for y := 0; y < height; y++ {
		dy := float64(y) - yc
		for x := 0; x < width; x++ {
			g := gray.At(x, y)
			dx := float64(x) - xc
			mu20 += dx * dx * g
			mu02 += dy * dy * g
			mu11 += dx * dy * g
		}
	}

	norm := m00 * m00
	eta20 := mu20 / norm
	eta02 := mu02 / norm
	eta11 := mu11 / norm

	diff := eta20 - eta02
	sum := eta20 + eta02
	return [7]float64{
		Round6(sum),
		Round6(diff*diff + 4*eta11*eta11),
		Round6(diff * diff),
		Round6(eta11 * eta11),
		Round6(sum * diff),
		Round6(eta20*eta02 - eta11*eta11),
		Round6(eta20 * eta02),
	}
}

// colorMoments computes mean, population standard deviation and skewness per
// RGB channel over all pixels. Skewness uses the third-moment identity
// (E[x^3] - 3*mean*var - mean^3) / std^3 with an epsilon-guarded denominator.
func (sa *statisticalAnalyzer) colorMoments(sample *imaging.ImageSample) models.ColorMoments {
	n := sample.Width * sample.Height
	if n == 0 {
		return models.ColorMoments{}
	}

	var sum, sumSq, sumCube [3]float64
	for i := 0; i < len(sample.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := float64(sample.Pix[i+c])
			sum[c] += v
			sumSq[c] += v * v
			sumCube[c] += v * v * v
		}
	}

	var moments models.ColorMoments
	count := float64(n)
	for c := 0; c < 3; c++ {
		mean := sum[c] / count
		variance := sumSq[c]/count - mean*mean
		if variance < 0 {
			variance = 0
		}
		std := math.Sqrt(variance)

		thirdCentral := sumCube[c]/count - 3*mean*variance - mean*mean*mean
		skewness := thirdCentral / (std*std*std + momentEpsilon)

		moments.Mean[c] = Round2(mean)
		moments.Std[c] = Round2(std)
		moments.Skewness[c] = Round2(skewness)
	}
	return moments
}
