package analyzer

import (
	"math"
	"testing"

	"go-lowlight-vision/internal/imaging"
)

func createUniformSample(width, height int, r, g, b uint8) *imaging.ImageSample {
	pix := make([]uint8, width*height*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i] = r
		pix[i+1] = g
		pix[i+2] = b
		pix[i+3] = 255
	}
	return &imaging.ImageSample{Width: width, Height: height, Pix: pix}
}

func TestAnalyzeStatistics_UniformColorMoments(t *testing.T) {
	sa := NewStatisticalAnalyzer()
	sample := createUniformSample(16, 16, 40, 120, 200)
	features := sa.AnalyzeStatistics(sample, sample.Gray())

	expected := [3]float64{40, 120, 200}
	for c := 0; c < 3; c++ {
		if features.ColorMoments.Mean[c] != expected[c] {
			t.Errorf("Channel %d: expected mean %f, got %f", c, expected[c], features.ColorMoments.Mean[c])
		}
		if features.ColorMoments.Std[c] != 0 {
			t.Errorf("Channel %d: expected std 0, got %f", c, features.ColorMoments.Std[c])
		}
		if features.ColorMoments.Skewness[c] != 0 {
			t.Errorf("Channel %d: expected skewness 0, got %f", c, features.ColorMoments.Skewness[c])
		}
	}
}

func TestAnalyzeStatistics_BlackImageHuMoments(t *testing.T) {
	sa := NewStatisticalAnalyzer()
	sample := createUniformSample(8, 8, 0, 0, 0)
	features := sa.AnalyzeStatistics(sample, sample.Gray())

	// Zero total intensity: the moment normalization is undefined and the
	// vector degrades to all zeros.
	for i, v := range features.HuMoments {
		if v != 0 {
			t.Errorf("Expected zero Hu moment at %d, got %f", i, v)
		}
	}
}

func TestAnalyzeStatistics_HuMomentIdentities(t *testing.T) {
	sa := &statisticalAnalyzer{}

	// A symmetric uniform gray field has eta11 = 0, so h2 = h3 and h4 = 0.
	hu := sa.huMoments(createFlatGray(32, 32, 100))

	if hu[3] != 0 {
		t.Errorf("Expected h4 (eta11 squared) = 0 for symmetric image, got %f", hu[3])
	}
	if math.Abs(hu[1]-hu[2]) > 1e-9 {
		t.Errorf("Expected h2 = h3 when eta11 = 0, got %f and %f", hu[1], hu[2])
	}
	if hu[0] <= 0 {
		t.Errorf("Expected positive h1 for non-empty image, got %f", hu[0])
	}
}

func TestAnalyzeStatistics_HuMomentsRounded(t *testing.T) {
	sa := &statisticalAnalyzer{}
	hu := sa.huMoments(createCheckerboardGray(24, 24, 3, 30, 210))

	for i, v := range hu {
		if v != Round6(v) {
			t.Errorf("Hu moment %d not rounded to 6 decimals: %v", i, v)
		}
	}
}

func TestAnalyzeStatistics_SkewedChannel(t *testing.T) {
	sa := NewStatisticalAnalyzer()

	// Mostly dark with a bright tail: positive skewness in every channel.
	width, height := 10, 10
	pix := make([]uint8, width*height*4)
	for i := 0; i < len(pix); i += 4 {
		v := uint8(10)
		if i/4 < 10 {
			v = 250
		}
		pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, v, 255
	}
	sample := &imaging.ImageSample{Width: width, Height: height, Pix: pix}
	features := sa.AnalyzeStatistics(sample, sample.Gray())

	for c := 0; c < 3; c++ {
		if features.ColorMoments.Skewness[c] <= 0 {
			t.Errorf("Channel %d: expected positive skewness, got %f", c, features.ColorMoments.Skewness[c])
		}
	}
}

func TestAnalyzeStatistics_EmptyImage(t *testing.T) {
	sa := NewStatisticalAnalyzer()
	sample := &imaging.ImageSample{Width: 0, Height: 0, Pix: []uint8{}}
	features := sa.AnalyzeStatistics(sample, sample.Gray())

	if features.ColorMoments.Mean != [3]float64{} {
		t.Errorf("Expected zero moments for empty image, got %+v", features.ColorMoments)
	}
}
