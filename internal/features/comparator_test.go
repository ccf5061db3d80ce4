package features

import (
	"math"
	"testing"

	apperrors "go-lowlight-vision/internal/errors"
	"go-lowlight-vision/pkg/models"
)

func sampleImageFeatures() models.ImageFeatures {
	b := NewBuilder()
	return models.ImageFeatures{
		Keypoints:   sampleKeypoints(),
		Texture:     sampleTexture(),
		Statistical: sampleStatistical(),
		Quality:     models.QualityMetrics{Brightness: 60, Contrast: 30, Sharpness: 8},
		Vector:      b.Build(sampleKeypoints(), sampleTexture(), sampleStatistical()),
	}
}

func TestCompare_Identical(t *testing.T) {
	c := NewComparator()
	features := sampleImageFeatures()

	result, err := c.Compare(&features, &features)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if math.Abs(result.Similarity-1.0) > 1e-6 {
		t.Errorf("Expected self-similarity ~1, got %f", result.Similarity)
	}
	if result.EuclideanDistance > 1e-9 {
		t.Errorf("Expected zero distance, got %f", result.EuclideanDistance)
	}
	if result.Deltas.Keypoints.ORBPct != 0 || result.Deltas.Quality.Brightness != 0 {
		t.Errorf("Expected zero deltas for identical features, got %+v", result.Deltas)
	}
}

func TestCompare_EmptyFusedVector(t *testing.T) {
	c := NewComparator()
	features := sampleImageFeatures()
	empty := models.ImageFeatures{}

	_, err := c.Compare(&empty, &features)
	if err == nil {
		t.Fatal("Expected error for empty fused vector")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeComparison) {
		t.Errorf("Expected comparison error type, got %v", err)
	}
}

func TestCompare_KeypointDeltas(t *testing.T) {
	c := NewComparator()
	raw := sampleImageFeatures()
	enhanced := sampleImageFeatures()
	enhanced.Keypoints = models.KeypointStats{ORB: 180, FAST: 300, SIFT: 40}

	result, err := c.Compare(&raw, &enhanced)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if math.Abs(result.Deltas.Keypoints.ORBPct-50.0) > 1e-9 {
		t.Errorf("Expected ORB +50%%, got %f", result.Deltas.Keypoints.ORBPct)
	}
	if result.Deltas.Keypoints.FASTPct != 0 {
		t.Errorf("Expected FAST 0%%, got %f", result.Deltas.Keypoints.FASTPct)
	}
	if math.Abs(result.Deltas.Keypoints.SIFTPct-(-50.0)) > 1e-9 {
		t.Errorf("Expected SIFT -50%%, got %f", result.Deltas.Keypoints.SIFTPct)
	}
}

func TestCompare_QualityAndGLCMDeltas(t *testing.T) {
	c := NewComparator()
	raw := sampleImageFeatures()
	enhanced := sampleImageFeatures()
	enhanced.Quality = models.QualityMetrics{Brightness: 110, Contrast: 45, Sharpness: 6}
	enhanced.Texture.GLCM.Energy = 0.5

	result, err := c.Compare(&raw, &enhanced)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if math.Abs(result.Deltas.Quality.Brightness-50) > 1e-9 {
		t.Errorf("Expected brightness delta 50, got %f", result.Deltas.Quality.Brightness)
	}
	if math.Abs(result.Deltas.Quality.Sharpness-(-2)) > 1e-9 {
		t.Errorf("Expected sharpness delta -2, got %f", result.Deltas.Quality.Sharpness)
	}
	if math.Abs(result.Deltas.GLCM.Energy-0.2) > 1e-9 {
		t.Errorf("Expected GLCM energy delta 0.2, got %f", result.Deltas.GLCM.Energy)
	}
}

func TestPercentChange(t *testing.T) {
	testCases := []struct {
		name     string
		raw      float64
		enhanced float64
		expected float64
	}{
		{"Increase", 100, 150, 50},
		{"Decrease", 100, 75, -25},
		{"NoChange", 42, 42, 0},
		{"ZeroBaseline", 0, 500, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := PercentChange(tc.raw, tc.enhanced)
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Errorf("Expected %f, got %f", tc.expected, got)
			}
		})
	}
}
