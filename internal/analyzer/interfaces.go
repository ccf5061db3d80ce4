package analyzer

import (
	"go-lowlight-vision/internal/imaging"
	"go-lowlight-vision/pkg/models"
)

// QualityAnalyzer computes brightness, contrast and sharpness from a
// grayscale view.
type QualityAnalyzer interface {
	AnalyzeQuality(gray *imaging.GrayscaleView) models.QualityMetrics
}

// KeypointEstimator computes the three deterministic keypoint-density
// estimates from edge/complexity statistics.
type KeypointEstimator interface {
	EstimateKeypoints(gray *imaging.GrayscaleView) models.KeypointStats
}

// TextureAnalyzer computes the HOG-like, LBP-like and GLCM-like descriptor
// families.
type TextureAnalyzer interface {
	AnalyzeTexture(gray *imaging.GrayscaleView) models.TextureFeatures
}

// StatisticalAnalyzer computes the shape-moment vector and per-channel color
// moments.
type StatisticalAnalyzer interface {
	AnalyzeStatistics(sample *imaging.ImageSample, gray *imaging.GrayscaleView) models.StatisticalFeatures
}
