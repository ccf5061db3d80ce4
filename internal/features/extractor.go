package features

import (
	"go-lowlight-vision/internal/analyzer"
	"go-lowlight-vision/internal/imaging"
	"go-lowlight-vision/pkg/models"
)

// Extractor runs all analyzers over one image and fuses the results. One
// grayscale view is computed per call and shared across the analyzers.
type Extractor struct {
	quality     analyzer.QualityAnalyzer
	keypoints   analyzer.KeypointEstimator
	texture     analyzer.TextureAnalyzer
	statistical analyzer.StatisticalAnalyzer
	builder     *Builder
}

// NewExtractor wires the default analyzer set.
func NewExtractor() *Extractor {
	return &Extractor{
		quality:     analyzer.NewQualityAnalyzer(),
		keypoints:   analyzer.NewKeypointEstimator(),
		texture:     analyzer.NewTextureAnalyzer(),
		statistical: analyzer.NewStatisticalAnalyzer(),
		builder:     NewBuilder(),
	}
}

// Extract computes the full feature set for one image. It is total over any
// well-formed sample and deterministic for byte-identical pixels.
func (e *Extractor) Extract(sample *imaging.ImageSample) models.ImageFeatures {
	gray := sample.Gray()

	keypoints := e.keypoints.EstimateKeypoints(gray)
	texture := e.texture.AnalyzeTexture(gray)
	statistical := e.statistical.AnalyzeStatistics(sample, gray)
	quality := e.quality.AnalyzeQuality(gray)

	return models.ImageFeatures{
		Keypoints:   keypoints,
		Texture:     texture,
		Statistical: statistical,
		Quality:     quality,
		Vector:      e.builder.Build(keypoints, texture, statistical),
	}
}
