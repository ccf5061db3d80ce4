package detector

import (
	"context"

	"go-lowlight-vision/internal/imaging"
	"go-lowlight-vision/pkg/models"
)

// Detector is the external object-detection collaborator. The pipeline
// treats it as an opaque, possibly slow, possibly failing call. LoadModel is
// idempotent and safe to call repeatedly; it must succeed before the first
// Detect.
type Detector interface {
	LoadModel(ctx context.Context) error
	Detect(ctx context.Context, sample *imaging.ImageSample) (models.DetectionResult, error)
}

// noopDetector returns empty detections. Used for offline runs where no
// model server is configured; the pipeline still produces feature and
// quality comparisons.
type noopDetector struct{}

// NewNoop creates a detector that always returns zero boxes.
func NewNoop() Detector {
	return &noopDetector{}
}

func (d *noopDetector) LoadModel(ctx context.Context) error { return nil }

func (d *noopDetector) Detect(ctx context.Context, sample *imaging.ImageSample) (models.DetectionResult, error) {
	return models.DetectionResult{
		Boxes:        []models.BoundingBox{},
		ImageWidth:   sample.Width,
		ImageHeight:  sample.Height,
		ModelVersion: "noop",
	}, nil
}

// MeanConfidence is the mAP proxy used by the pipeline's improvement score:
// the arithmetic mean of box confidences, 0 when nothing was detected.
func MeanConfidence(result models.DetectionResult) float64 {
	if len(result.Boxes) == 0 {
		return 0
	}
	var sum float64
	for _, box := range result.Boxes {
		sum += box.Confidence
	}
	return sum / float64(len(result.Boxes))
}
