package models

// PipelineStage identifies one step of the enhancement pipeline state machine.
type PipelineStage string

const (
	StageEnhancement               PipelineStage = "enhancement"
	StageFeatureExtractionRaw      PipelineStage = "feature_extraction_raw"
	StageFeatureExtractionEnhanced PipelineStage = "feature_extraction_enhanced"
	StageDetectionRaw              PipelineStage = "detection_raw"
	StageDetectionEnhanced         PipelineStage = "detection_enhanced"
	StageComparison                PipelineStage = "comparison"
	StageComplete                  PipelineStage = "complete"
)

// ProgressEvent is emitted synchronously before each pipeline stage runs.
// CurrentImage is "raw", "enhanced" or empty when the stage spans both.
type ProgressEvent struct {
	Stage        PipelineStage `json:"stage"`
	Progress     int           `json:"progress"`
	Message      string        `json:"message"`
	CurrentImage string        `json:"current_image,omitempty"`
}

// BoundingBox is a single detection returned by the external detector.
type BoundingBox struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
	Class      string  `json:"class"`
	ClassID    int     `json:"class_id"`
}

// DetectionResult is the external detector's output for one image.
type DetectionResult struct {
	Boxes            []BoundingBox `json:"boxes"`
	ImageWidth       int           `json:"image_width"`
	ImageHeight      int           `json:"image_height"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
	ModelVersion     string        `json:"model_version"`
}

// PipelineSide holds everything computed for one version (raw or enhanced)
// of the input image.
type PipelineSide struct {
	ImageRef         string          `json:"image_ref"`
	Features         ImageFeatures   `json:"features"`
	Detections       DetectionResult `json:"detections"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
}

// ComparisonSummary carries the per-category improvement percentages and the
// single weighted overall score:
//
//	0.3*keypoint + 0.2*texture + 0.2*quality + 0.3*(mAP delta * 100)
type ComparisonSummary struct {
	Result                 ComparisonResult `json:"result"`
	KeypointImprovementPct float64          `json:"keypoint_improvement_pct"`
	TextureImprovementPct  float64          `json:"texture_improvement_pct"`
	QualityImprovementPct  float64          `json:"quality_improvement_pct"`
	DetectionMAPDelta      float64          `json:"detection_map_delta"`
	OverallImprovement     float64          `json:"overall_improvement"`
}

// PipelineResult is the full outcome of one pipeline run. Every field is a
// plain number, string or array/struct thereof so the result round-trips
// through JSON without internal buffer references.
type PipelineResult struct {
	ID          string            `json:"id"`
	Enhancement string            `json:"enhancement"`
	Raw         PipelineSide      `json:"raw"`
	Enhanced    PipelineSide      `json:"enhanced"`
	Comparison  ComparisonSummary `json:"comparison"`
	TotalTimeMs int64             `json:"total_time_ms"`
}
