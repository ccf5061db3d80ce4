package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"go-lowlight-vision/internal/detector"
	"go-lowlight-vision/internal/enhancer"
	"go-lowlight-vision/internal/features"
	"go-lowlight-vision/internal/imaging"
	"go-lowlight-vision/internal/observer"
	"go-lowlight-vision/pkg/models"
)

// Overall-improvement weights. The detector mAP delta is a [0,1]-scale
// difference, pre-scaled by 100 to match the percentage terms.
const (
	keypointWeight  = 0.3
	textureWeight   = 0.2
	qualityWeight   = 0.2
	detectionWeight = 0.3
)

// hogHeadLen is the slice of the HOG descriptor whose magnitude sum drives
// the texture improvement percentage.
const hogHeadLen = 20

// ProgressFunc receives stage events synchronously, in stage order, before
// each stage's work runs.
type ProgressFunc func(event models.ProgressEvent)

// Orchestrator drives one image through enhancement, feature extraction,
// detection and comparison. Runs are independent and re-entrant; the
// orchestrator holds no per-run state.
type Orchestrator struct {
	enhancer   enhancer.Enhancer
	extractor  *features.Extractor
	comparator *features.Comparator
	detector   detector.Detector
	publisher  observer.Subject
}

// NewOrchestrator wires a pipeline. The publisher may be nil when no
// supplementary observers are attached.
func NewOrchestrator(enh enhancer.Enhancer, det detector.Detector, publisher observer.Subject) *Orchestrator {
	return &Orchestrator{
		enhancer:   enh,
		extractor:  features.NewExtractor(),
		comparator: features.NewComparator(),
		detector:   det,
		publisher:  publisher,
	}
}

// Run executes the seven stages strictly in order. Any stage failure aborts
// the run and surfaces the originating error; no partial result is returned.
func (o *Orchestrator) Run(ctx context.Context, sample *imaging.ImageSample, onProgress ProgressFunc) (*models.PipelineResult, error) {
	runID := uuid.NewString()
	started := time.Now()

	o.notify(observer.RunEvent{EventType: observer.RunStarted, RunID: runID, Timestamp: started})

	fail := func(err error) (*models.PipelineResult, error) {
		o.notify(observer.RunEvent{
			EventType:    observer.RunFailed,
			RunID:        runID,
			Timestamp:    time.Now(),
			ElapsedMs:    time.Since(started).Milliseconds(),
			ErrorMessage: err.Error(),
		})
		return nil, err
	}

	emit := func(stage models.PipelineStage, progress int, message, currentImage string) {
		event := models.ProgressEvent{
			Stage:        stage,
			Progress:     progress,
			Message:      message,
			CurrentImage: currentImage,
		}
		if onProgress != nil {
			onProgress(event)
		}
		o.notify(observer.RunEvent{
			EventType: observer.StageAdvanced,
			RunID:     runID,
			Timestamp: time.Now(),
			Progress:  &event,
			ElapsedMs: time.Since(started).Milliseconds(),
		})
	}

	emit(models.StageEnhancement, 10, "Enhancing image", "raw")
	enhanced, err := o.enhancer.Enhance(sample)
	if err != nil {
		return fail(err)
	}

	emit(models.StageFeatureExtractionRaw, 30, "Extracting features from raw image", "raw")
	rawStart := time.Now()
	rawFeatures := o.extractor.Extract(sample)
	rawElapsed := time.Since(rawStart)

	emit(models.StageFeatureExtractionEnhanced, 50, "Extracting features from enhanced image", "enhanced")
	enhStart := time.Now()
	enhancedFeatures := o.extractor.Extract(enhanced)
	enhElapsed := time.Since(enhStart)

	emit(models.StageDetectionRaw, 60, "Running detection on raw image", "raw")
	rawStart = time.Now()
	rawDetections, err := o.detector.Detect(ctx, sample)
	if err != nil {
		return fail(err)
	}
	rawElapsed += time.Since(rawStart)

	emit(models.StageDetectionEnhanced, 80, "Running detection on enhanced image", "enhanced")
	enhStart = time.Now()
	enhancedDetections, err := o.detector.Detect(ctx, enhanced)
	if err != nil {
		return fail(err)
	}
	enhElapsed += time.Since(enhStart)

	emit(models.StageComparison, 90, "Comparing feature vectors", "")
	comparison, err := o.comparator.Compare(&rawFeatures, &enhancedFeatures)
	if err != nil {
		return fail(err)
	}
	summary := o.summarize(comparison, &rawFeatures, &enhancedFeatures, rawDetections, enhancedDetections)

	emit(models.StageComplete, 100, "Pipeline complete", "")

	result := &models.PipelineResult{
		ID:          runID,
		Enhancement: o.enhancer.Name(),
		Raw: models.PipelineSide{
			ImageRef:         "raw",
			Features:         rawFeatures,
			Detections:       rawDetections,
			ProcessingTimeMs: rawElapsed.Milliseconds(),
		},
		Enhanced: models.PipelineSide{
			ImageRef:         "enhanced",
			Features:         enhancedFeatures,
			Detections:       enhancedDetections,
			ProcessingTimeMs: enhElapsed.Milliseconds(),
		},
		Comparison:  summary,
		TotalTimeMs: time.Since(started).Milliseconds(),
	}

	o.notify(observer.RunEvent{
		EventType: observer.RunCompleted,
		RunID:     runID,
		Timestamp: time.Now(),
		ElapsedMs: result.TotalTimeMs,
	})
	return result, nil
}

// summarize derives the per-category improvement percentages and the single
// weighted overall score.
func (o *Orchestrator) summarize(result models.ComparisonResult, raw, enhanced *models.ImageFeatures, rawDet, enhDet models.DetectionResult) models.ComparisonSummary {
	keypointPct := (result.Deltas.Keypoints.ORBPct +
		result.Deltas.Keypoints.FASTPct +
		result.Deltas.Keypoints.SIFTPct) / 3.0

	texturePct := features.PercentChange(
		hogHeadSum(raw.Texture.HOG.Descriptor),
		hogHeadSum(enhanced.Texture.HOG.Descriptor),
	)

	qualityPct := features.PercentChange(
		raw.Quality.Brightness+raw.Quality.Contrast+raw.Quality.Sharpness,
		enhanced.Quality.Brightness+enhanced.Quality.Contrast+enhanced.Quality.Sharpness,
	)

	mapDelta := detector.MeanConfidence(enhDet) - detector.MeanConfidence(rawDet)

	overall := keypointWeight*keypointPct +
		textureWeight*texturePct +
		qualityWeight*qualityPct +
		detectionWeight*mapDelta*100.0

	return models.ComparisonSummary{
		Result:                 result,
		KeypointImprovementPct: keypointPct,
		TextureImprovementPct:  texturePct,
		QualityImprovementPct:  qualityPct,
		DetectionMAPDelta:      mapDelta,
		OverallImprovement:     overall,
	}
}

func hogHeadSum(descriptor []float64) float64 {
	n := hogHeadLen
	if len(descriptor) < n {
		n = len(descriptor)
	}
	var sum float64
	for _, v := range descriptor[:n] {
		sum += v
	}
	return sum
}

func (o *Orchestrator) notify(event observer.RunEvent) {
	if o.publisher != nil {
		o.publisher.NotifyObservers(event)
	}
}
