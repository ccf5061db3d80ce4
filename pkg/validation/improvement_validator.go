package validation

import (
	"fmt"

	"go-lowlight-vision/pkg/models"
)

// ImprovementThresholds defines configurable thresholds for judging whether
// an enhancement run actually helped.
type ImprovementThresholds struct {
	// Minimum overall weighted improvement to count the run as a gain
	MinOverallImprovement float64
	// Sharpness loss tolerated before flagging enhancement-induced blur
	MaxSharpnessLoss float64
	// Brightness ceiling above which the enhanced image counts as washed out
	MaxBrightness float64
	// Contrast loss tolerated before flagging flattening
	MaxContrastLoss float64
	// Similarity floor below which the two images barely share features
	MinSimilarity float64
}

// DefaultImprovementThresholds returns the default thresholds.
func DefaultImprovementThresholds() ImprovementThresholds {
	return ImprovementThresholds{
		MinOverallImprovement: 0.0,
		MaxSharpnessLoss:      5.0,
		MaxBrightness:         235.0,
		MaxContrastLoss:       10.0,
		MinSimilarity:         0.5,
	}
}

// ImprovementValidator inspects a finished PipelineResult for regressions.
type ImprovementValidator struct {
	thresholds ImprovementThresholds
}

// NewImprovementValidator creates a validator with default thresholds.
func NewImprovementValidator() *ImprovementValidator {
	return &ImprovementValidator{thresholds: DefaultImprovementThresholds()}
}

// NewImprovementValidatorWithThresholds creates a validator with custom thresholds.
func NewImprovementValidatorWithThresholds(thresholds ImprovementThresholds) *ImprovementValidator {
	return &ImprovementValidator{thresholds: thresholds}
}

// Issue represents one validation finding.
type Issue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"` // "error", "warning", "info"
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

// Validate checks the comparison block of a pipeline result and returns all
// findings. An empty slice means the enhancement looks healthy.
func (iv *ImprovementValidator) Validate(result *models.PipelineResult) []Issue {
	var issues []Issue
	cmp := result.Comparison

	if cmp.OverallImprovement < iv.thresholds.MinOverallImprovement {
		issues = append(issues, Issue{
			Type:        "no_overall_gain",
			Message:     "Enhancement did not improve the weighted score.",
			Severity:    "warning",
			ActualValue: cmp.OverallImprovement,
			Threshold:   iv.thresholds.MinOverallImprovement,
		})
	}

	sharpnessDelta := cmp.Result.Deltas.Quality.Sharpness
	if sharpnessDelta < -iv.thresholds.MaxSharpnessLoss {
		issues = append(issues, Issue{
			Type:        "sharpness_loss",
			Message:     "Enhancement blurred the image beyond tolerance.",
			Severity:    "error",
			ActualValue: sharpnessDelta,
			Threshold:   -iv.thresholds.MaxSharpnessLoss,
		})
	}

	if result.Enhanced.Features.Quality.Brightness > iv.thresholds.MaxBrightness {
		issues = append(issues, Issue{
			Type:        "washed_out",
			Message:     "Enhanced image is close to fully white; detail is lost.",
			Severity:    "error",
			ActualValue: result.Enhanced.Features.Quality.Brightness,
			Threshold:   iv.thresholds.MaxBrightness,
		})
	}

	contrastDelta := cmp.Result.Deltas.Quality.Contrast
	if contrastDelta < -iv.thresholds.MaxContrastLoss {
		issues = append(issues, Issue{
			Type:        "contrast_loss",
			Message:     "Enhancement flattened the image contrast.",
			Severity:    "warning",
			ActualValue: contrastDelta,
			Threshold:   -iv.thresholds.MaxContrastLoss,
		})
	}

	if cmp.Result.Similarity < iv.thresholds.MinSimilarity {
		issues = append(issues, Issue{
			Type:        "low_similarity",
			Message:     "Raw and enhanced feature vectors diverge sharply; the transform may have destroyed content.",
			Severity:    "warning",
			ActualValue: cmp.Result.Similarity,
			Threshold:   iv.thresholds.MinSimilarity,
		})
	}

	return issues
}

// Messages flattens issues into human-readable strings for API responses.
func (iv *ImprovementValidator) Messages(issues []Issue) []string {
	messages := make([]string, 0, len(issues))
	for _, issue := range issues {
		messages = append(messages, fmt.Sprintf("[%s] %s", issue.Severity, issue.Message))
	}
	return messages
}
