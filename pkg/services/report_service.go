package services

import (
	"fmt"
	"math"
	"time"

	"go-lowlight-vision/pkg/models"
	"go-lowlight-vision/pkg/validation"
)

// EnhancementReport is the human-oriented summary built from a pipeline run.
type EnhancementReport struct {
	RunID          string             `json:"run_id"`
	Timestamp      string             `json:"timestamp"`
	Enhancement    string             `json:"enhancement"`
	Grade          string             `json:"grade"`
	OverallScore   float64            `json:"overall_score"`
	CategoryScores CategoryScores     `json:"category_scores"`
	Highlights     []string           `json:"highlights"`
	Issues         []validation.Issue `json:"issues,omitempty"`
	SuitableFor    []string           `json:"suitable_for"`
	TotalTimeMs    int64              `json:"total_time_ms"`
}

// CategoryScores holds the per-category 0-100 scores behind the grade.
type CategoryScores struct {
	Keypoints float64 `json:"keypoints"`
	Texture   float64 `json:"texture"`
	Quality   float64 `json:"quality"`
	Detection float64 `json:"detection"`
}

// ReportService turns pipeline results into graded reports.
type ReportService struct {
	validator *validation.ImprovementValidator
}

// NewReportService creates a report service with default validation thresholds.
func NewReportService() *ReportService {
	return &ReportService{validator: validation.NewImprovementValidator()}
}

// BuildReport grades a finished pipeline run. Category scores map each
// improvement percentage onto 0-100 with 50 meaning "no change".
func (s *ReportService) BuildReport(result *models.PipelineResult) *EnhancementReport {
	cmp := result.Comparison

	scores := CategoryScores{
		Keypoints: pctToScore(cmp.KeypointImprovementPct),
		Texture:   pctToScore(cmp.TextureImprovementPct),
		Quality:   pctToScore(cmp.QualityImprovementPct),
		Detection: pctToScore(cmp.DetectionMAPDelta * 100),
	}

	issues := s.validator.Validate(result)
	overall := pctToScore(cmp.OverallImprovement)

	report := &EnhancementReport{
		RunID:          result.ID,
		Timestamp:      time.Now().Format(time.RFC3339),
		Enhancement:    result.Enhancement,
		Grade:          s.grade(overall, issues),
		OverallScore:   overall,
		CategoryScores: scores,
		Highlights:     s.highlights(result),
		Issues:         issues,
		SuitableFor:    s.suitability(result, issues),
		TotalTimeMs:    result.TotalTimeMs,
	}

	return report
}

// grade maps the overall score to a letter grade. Any error-severity issue
// caps the grade at D.
func (s *ReportService) grade(overall float64, issues []validation.Issue) string {
	for _, issue := range issues {
		if issue.Severity == "error" {
			return "D"
		}
	}

	switch {
	case overall >= 85:
		return "A"
	case overall >= 70:
		return "B"
	case overall >= 55:
		return "C"
	case overall >= 45:
		return "D"
	default:
		return "F"
	}
}

func (s *ReportService) highlights(result *models.PipelineResult) []string {
	cmp := result.Comparison
	highlights := make([]string, 0, 4)

	if cmp.KeypointImprovementPct > 0 {
		highlights = append(highlights, fmt.Sprintf("Keypoint estimates improved by %.1f%%", cmp.KeypointImprovementPct))
	}
	if cmp.QualityImprovementPct > 0 {
		highlights = append(highlights, fmt.Sprintf("Image quality improved by %.1f%%", cmp.QualityImprovementPct))
	}
	if cmp.DetectionMAPDelta > 0 {
		highlights = append(highlights, fmt.Sprintf("Detector confidence rose by %.3f", cmp.DetectionMAPDelta))
	}

	rawBrightness := result.Raw.Features.Quality.Brightness
	enhBrightness := result.Enhanced.Features.Quality.Brightness
	if rawBrightness < 60 && enhBrightness >= 60 {
		highlights = append(highlights, fmt.Sprintf("Brightness lifted from %.1f to %.1f", rawBrightness, enhBrightness))
	}

	if len(highlights) == 0 {
		highlights = append(highlights, "Enhancement produced no measurable gains")
	}
	return highlights
}

func (s *ReportService) suitability(result *models.PipelineResult, issues []validation.Issue) []string {
	suitable := []string{"archival"}

	hasError := false
	for _, issue := range issues {
		if issue.Severity == "error" {
			hasError = true
			break
		}
	}

	if !hasError {
		suitable = append(suitable, "display")
		if result.Comparison.DetectionMAPDelta >= 0 {
			suitable = append(suitable, "detection")
		}
		if result.Enhanced.Features.Quality.Sharpness >= result.Raw.Features.Quality.Sharpness {
			suitable = append(suitable, "feature_matching")
		}
	}
	return suitable
}

// pctToScore maps an improvement percentage to a 0-100 score where 50 is the
// break-even point. Gains and losses saturate at +/-50%.
func pctToScore(pct float64) float64 {
	score := 50 + pct
	return math.Max(0, math.Min(100, score))
}
