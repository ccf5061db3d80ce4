package services

import (
	"testing"

	"go-lowlight-vision/pkg/models"
)

func improvedResult() *models.PipelineResult {
	return &models.PipelineResult{
		ID:          "run-1",
		Enhancement: "composite",
		Raw: models.PipelineSide{
			Features: models.ImageFeatures{
				Quality: models.QualityMetrics{Brightness: 35, Contrast: 18, Sharpness: 4},
			},
		},
		Enhanced: models.PipelineSide{
			Features: models.ImageFeatures{
				Quality: models.QualityMetrics{Brightness: 95, Contrast: 40, Sharpness: 5},
			},
		},
		Comparison: models.ComparisonSummary{
			Result: models.ComparisonResult{
				Similarity: 0.9,
				Deltas: models.ComponentDeltas{
					Quality: models.QualityDeltas{Brightness: 60, Contrast: 22, Sharpness: 1},
				},
			},
			KeypointImprovementPct: 40,
			TextureImprovementPct:  15,
			QualityImprovementPct:  80,
			DetectionMAPDelta:      0.1,
			OverallImprovement:     40,
		},
		TotalTimeMs: 321,
	}
}

func TestBuildReport_ImprovedRun(t *testing.T) {
	report := NewReportService().BuildReport(improvedResult())

	if report.RunID != "run-1" {
		t.Errorf("Expected run ID carried over, got %s", report.RunID)
	}
	if report.Grade != "A" {
		t.Errorf("Expected grade A for +40%% overall, got %s", report.Grade)
	}
	if report.OverallScore != 90 {
		t.Errorf("Expected score 90, got %f", report.OverallScore)
	}
	if len(report.Highlights) == 0 {
		t.Error("Expected highlights for an improved run")
	}
	if len(report.Issues) != 0 {
		t.Errorf("Expected no issues, got %+v", report.Issues)
	}
}

func TestBuildReport_ErrorIssueCapsGrade(t *testing.T) {
	result := improvedResult()
	// Washed-out enhanced image triggers an error-severity issue.
	result.Enhanced.Features.Quality.Brightness = 250

	report := NewReportService().BuildReport(result)
	if report.Grade != "D" {
		t.Errorf("Expected grade capped at D, got %s", report.Grade)
	}
}

func TestBuildReport_RegressedRun(t *testing.T) {
	result := improvedResult()
	result.Comparison.OverallImprovement = -20
	result.Comparison.KeypointImprovementPct = -10
	result.Comparison.QualityImprovementPct = -15
	result.Comparison.DetectionMAPDelta = -0.05
	result.Raw.Features.Quality.Brightness = 95 // no brightness lift either

	report := NewReportService().BuildReport(result)
	if report.OverallScore != 30 {
		t.Errorf("Expected score 30 for -20%%, got %f", report.OverallScore)
	}
	if report.Grade != "F" {
		t.Errorf("Expected grade F, got %s", report.Grade)
	}
	if len(report.Highlights) != 1 || report.Highlights[0] != "Enhancement produced no measurable gains" {
		t.Errorf("Expected the no-gains highlight, got %v", report.Highlights)
	}
}

func TestPctToScore_Saturates(t *testing.T) {
	if pctToScore(200) != 100 {
		t.Errorf("Expected saturation at 100, got %f", pctToScore(200))
	}
	if pctToScore(-200) != 0 {
		t.Errorf("Expected saturation at 0, got %f", pctToScore(-200))
	}
	if pctToScore(0) != 50 {
		t.Errorf("Expected break-even 50, got %f", pctToScore(0))
	}
}

func TestBuildReport_Suitability(t *testing.T) {
	report := NewReportService().BuildReport(improvedResult())

	found := map[string]bool{}
	for _, s := range report.SuitableFor {
		found[s] = true
	}
	if !found["display"] || !found["detection"] || !found["feature_matching"] {
		t.Errorf("Expected full suitability for healthy run, got %v", report.SuitableFor)
	}
}
