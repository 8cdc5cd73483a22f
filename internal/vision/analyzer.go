// Package vision defines the analysis boundary between the grading pipeline
// and the vision model. The pipeline only depends on the Analyzer interface;
// Client implements it over an OpenAI-compatible chat completions API.
package vision

import (
	"context"
	"errors"

	"github.com/gradethread/gradethread/internal/reports"
)

// Analysis errors.
var (
	ErrEmptyResponse = errors.New("model returned no content")
	ErrNoAnalyses    = errors.New("no image analyses to composite")
)

// GarmentInfo carries submission metadata that conditions the grading
// prompts.
type GarmentInfo struct {
	GarmentType string `json:"garment_type"`
	Category    string `json:"category"`
	Brand       string `json:"brand"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ImageAnalysis is the structured result of inspecting one submission photo.
type ImageAnalysis struct {
	ImageType        string   `json:"image_type"`
	DetectedIssues   []string `json:"detected_issues"`
	ConditionSignals []string `json:"condition_signals"`
}

// CompositeResult is the structured output of grading all per-image analyses
// together. GradeTier is derived from OverallScore by the banding rules, not
// taken from model output.
type CompositeResult struct {
	OverallScore    float64              `json:"overall_score"`
	GradeTier       string               `json:"grade_tier"`
	FactorScores    reports.FactorScores `json:"factor_scores"`
	AISummary       string               `json:"ai_summary"`
	ConfidenceScore float64              `json:"confidence_score"`
	DefectsFound    []string             `json:"defects_found"`
	PromptVersion   string               `json:"prompt_version"`
}

// Analyzer produces per-image analyses and composites them into a grade.
type Analyzer interface {
	// AnalyzeImage inspects a single photo supplied as a data URI and
	// returns its structured analysis.
	AnalyzeImage(ctx context.Context, dataURI, imageType string, garment GarmentInfo) (*ImageAnalysis, error)

	// CompositeGrade combines all per-image analyses with the garment
	// metadata into a final grade.
	CompositeGrade(ctx context.Context, analyses []ImageAnalysis, garment GarmentInfo) (*CompositeResult, error)

	// ModelName identifies the configured model for report provenance.
	ModelName() string
}
