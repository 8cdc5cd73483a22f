// Package reports implements the grade report domain for GradeThread.
// It provides types and data access for the persisted output of a
// successful grading pipeline run.
package reports

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FactorScores holds the five weighted condition factors produced by the
// composite grading step. Each score is on the 0–10 scale.
type FactorScores struct {
	FabricCondition       float64 `json:"fabric_condition"`
	ConstructionIntegrity float64 `json:"construction_integrity"`
	ColorFidelity         float64 `json:"color_fidelity"`
	HardwareTrim          float64 `json:"hardware_trim"`
	Cleanliness           float64 `json:"cleanliness"`
}

// GradeReport is the persisted output of a successful pipeline run.
// Exactly one report exists per graded submission; the pipeline never
// recreates one for the same submission.
type GradeReport struct {
	ID              uuid.UUID         `json:"id"`
	SubmissionID    uuid.UUID         `json:"submission_id"`
	OverallScore    float64           `json:"overall_score"`
	GradeTier       string            `json:"grade_tier"`
	FactorScores    FactorScores      `json:"factor_scores"`
	ConfidenceScore float64           `json:"confidence_score"`
	AISummary       string            `json:"ai_summary"`
	CertificateID   string            `json:"certificate_id"`
	ImageNotes      map[string]string `json:"image_notes"`
	PromptVersion   string            `json:"prompt_version"`
	ModelName       string            `json:"model_name"`
	GradedAt        time.Time         `json:"graded_at"`
}

// CreateCommand carries the data needed to persist a new grade report.
// The certificate identifier is generated at insert time.
type CreateCommand struct {
	SubmissionID    uuid.UUID
	OverallScore    float64
	GradeTier       string
	FactorScores    FactorScores
	ConfidenceScore float64
	AISummary       string
	ImageNotes      map[string]string
	PromptVersion   string
	ModelName       string
}

// NewCertificateID generates a fresh certificate identifier of the form
// GT-XXXXXXXXXXXX, unique per report.
func NewCertificateID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("GT-%s", strings.ToUpper(raw[:12]))
}
