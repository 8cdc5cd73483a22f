package reports

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/gradethread/gradethread/pkg/query"
	"github.com/gradethread/gradethread/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "grade_reports", "g").
	Project("id", "ID").
	Project("submission_id", "SubmissionID").
	Project("overall_score", "OverallScore").
	Project("grade_tier", "GradeTier").
	Project("factor_scores", "FactorScores").
	Project("confidence_score", "ConfidenceScore").
	Project("ai_summary", "AISummary").
	Project("certificate_id", "CertificateID").
	Project("image_notes", "ImageNotes").
	Project("prompt_version", "PromptVersion").
	Project("model_name", "ModelName").
	Project("graded_at", "GradedAt")

var defaultSort = query.SortField{
	Field:      "GradedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for grade report queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	SubmissionID  *uuid.UUID `json:"submission_id,omitempty"`
	GradeTier     *string    `json:"grade_tier,omitempty"`
	CertificateID *string    `json:"certificate_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("SubmissionID", f.SubmissionID).
		WhereEquals("GradeTier", f.GradeTier).
		WhereEquals("CertificateID", f.CertificateID)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("submission_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			f.SubmissionID = &id
		}
	}

	if t := values.Get("grade_tier"); t != "" {
		f.GradeTier = &t
	}

	if c := values.Get("certificate_id"); c != "" {
		f.CertificateID = &c
	}

	return f
}

func scanReport(s repository.Scanner) (GradeReport, error) {
	var rpt GradeReport
	var factorsRaw, notesRaw []byte

	err := s.Scan(
		&rpt.ID,
		&rpt.SubmissionID,
		&rpt.OverallScore,
		&rpt.GradeTier,
		&factorsRaw,
		&rpt.ConfidenceScore,
		&rpt.AISummary,
		&rpt.CertificateID,
		&notesRaw,
		&rpt.PromptVersion,
		&rpt.ModelName,
		&rpt.GradedAt,
	)

	if err != nil {
		return rpt, err
	}

	if len(factorsRaw) > 0 {
		if err := json.Unmarshal(factorsRaw, &rpt.FactorScores); err != nil {
			return rpt, fmt.Errorf("unmarshal factor_scores: %w", err)
		}
	}

	if len(notesRaw) > 0 {
		if err := json.Unmarshal(notesRaw, &rpt.ImageNotes); err != nil {
			return rpt, fmt.Errorf("unmarshal image_notes: %w", err)
		}
	}

	if rpt.ImageNotes == nil {
		rpt.ImageNotes = map[string]string{}
	}

	return rpt, nil
}
