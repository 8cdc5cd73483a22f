// Package pipeline orchestrates the grading of a submission: claim, image
// materialization, concurrent vision analysis, composite grading, report
// persistence, and completion side effects.
package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/gradethread/gradethread/internal/reports"
	"github.com/gradethread/gradethread/internal/submissions"
	"github.com/gradethread/gradethread/pkg/storage"
)

// SubmissionStore is the slice of the submission system the pipeline needs.
type SubmissionStore interface {
	BeginProcessing(ctx context.Context, id uuid.UUID) (*submissions.Submission, error)
	Images(ctx context.Context, submissionID uuid.UUID) ([]submissions.SubmissionImage, error)
	Transition(ctx context.Context, id uuid.UUID, from, to submissions.Status) error
}

// ReportStore persists the pipeline's output.
type ReportStore interface {
	Create(ctx context.Context, cmd reports.CreateCommand) (*reports.GradeReport, error)
}

// ImageStore reads submission photo blobs.
type ImageStore interface {
	Download(ctx context.Context, key string) (*storage.DownloadResult, error)
}

// Notifier pushes the completed grade to the owner's webhook endpoints.
// Implementations never propagate delivery failures.
type Notifier interface {
	Notify(ctx context.Context, ownerID, submissionID uuid.UUID, report *reports.GradeReport)
}

// Emailer sends the grade-complete notice. Failures are logged by the
// pipeline, never surfaced.
type Emailer interface {
	SendGradeComplete(ctx context.Context, ownerID uuid.UUID, garmentTitle string, report *reports.GradeReport) error
}
