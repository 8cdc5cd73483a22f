package submissions

import (
	"context"

	"github.com/google/uuid"

	"github.com/gradethread/gradethread/pkg/pagination"
)

// System defines the public contract for submission domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Submission], error)

	Find(ctx context.Context, id uuid.UUID) (*Submission, error)

	// Images returns a submission's photos ordered by display order.
	Images(ctx context.Context, submissionID uuid.UUID) ([]SubmissionImage, error)

	Create(ctx context.Context, cmd CreateCommand) (*Submission, error)

	// BeginProcessing claims a submission for grading. It compares and swaps
	// the status to StatusProcessing in a single conditional write: a
	// submission already in a terminal or disputed state yields
	// ErrInvalidState and no mutation.
	BeginProcessing(ctx context.Context, id uuid.UUID) (*Submission, error)

	// Transition moves a submission from one status to another with a
	// conditional single-row write. Illegal or lost transitions yield
	// ErrInvalidState.
	Transition(ctx context.Context, id uuid.UUID, from, to Status) error

	Delete(ctx context.Context, id uuid.UUID) error
}
