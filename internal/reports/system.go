package reports

import (
	"context"

	"github.com/google/uuid"

	"github.com/gradethread/gradethread/pkg/pagination"
)

// System defines the public contract for grade report domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[GradeReport], error)

	Find(ctx context.Context, id uuid.UUID) (*GradeReport, error)
	FindBySubmission(ctx context.Context, submissionID uuid.UUID) (*GradeReport, error)
	Create(ctx context.Context, cmd CreateCommand) (*GradeReport, error)
}
