package webhooks

import (
	"context"

	"github.com/google/uuid"

	"github.com/gradethread/gradethread/pkg/pagination"
)

// System defines the public contract for webhook subscription operations.
// Read paths return subscriptions with the signing secret redacted; the
// secret is only surfaced in the Create response and to the dispatcher
// through ActiveForOwner.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[WebhookSubscription], error)

	Find(ctx context.Context, id uuid.UUID) (*WebhookSubscription, error)
	Create(ctx context.Context, cmd CreateCommand) (*WebhookSubscription, error)
	Delete(ctx context.Context, id uuid.UUID) error

	ActiveForOwner(ctx context.Context, ownerID uuid.UUID) ([]WebhookSubscription, error)
}
