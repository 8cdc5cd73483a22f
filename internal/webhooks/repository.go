package webhooks

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/gradethread/gradethread/pkg/pagination"
	"github.com/gradethread/gradethread/pkg/query"
	"github.com/gradethread/gradethread/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a webhook subscription repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "webhooks"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[WebhookSubscription], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "EndpointURL", "Description")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count webhook subscriptions: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	subs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanSubscription)
	if err != nil {
		return nil, fmt.Errorf("query webhook subscriptions: %w", err)
	}

	for i := range subs {
		subs[i] = subs[i].Redacted()
	}

	result := pagination.NewPageResult(subs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*WebhookSubscription, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	sub, err := repository.QueryOne(ctx, r.db, q, args, scanSubscription)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	sub = sub.Redacted()
	return &sub, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*WebhookSubscription, error) {
	if err := validateEndpoint(cmd.EndpointURL); err != nil {
		return nil, err
	}

	secret, err := NewSecret()
	if err != nil {
		return nil, err
	}

	insertQ := `
		INSERT INTO webhook_subscriptions(
			id, owner_id, endpoint_url, secret, description, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, owner_id, endpoint_url, secret, description, created_at, expires_at`

	insertArgs := []any{
		uuid.New(),
		cmd.OwnerID,
		cmd.EndpointURL,
		secret,
		cmd.Description,
		cmd.ExpiresAt,
	}

	sub, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (WebhookSubscription, error) {
		return repository.QueryOne(ctx, tx, insertQ, insertArgs, scanSubscription)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("webhook subscription created",
		"id", sub.ID,
		"owner_id", sub.OwnerID,
		"endpoint", sub.EndpointURL,
	)
	return &sub, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(ctx, r.db,
		`DELETE FROM webhook_subscriptions WHERE id = $1`, id)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("webhook subscription deleted", "id", id)
	return nil
}

// ActiveForOwner returns the owner's subscriptions that are currently
// deliverable. Secrets are included; callers must not expose them.
func (r *repo) ActiveForOwner(ctx context.Context, ownerID uuid.UUID) ([]WebhookSubscription, error) {
	q := `
		SELECT id, owner_id, endpoint_url, secret, description, created_at, expires_at
		FROM webhook_subscriptions
		WHERE owner_id = $1
		  AND endpoint_url <> ''
		  AND (expires_at IS NULL OR expires_at > NOW())
		ORDER BY created_at`

	subs, err := repository.QueryMany(ctx, r.db, q, []any{ownerID}, scanSubscription)
	if err != nil {
		return nil, fmt.Errorf("query active subscriptions: %w", err)
	}

	return subs, nil
}

func validateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidURL
	}
	return nil
}
