package submissions

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/gradethread/gradethread/pkg/pagination"
	"github.com/gradethread/gradethread/pkg/query"
	"github.com/gradethread/gradethread/pkg/repository"
	"github.com/gradethread/gradethread/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a submission repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "submissions"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Submission], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Title", "Brand", "GarmentType")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	subs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanSubmission)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}

	result := pagination.NewPageResult(subs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Submission, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	s, err := repository.QueryOne(ctx, r.db, q, args, scanSubmission)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &s, nil
}

func (r *repo) Images(ctx context.Context, submissionID uuid.UUID) ([]SubmissionImage, error) {
	q, args := query.
		NewBuilder(imageProjection, imageSort).
		WhereEquals("SubmissionID", submissionID).
		Build()

	images, err := repository.QueryMany(ctx, r.db, q, args, scanImage)
	if err != nil {
		return nil, fmt.Errorf("query submission images: %w", err)
	}
	return images, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Submission, error) {
	if len(cmd.Photos) == 0 {
		return nil, ErrNoImages
	}
	for _, p := range cmd.Photos {
		if !p.ImageType.Valid() || len(p.Data) == 0 {
			return nil, ErrInvalidFile
		}
	}

	id := uuid.New()

	keys := make([]string, len(cmd.Photos))
	for i, p := range cmd.Photos {
		keys[i] = buildStorageKey(id, i, sanitizeFilename(p.Filename))
		if err := r.storage.Upload(ctx, keys[i], bytes.NewReader(p.Data), p.ContentType); err != nil {
			r.deleteBlobs(ctx, keys[:i])
			return nil, fmt.Errorf("upload photo blob: %w", err)
		}
	}

	insertQ := `
		INSERT INTO submissions(id, owner_id, garment_type, category, brand, title, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, owner_id, garment_type, category, brand, title, description, status, created_at, updated_at`

	insertArgs := []any{
		id,
		cmd.OwnerID,
		cmd.GarmentType,
		cmd.Category,
		cmd.Brand,
		cmd.Title,
		cmd.Description,
	}

	s, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Submission, error) {
		sub, err := repository.QueryOne(ctx, tx, insertQ, insertArgs, scanSubmission)
		if err != nil {
			return Submission{}, err
		}

		imageQ := `
			INSERT INTO submission_images(id, submission_id, image_type, storage_key, display_order)
			VALUES ($1, $2, $3, $4, $5)`

		for i, p := range cmd.Photos {
			order := p.DisplayOrder
			if order == 0 {
				order = i
			}
			if _, err := tx.ExecContext(
				ctx, imageQ,
				uuid.New(), id, string(p.ImageType), keys[i], order,
			); err != nil {
				return Submission{}, fmt.Errorf("insert submission image: %w", err)
			}
		}

		return sub, nil
	})

	if err != nil {
		r.deleteBlobs(ctx, keys)
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("submission created",
		"id", s.ID,
		"owner_id", s.OwnerID,
		"photos", len(cmd.Photos),
	)
	return &s, nil
}

func (r *repo) BeginProcessing(ctx context.Context, id uuid.UUID) (*Submission, error) {
	claimQ := `
		UPDATE submissions
		SET status = 'processing', updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'processing')
		RETURNING id, owner_id, garment_type, category, brand, title, description, status, created_at, updated_at`

	s, err := repository.QueryOne(ctx, r.db, claimQ, []any{id}, scanSubmission)
	if err == nil {
		r.logger.Info("submission claimed for grading", "id", id)
		return &s, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("claim submission: %w", err)
	}

	// Zero rows: either the submission is missing or a terminal/disputed
	// status lost the compare-and-swap.
	if _, findErr := r.Find(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, ErrInvalidState
}

func (r *repo) Transition(ctx context.Context, id uuid.UUID, from, to Status) error {
	if !from.CanTransition(to) {
		return ErrInvalidState
	}

	err := repository.ExecExpectOne(
		ctx, r.db,
		"UPDATE submissions SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		string(to), id, string(from),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidState
		}
		return fmt.Errorf("transition submission %s to %s: %w", id, to, err)
	}

	r.logger.Info("submission status changed", "id", id, "from", from, "to", to)
	return nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	images, err := r.Images(ctx, id)
	if err != nil {
		return err
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if _, err := tx.ExecContext(
			ctx,
			"DELETE FROM submission_images WHERE submission_id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM submissions WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	for _, img := range images {
		if delErr := r.storage.Delete(ctx, img.StorageKey); delErr != nil {
			r.logger.Warn(
				"blob delete failed after DB delete",
				"key", img.StorageKey,
				"error", delErr,
			)
		}
	}

	r.logger.Info("submission deleted", "id", id)
	return nil
}

func (r *repo) deleteBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := r.storage.Delete(ctx, key); err != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", err)
		}
	}
}

func buildStorageKey(id uuid.UUID, index int, filename string) string {
	return fmt.Sprintf("submissions/%s/%d-%s", id, index, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" {
		name = "photo"
	}
	return url.PathEscape(name)
}
