package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

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

// New creates a grade report repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "reports"),
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
) (*pagination.PageResult[GradeReport], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "GradeTier", "CertificateID")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count grade reports: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	rpts, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanReport)
	if err != nil {
		return nil, fmt.Errorf("query grade reports: %w", err)
	}

	result := pagination.NewPageResult(rpts, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*GradeReport, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	rpt, err := repository.QueryOne(ctx, r.db, q, args, scanReport)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rpt, nil
}

func (r *repo) FindBySubmission(ctx context.Context, submissionID uuid.UUID) (*GradeReport, error) {
	q, args := query.NewBuilder(projection).BuildSingle("SubmissionID", submissionID)

	rpt, err := repository.QueryOne(ctx, r.db, q, args, scanReport)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rpt, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*GradeReport, error) {
	factorsJSON, err := json.Marshal(cmd.FactorScores)
	if err != nil {
		return nil, fmt.Errorf("marshal factor_scores: %w", err)
	}

	notes := cmd.ImageNotes
	if notes == nil {
		notes = map[string]string{}
	}
	notesJSON, err := json.Marshal(notes)
	if err != nil {
		return nil, fmt.Errorf("marshal image_notes: %w", err)
	}

	insertQ := `
		INSERT INTO grade_reports(
			id, submission_id, overall_score, grade_tier, factor_scores,
			confidence_score, ai_summary, certificate_id, image_notes,
			prompt_version, model_name
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, submission_id, overall_score, grade_tier, factor_scores,
				  confidence_score, ai_summary, certificate_id, image_notes,
				  prompt_version, model_name, graded_at`

	insertArgs := []any{
		uuid.New(),
		cmd.SubmissionID,
		cmd.OverallScore,
		cmd.GradeTier,
		factorsJSON,
		cmd.ConfidenceScore,
		cmd.AISummary,
		NewCertificateID(),
		notesJSON,
		cmd.PromptVersion,
		cmd.ModelName,
	}

	rpt, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (GradeReport, error) {
		return repository.QueryOne(ctx, tx, insertQ, insertArgs, scanReport)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("grade report created",
		"id", rpt.ID,
		"submission_id", rpt.SubmissionID,
		"overall_score", rpt.OverallScore,
		"grade_tier", rpt.GradeTier,
		"certificate_id", rpt.CertificateID,
	)
	return &rpt, nil
}
