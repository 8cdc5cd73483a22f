package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gradethread/gradethread/internal/reports"
	"github.com/gradethread/gradethread/internal/submissions"
	"github.com/gradethread/gradethread/internal/vision"
)

const fallbackContentType = "image/jpeg"

// Orchestrator runs the grading pipeline end to end for one submission at a
// time. It is safe for concurrent use across submissions; the status
// compare-and-swap guarantees a single grader per submission.
type Orchestrator struct {
	subs     SubmissionStore
	reports  ReportStore
	images   ImageStore
	analyzer vision.Analyzer
	webhooks Notifier
	mailer   Emailer
	logger   *slog.Logger
}

// New creates an Orchestrator. The mailer may be nil when no email provider
// is configured.
func New(
	subs SubmissionStore,
	reportStore ReportStore,
	images ImageStore,
	analyzer vision.Analyzer,
	webhooks Notifier,
	mailer Emailer,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		subs:     subs,
		reports:  reportStore,
		images:   images,
		analyzer: analyzer,
		webhooks: webhooks,
		mailer:   mailer,
		logger:   logger.With("system", "pipeline"),
	}
}

// Process grades a submission and returns its persisted report. The
// submission must be pending (or already claimed as processing, in which
// case the claim is an idempotent no-op). Any failure after the claim marks
// the submission failed and returns the original error; no report row is
// written for a failed run.
func (o *Orchestrator) Process(ctx context.Context, submissionID uuid.UUID) (*reports.GradeReport, error) {
	sub, err := o.subs.BeginProcessing(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	logger := o.logger.With("submission_id", submissionID)
	logger.Info("grading started", "garment_type", sub.GarmentType, "title", sub.Title)

	images, err := o.subs.Images(ctx, submissionID)
	if err != nil {
		return nil, o.fail(ctx, logger, submissionID, err)
	}
	if len(images) == 0 {
		return nil, o.fail(ctx, logger, submissionID, submissions.ErrNoImages)
	}

	garment := vision.GarmentInfo{
		GarmentType: sub.GarmentType,
		Category:    sub.Category,
		Brand:       sub.Brand,
		Title:       sub.Title,
		Description: sub.Description,
	}

	dataURIs, err := o.materialize(ctx, images)
	if err != nil {
		return nil, o.fail(ctx, logger, submissionID, err)
	}

	analyses, err := o.analyze(ctx, images, dataURIs, garment)
	if err != nil {
		return nil, o.fail(ctx, logger, submissionID, err)
	}

	composite, err := o.analyzer.CompositeGrade(ctx, analyses, garment)
	if err != nil {
		return nil, o.fail(ctx, logger, submissionID, err)
	}

	report, err := o.reports.Create(ctx, reports.CreateCommand{
		SubmissionID:    submissionID,
		OverallScore:    composite.OverallScore,
		GradeTier:       composite.GradeTier,
		FactorScores:    composite.FactorScores,
		ConfidenceScore: composite.ConfidenceScore,
		AISummary:       composite.AISummary,
		ImageNotes:      buildImageNotes(analyses, composite.DefectsFound),
		PromptVersion:   composite.PromptVersion,
		ModelName:       o.analyzer.ModelName(),
	})
	if err != nil {
		return nil, o.fail(ctx, logger, submissionID, err)
	}

	if err := o.subs.Transition(ctx, submissionID, submissions.StatusProcessing, submissions.StatusCompleted); err != nil {
		return nil, fmt.Errorf("complete submission: %w", err)
	}

	logger.Info("grading completed",
		"overall_score", report.OverallScore,
		"grade_tier", report.GradeTier,
		"certificate_id", report.CertificateID,
	)

	// Side effects run detached from the request: the caller gets the report
	// whether or not notifications land.
	go o.notify(context.WithoutCancel(ctx), sub, report)

	return report, nil
}

// materialize downloads every photo blob concurrently and encodes each as a
// data URI. Order follows the image slice; the first failure cancels the
// rest.
func (o *Orchestrator) materialize(ctx context.Context, images []submissions.SubmissionImage) ([]string, error) {
	dataURIs := make([]string, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanoutLimit(len(images)))

	for i, img := range images {
		g.Go(func() error {
			result, err := o.images.Download(gctx, img.StorageKey)
			if err != nil {
				return fmt.Errorf("download %s: %w", img.StorageKey, err)
			}
			defer result.Body.Close()

			data, err := io.ReadAll(result.Body)
			if err != nil {
				return fmt.Errorf("read %s: %w", img.StorageKey, err)
			}

			dataURIs[i] = dataURI(img.StorageKey, data)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return dataURIs, nil
}

// analyze fans out per-image vision analysis with bounded concurrency. Each
// result keeps its image association by index; the first failure cancels
// the rest and no partial grade is produced.
func (o *Orchestrator) analyze(
	ctx context.Context,
	images []submissions.SubmissionImage,
	dataURIs []string,
	garment vision.GarmentInfo,
) ([]vision.ImageAnalysis, error) {
	analyses := make([]vision.ImageAnalysis, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanoutLimit(len(images)))

	for i, img := range images {
		g.Go(func() error {
			analysis, err := o.analyzer.AnalyzeImage(gctx, dataURIs[i], string(img.ImageType), garment)
			if err != nil {
				return err
			}
			analyses[i] = *analysis
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return analyses, nil
}

// fail marks the submission failed best-effort and returns the original
// error. The mark uses a detached context so a canceled request cannot
// strand the submission in processing.
func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, submissionID uuid.UUID, cause error) error {
	markCtx := context.WithoutCancel(ctx)
	if err := o.subs.Transition(markCtx, submissionID, submissions.StatusProcessing, submissions.StatusFailed); err != nil {
		logger.Error("mark failed did not apply", "error", err)
	}

	logger.Error("grading failed", "error", cause)
	return cause
}

func (o *Orchestrator) notify(ctx context.Context, sub *submissions.Submission, report *reports.GradeReport) {
	o.webhooks.Notify(ctx, sub.OwnerID, sub.ID, report)

	if o.mailer != nil {
		if err := o.mailer.SendGradeComplete(ctx, sub.OwnerID, sub.Title, report); err != nil {
			o.logger.Warn("grade-complete email failed",
				"submission_id", sub.ID,
				"error", err,
			)
		}
	}
}

// fanoutLimit bounds concurrent per-image work by available CPUs while
// never starving a single-image submission.
func fanoutLimit(imageCount int) int {
	return max(min(runtime.NumCPU(), imageCount), 1)
}

// dataURI encodes image bytes for inline model consumption. Content type
// comes from the storage key extension; unrecognized or non-image
// extensions fall back to image/jpeg.
func dataURI(storageKey string, data []byte) string {
	contentType := mime.TypeByExtension(filepath.Ext(storageKey))
	if !strings.HasPrefix(contentType, "image/") {
		contentType = fallbackContentType
	}

	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
}

// buildImageNotes collapses per-image findings into the report's notes map,
// keyed by image type, plus a defects_summary entry when the composite
// confirmed defects. Multiple images of the same type merge their findings.
func buildImageNotes(analyses []vision.ImageAnalysis, defects []string) map[string]string {
	notes := make(map[string]string, len(analyses)+1)

	for _, a := range analyses {
		findings := make([]string, 0, len(a.DetectedIssues)+len(a.ConditionSignals))
		findings = append(findings, a.DetectedIssues...)
		findings = append(findings, a.ConditionSignals...)
		if len(findings) == 0 {
			continue
		}

		entry := strings.Join(findings, "; ")
		if existing, ok := notes[a.ImageType]; ok {
			entry = existing + "; " + entry
		}
		notes[a.ImageType] = entry
	}

	if len(defects) > 0 {
		notes["defects_summary"] = strings.Join(defects, "; ")
	}

	return notes
}
