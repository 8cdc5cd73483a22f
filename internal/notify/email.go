// Package notify sends grade-complete email notices through a provider HTTP
// API. Delivery is best effort; the pipeline logs failures and moves on.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gradethread/gradethread/internal/reports"
)

const sendTimeout = 15 * time.Second

// Message is the provider payload. The provider resolves the recipient
// address from the owner identifier.
type Message struct {
	OwnerID uuid.UUID `json:"owner_id"`
	From    string    `json:"from"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
}

// Mailer sends notification email through the configured provider.
type Mailer struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// NewMailer creates a Mailer. A nil client uses http.DefaultClient.
func NewMailer(cfg Config, client *http.Client, logger *slog.Logger) *Mailer {
	if client == nil {
		client = http.DefaultClient
	}

	return &Mailer{
		cfg:    cfg,
		client: client,
		logger: logger.With("system", "notify"),
	}
}

// SendGradeComplete emails the owner that their submission finished grading.
// No-op when no provider is configured.
func (m *Mailer) SendGradeComplete(
	ctx context.Context,
	ownerID uuid.UUID,
	garmentTitle string,
	report *reports.GradeReport,
) error {
	if !m.cfg.Enabled() {
		return nil
	}

	msg := Message{
		OwnerID: ownerID,
		From:    m.cfg.From,
		Subject: fmt.Sprintf("Your grade is ready: %s", garmentTitle),
		Body: fmt.Sprintf(
			"%s graded %s (%.1f/10). Certificate %s.\n\n%s",
			garmentTitle,
			report.GradeTier,
			report.OverallScore,
			report.CertificateID,
			report.AISummary,
		),
	}

	if err := m.send(ctx, msg); err != nil {
		return fmt.Errorf("send grade-complete email: %w", err)
	}

	m.logger.Info("grade-complete email sent",
		"owner_id", ownerID,
		"certificate_id", report.CertificateID,
	)
	return nil
}

func (m *Mailer) send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, detail)
	}

	return nil
}
