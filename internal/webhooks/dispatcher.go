package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gradethread/gradethread/internal/reports"
)

// EventGradeCompleted is emitted when a submission finishes grading.
const EventGradeCompleted = "grade.completed"

const (
	userAgent       = "GradeThread-Webhook/1.0"
	signatureHeader = "X-GradeThread-Signature"

	// maxLoggedBody caps how much of an endpoint's response body is
	// recorded per delivery attempt.
	maxLoggedBody = 500
)

// DeliveryConfig controls per-endpoint delivery behavior. The attempt count
// is one initial attempt plus one retry per delay.
type DeliveryConfig struct {
	AttemptTimeout time.Duration
	RetryDelays    []time.Duration
}

// DefaultDeliveryConfig returns the production delivery schedule: four
// attempts total, retried after 5s, 30s, and 120s, each attempt capped
// at 10 seconds.
func DefaultDeliveryConfig() DeliveryConfig {
	return DeliveryConfig{
		AttemptTimeout: 10 * time.Second,
		RetryDelays: []time.Duration{
			5 * time.Second,
			30 * time.Second,
			120 * time.Second,
		},
	}
}

// Envelope is the wire format delivered to webhook endpoints. It is
// serialized once per event; every subscription receives the identical
// byte payload with its own signature.
type Envelope struct {
	Event     string    `json:"event"`
	Data      EventData `json:"data"`
	Timestamp string    `json:"timestamp"`
}

// EventData is the payload of a grade.completed event.
type EventData struct {
	SubmissionID uuid.UUID            `json:"submission_id"`
	GradeReport  *reports.GradeReport `json:"grade_report"`
}

// SubscriptionSource resolves the subscriptions eligible for delivery.
type SubscriptionSource interface {
	ActiveForOwner(ctx context.Context, ownerID uuid.UUID) ([]WebhookSubscription, error)
}

// Dispatcher delivers signed event payloads to webhook endpoints. Each
// endpoint is handled independently; one endpoint's failures never affect
// another's deliveries or the caller.
type Dispatcher struct {
	subs   SubscriptionSource
	client *http.Client
	config DeliveryConfig
	logger *slog.Logger
}

// NewDispatcher creates a Dispatcher. A nil client uses http.DefaultClient;
// per-attempt timeouts come from config, not the client.
func NewDispatcher(
	subs SubscriptionSource,
	client *http.Client,
	config DeliveryConfig,
	logger *slog.Logger,
) *Dispatcher {
	if client == nil {
		client = http.DefaultClient
	}

	return &Dispatcher{
		subs:   subs,
		client: client,
		config: config,
		logger: logger.With("system", "webhook-dispatcher"),
	}
}

// Notify delivers a grade.completed event to every active subscription of
// the submission's owner. It blocks until every endpoint's delivery loop
// settles, and it never returns an error: delivery outcomes are logged,
// not propagated.
func (d *Dispatcher) Notify(
	ctx context.Context,
	ownerID uuid.UUID,
	submissionID uuid.UUID,
	report *reports.GradeReport,
) {
	subs, err := d.subs.ActiveForOwner(ctx, ownerID)
	if err != nil {
		d.logger.Error("resolve subscriptions failed",
			"owner_id", ownerID,
			"submission_id", submissionID,
			"error", err,
		)
		return
	}

	if len(subs) == 0 {
		return
	}

	body, err := json.Marshal(Envelope{
		Event: EventGradeCompleted,
		Data: EventData{
			SubmissionID: submissionID,
			GradeReport:  report,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		d.logger.Error("marshal event envelope failed",
			"submission_id", submissionID,
			"error", err,
		)
		return
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.deliver(ctx, sub, submissionID, body)
		}()
	}
	wg.Wait()
}

// deliver runs the full retry schedule against a single endpoint. It stops
// on the first 2xx response or when the context is canceled during a
// backoff wait.
func (d *Dispatcher) deliver(
	ctx context.Context,
	sub WebhookSubscription,
	submissionID uuid.UUID,
	body []byte,
) {
	signature := Sign(sub.Secret, body)
	logger := d.logger.With(
		"subscription_id", sub.ID,
		"endpoint", sub.EndpointURL,
		"submission_id", submissionID,
	)

	attempts := len(d.config.RetryDelays) + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		status, snippet, err := d.attempt(ctx, sub.EndpointURL, signature, body)

		switch {
		case err != nil:
			logger.Warn("webhook attempt failed",
				"attempt", attempt,
				"detail", fmt.Sprintf("Delivery error: %v", err),
			)
		case status >= 200 && status < 300:
			logger.Info("webhook delivered",
				"attempt", attempt,
				"status", status,
				"response", snippet,
			)
			return
		default:
			logger.Warn("webhook attempt failed",
				"attempt", attempt,
				"status", status,
				"response", snippet,
			)
		}

		if attempt < attempts {
			select {
			case <-time.After(d.config.RetryDelays[attempt-1]):
			case <-ctx.Done():
				logger.Warn("webhook delivery abandoned",
					"attempts", attempt,
					"reason", ctx.Err(),
				)
				return
			}
		}
	}

	logger.Error("webhook delivery exhausted", "attempts", attempts)
}

func (d *Dispatcher) attempt(
	ctx context.Context,
	endpoint string,
	signature string,
	body []byte,
) (int, string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.config.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(signatureHeader, signature)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
	return resp.StatusCode, string(snippet), nil
}
