package webhooks_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gradethread/gradethread/internal/reports"
	"github.com/gradethread/gradethread/internal/webhooks"
)

type stubSource struct {
	subs []webhooks.WebhookSubscription
}

func (s *stubSource) ActiveForOwner(ctx context.Context, ownerID uuid.UUID) ([]webhooks.WebhookSubscription, error) {
	return s.subs, nil
}

func testConfig() webhooks.DeliveryConfig {
	return webhooks.DeliveryConfig{
		AttemptTimeout: 250 * time.Millisecond,
		RetryDelays: []time.Duration{
			20 * time.Millisecond,
			20 * time.Millisecond,
			20 * time.Millisecond,
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testReport(submissionID uuid.UUID) *reports.GradeReport {
	return &reports.GradeReport{
		ID:           uuid.New(),
		SubmissionID: submissionID,
		OverallScore: 7.5,
		GradeTier:    "Very Good",
		FactorScores: reports.FactorScores{
			FabricCondition:       8.0,
			ConstructionIntegrity: 7.5,
			ColorFidelity:         7.0,
			HardwareTrim:          7.5,
			Cleanliness:           7.5,
		},
		ConfidenceScore: 0.9,
		AISummary:       "Light wear consistent with age. Solid construction.",
		CertificateID:   "GT-0123456789AB",
	}
}

func subscription(endpoint, secret string) webhooks.WebhookSubscription {
	return webhooks.WebhookSubscription{
		ID:          uuid.New(),
		OwnerID:     uuid.New(),
		EndpointURL: endpoint,
		Secret:      secret,
	}
}

func TestNotifyDeliversSignedEnvelope(t *testing.T) {
	const secret = "0badc0de"

	submissionID := uuid.New()
	report := testReport(submissionID)

	var (
		mu       sync.Mutex
		attempts int
		body     []byte
		header   http.Header
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		body, _ = io.ReadAll(r.Body)
		header = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	source := &stubSource{subs: []webhooks.WebhookSubscription{subscription(srv.URL, secret)}}
	d := webhooks.NewDispatcher(source, srv.Client(), testConfig(), testLogger())

	d.Notify(context.Background(), uuid.New(), submissionID, report)

	mu.Lock()
	defer mu.Unlock()

	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}

	if got := header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}
	if got := header.Get("User-Agent"); got != "GradeThread-Webhook/1.0" {
		t.Errorf("User-Agent = %q, want GradeThread-Webhook/1.0", got)
	}

	sig := header.Get("X-GradeThread-Signature")
	if sig == "" {
		t.Fatal("missing X-GradeThread-Signature header")
	}
	if !webhooks.Verify(secret, body, sig) {
		t.Error("signature does not verify against the raw request body")
	}

	var envelope webhooks.Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope.Event != webhooks.EventGradeCompleted {
		t.Errorf("event = %q, want %q", envelope.Event, webhooks.EventGradeCompleted)
	}
	if envelope.Data.SubmissionID != submissionID {
		t.Errorf("data.submission_id = %s, want %s", envelope.Data.SubmissionID, submissionID)
	}
	if envelope.Data.GradeReport == nil {
		t.Fatal("data.grade_report is nil")
	}
	if envelope.Data.GradeReport.GradeTier != "Very Good" {
		t.Errorf("grade_tier = %q, want Very Good", envelope.Data.GradeReport.GradeTier)
	}
	if _, err := time.Parse(time.RFC3339, envelope.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", envelope.Timestamp, err)
	}
}

func TestNotifyStopsOnFirstSuccess(t *testing.T) {
	var (
		mu    sync.Mutex
		times []time.Time
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		times = append(times, time.Now())
		attempt := len(times)
		mu.Unlock()

		if attempt < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig()
	source := &stubSource{subs: []webhooks.WebhookSubscription{subscription(srv.URL, "s")}}
	d := webhooks.NewDispatcher(source, srv.Client(), cfg, testLogger())

	submissionID := uuid.New()
	d.Notify(context.Background(), uuid.New(), submissionID, testReport(submissionID))

	mu.Lock()
	defer mu.Unlock()

	if len(times) != 3 {
		t.Fatalf("attempts = %d, want 3 (stop on first 2xx)", len(times))
	}

	// retries must wait at least the configured delay
	for i := 1; i < len(times); i++ {
		if gap := times[i].Sub(times[i-1]); gap < cfg.RetryDelays[i-1] {
			t.Errorf("gap before attempt %d = %v, want >= %v", i+1, gap, cfg.RetryDelays[i-1])
		}
	}
}

func TestNotifyExhaustsRetrySchedule(t *testing.T) {
	var attempts atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	source := &stubSource{subs: []webhooks.WebhookSubscription{subscription(srv.URL, "s")}}
	d := webhooks.NewDispatcher(source, srv.Client(), testConfig(), testLogger())

	submissionID := uuid.New()
	d.Notify(context.Background(), uuid.New(), submissionID, testReport(submissionID))

	if got := attempts.Load(); got != 4 {
		t.Errorf("attempts = %d, want 4 (initial + 3 retries)", got)
	}
}

func TestNotifyIsolatesEndpoints(t *testing.T) {
	var healthyAttempts, failingAttempts atomic.Int32

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		healthyAttempts.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer healthy.Close()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		failingAttempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	source := &stubSource{subs: []webhooks.WebhookSubscription{
		subscription(failing.URL, "fail-secret"),
		subscription(healthy.URL, "ok-secret"),
	}}
	d := webhooks.NewDispatcher(source, nil, testConfig(), testLogger())

	submissionID := uuid.New()
	d.Notify(context.Background(), uuid.New(), submissionID, testReport(submissionID))

	if got := healthyAttempts.Load(); got != 1 {
		t.Errorf("healthy endpoint attempts = %d, want 1", got)
	}
	if got := failingAttempts.Load(); got != 4 {
		t.Errorf("failing endpoint attempts = %d, want 4", got)
	}
}

func TestNotifyPerAttemptTimeout(t *testing.T) {
	var attempts atomic.Int32

	const attemptTimeout = 30 * time.Millisecond

	// The handler must outlive the client timeout yet still return, or
	// srv.Close would wait on it forever. Draining the body first lets
	// the server notice the client hanging up.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-time.After(10 * attemptTimeout):
		}
	}))
	defer srv.Close()

	cfg := webhooks.DeliveryConfig{
		AttemptTimeout: attemptTimeout,
		RetryDelays:    []time.Duration{10 * time.Millisecond},
	}
	source := &stubSource{subs: []webhooks.WebhookSubscription{subscription(srv.URL, "s")}}
	d := webhooks.NewDispatcher(source, srv.Client(), cfg, testLogger())

	submissionID := uuid.New()
	start := time.Now()
	d.Notify(context.Background(), uuid.New(), submissionID, testReport(submissionID))

	if got := attempts.Load(); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Notify took %v, expected timeouts to bound each attempt", elapsed)
	}
}

func TestNotifyNoActiveSubscriptions(t *testing.T) {
	d := webhooks.NewDispatcher(&stubSource{}, nil, testConfig(), testLogger())

	submissionID := uuid.New()
	d.Notify(context.Background(), uuid.New(), submissionID, testReport(submissionID))
}

func TestNotifyCancelableBackoff(t *testing.T) {
	var attempts atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := webhooks.DeliveryConfig{
		AttemptTimeout: 250 * time.Millisecond,
		RetryDelays:    []time.Duration{10 * time.Second},
	}
	source := &stubSource{subs: []webhooks.WebhookSubscription{subscription(srv.URL, "s")}}
	d := webhooks.NewDispatcher(source, srv.Client(), cfg, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	submissionID := uuid.New()
	start := time.Now()
	d.Notify(ctx, uuid.New(), submissionID, testReport(submissionID))

	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Notify took %v, cancellation should interrupt the backoff wait", elapsed)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1 before cancellation", got)
	}
}
