// Package webhooks implements webhook subscriptions and the grade-complete
// notification dispatcher. Subscriptions bind an owner to an HTTPS endpoint
// and a shared signing secret; the dispatcher delivers signed event payloads
// to every active subscription when a submission finishes grading.
package webhooks

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WebhookSubscription binds an owner to a delivery endpoint and signing
// secret. A subscription is active while its endpoint URL is non-empty and
// its expiration, when set, has not passed.
type WebhookSubscription struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	EndpointURL string     `json:"endpoint_url"`
	Secret      string     `json:"secret,omitempty"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Active reports whether the subscription should receive deliveries at the
// given instant.
func (s WebhookSubscription) Active(now time.Time) bool {
	if s.EndpointURL == "" {
		return false
	}
	if s.ExpiresAt != nil && !s.ExpiresAt.After(now) {
		return false
	}
	return true
}

// Redacted returns a copy with the signing secret cleared. Used for every
// read path after creation; the secret is only surfaced once.
func (s WebhookSubscription) Redacted() WebhookSubscription {
	s.Secret = ""
	return s
}

// CreateCommand carries the data needed to register a new subscription.
// The signing secret is generated server-side.
type CreateCommand struct {
	OwnerID     uuid.UUID  `json:"owner_id"`
	EndpointURL string     `json:"endpoint_url"`
	Description string     `json:"description"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// NewSecret generates a 32-byte random signing secret encoded as 64
// lowercase hex characters.
func NewSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate webhook secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
