package webhooks

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/gradethread/gradethread/pkg/query"
	"github.com/gradethread/gradethread/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "webhook_subscriptions", "w").
	Project("id", "ID").
	Project("owner_id", "OwnerID").
	Project("endpoint_url", "EndpointURL").
	Project("secret", "Secret").
	Project("description", "Description").
	Project("created_at", "CreatedAt").
	Project("expires_at", "ExpiresAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for subscription queries.
type Filters struct {
	OwnerID *uuid.UUID `json:"owner_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.WhereEquals("OwnerID", f.OwnerID)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("owner_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			f.OwnerID = &id
		}
	}

	return f
}

func scanSubscription(s repository.Scanner) (WebhookSubscription, error) {
	var sub WebhookSubscription

	err := s.Scan(
		&sub.ID,
		&sub.OwnerID,
		&sub.EndpointURL,
		&sub.Secret,
		&sub.Description,
		&sub.CreatedAt,
		&sub.ExpiresAt,
	)

	return sub, err
}
