package submissions

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/gradethread/gradethread/pkg/query"
	"github.com/gradethread/gradethread/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "submissions", "s").
	Project("id", "ID").
	Project("owner_id", "OwnerID").
	Project("garment_type", "GarmentType").
	Project("category", "Category").
	Project("brand", "Brand").
	Project("title", "Title").
	Project("description", "Description").
	Project("status", "Status").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var imageProjection = query.
	NewProjectionMap("public", "submission_images", "i").
	Project("id", "ID").
	Project("submission_id", "SubmissionID").
	Project("image_type", "ImageType").
	Project("storage_key", "StorageKey").
	Project("display_order", "DisplayOrder").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

var imageSort = query.SortField{
	Field: "DisplayOrder",
}

// Filters contains optional filtering criteria for submission queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	OwnerID     *uuid.UUID `json:"owner_id,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	GarmentType *string    `json:"garment_type,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Brand       *string    `json:"brand,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("OwnerID", f.OwnerID).
		WhereEquals("Status", f.Status).
		WhereEquals("GarmentType", f.GarmentType).
		WhereEquals("Category", f.Category).
		WhereEquals("Brand", f.Brand)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if o := values.Get("owner_id"); o != "" {
		if id, err := uuid.Parse(o); err == nil {
			f.OwnerID = &id
		}
	}

	if s := values.Get("status"); s != "" {
		if status, err := ParseStatus(s); err == nil {
			f.Status = &status
		}
	}

	if g := values.Get("garment_type"); g != "" {
		f.GarmentType = &g
	}

	if c := values.Get("category"); c != "" {
		f.Category = &c
	}

	if b := values.Get("brand"); b != "" {
		f.Brand = &b
	}

	return f
}

func scanSubmission(s repository.Scanner) (Submission, error) {
	var sub Submission
	var status string

	err := s.Scan(
		&sub.ID,
		&sub.OwnerID,
		&sub.GarmentType,
		&sub.Category,
		&sub.Brand,
		&sub.Title,
		&sub.Description,
		&status,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)

	if err != nil {
		return sub, err
	}

	sub.Status, err = ParseStatus(status)
	return sub, err
}

func scanImage(s repository.Scanner) (SubmissionImage, error) {
	var img SubmissionImage
	var imageType string

	err := s.Scan(
		&img.ID,
		&img.SubmissionID,
		&imageType,
		&img.StorageKey,
		&img.DisplayOrder,
		&img.CreatedAt,
	)

	img.ImageType = ImageType(imageType)
	return img, err
}
