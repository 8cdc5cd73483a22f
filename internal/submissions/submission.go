// Package submissions implements the submission domain for GradeThread.
// It provides types, data access, and business logic for garment submission
// intake, photo registration, and the grading status state machine.
package submissions

import (
	"time"

	"github.com/google/uuid"
)

// Submission represents a user's request to grade one garment.
type Submission struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	GarmentType string    `json:"garment_type"`
	Category    string    `json:"category"`
	Brand       string    `json:"brand"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ImageType identifies the semantic role of a submission photo.
type ImageType string

// Recognized image types.
const (
	ImageFront  ImageType = "front"
	ImageBack   ImageType = "back"
	ImageLabel  ImageType = "label"
	ImageDetail ImageType = "detail"
	ImageDefect ImageType = "defect"
)

// Valid reports whether the image type is one of the recognized roles.
func (t ImageType) Valid() bool {
	switch t {
	case ImageFront, ImageBack, ImageLabel, ImageDetail, ImageDefect:
		return true
	}
	return false
}

// SubmissionImage is a single photo attached to a submission.
// Images are immutable once created; the pipeline treats them as read-only input.
type SubmissionImage struct {
	ID           uuid.UUID `json:"id"`
	SubmissionID uuid.UUID `json:"submission_id"`
	ImageType    ImageType `json:"image_type"`
	StorageKey   string    `json:"storage_key"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// PhotoUpload carries one photo's raw bytes and placement within a new submission.
type PhotoUpload struct {
	Data         []byte
	Filename     string
	ContentType  string
	ImageType    ImageType
	DisplayOrder int
}

// CreateCommand carries the data needed to register a new submission with its photos.
// The submission is created in StatusPending.
type CreateCommand struct {
	OwnerID     uuid.UUID
	GarmentType string
	Category    string
	Brand       string
	Title       string
	Description string
	Photos      []PhotoUpload
}
