package submissions

import "fmt"

// Status is the submission lifecycle state. The grading pipeline owns the
// pending → processing → completed/failed transitions; the dispute and
// regrade workflows own the rest.
type Status string

// Submission lifecycle states.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusDisputed   Status = "disputed"
)

// transitions is the closed set of legal status changes.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {StatusDisputed},
	StatusFailed:     {StatusPending},
	StatusDisputed:   {StatusPending},
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown submission status: %q", raw)
	}
	return s, nil
}

// Valid reports whether the status is a recognized lifecycle state.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether the pipeline will refuse to process a submission
// in this state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusDisputed
}

// Processable reports whether the pipeline may begin (or resume) grading.
func (s Status) Processable() bool {
	return s == StatusPending || s == StatusProcessing
}

// CanTransition reports whether moving from s to next is a legal transition.
// A no-op transition (s == next) is permitted only for StatusProcessing,
// so a pipeline re-entry on an already-claimed submission stays idempotent.
func (s Status) CanTransition(next Status) bool {
	if s == StatusProcessing && next == StatusProcessing {
		return true
	}
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}
