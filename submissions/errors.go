package submissions

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the referenced submission does not resolve.
	ErrNotFound = errors.New("submission not found")
	// ErrNotAuthorized indicates the actor lacks ownership or role.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrAlreadyReviewed indicates a transition out of a terminal state was
	// attempted.
	ErrAlreadyReviewed = errors.New("submission already reviewed")
)

// ValidationError carries per-field detail, surfaced to the caller as a
// 4xx-equivalent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
