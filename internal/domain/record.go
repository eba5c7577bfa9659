package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindEntry    Kind = "entry"
	KindDocument Kind = "document"
)

// Record is the behavior shared by both record kinds. The tracking identity
// is generated once, used as the sole lookup key within a collection, and
// never leaves the process through an export.
type Record interface {
	Kind() Kind
	TrackingID() string
	SetTrackingID(id string)
	// BusinessKey is the user-visible identifier (chunk id or document id)
	// used for sorting. It is content, not identity.
	BusinessKey() string
	IsApproved() bool
	Approve(by string, at time.Time)
	ClearApproval()
	Validate() error
	MatchesSearch(term string) bool
}

// NewTrackingID returns a collision-resistant identity: millisecond timestamp
// plus a short random suffix, so rapid successive calls stay unique.
func NewTrackingID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), suffix)
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func requiredErr(field, label string) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf("%s is required", label)}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
