// Package store persists dataset envelopes in named slots. Both backends
// honor the same contract: writes are full-replace, a read of an absent slot
// is a typed not-found signal, and delete of an absent slot is not an error.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Envelope wraps a record collection with its curation metadata. CreatedAt
// is fixed when the envelope is first created; UpdatedAt moves on every
// write.
type Envelope[T any] struct {
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Records   []T       `json:"records"`
}

type Store[T any] interface {
	Exists(ctx context.Context, slot string) (bool, error)
	Read(ctx context.Context, slot string) (*Envelope[T], error)
	Write(ctx context.Context, slot string, env *Envelope[T]) error
	Delete(ctx context.Context, slot string) error
}

// DatasetInfo is one row of a named-store listing.
type DatasetInfo struct {
	Name        string    `json:"name"`
	UpdatedAt   time.Time `json:"last_modified"`
	RecordCount int       `json:"record_count"`
}

// NamedStore is the local-variant extension: arbitrarily many named
// datasets, one active-slot pointer, and a separately persisted username.
type NamedStore[T any] interface {
	Store[T]

	List(ctx context.Context) ([]DatasetInfo, error)
	Rename(ctx context.Context, oldName, newName string) error
	UniqueName(ctx context.Context, base string) (string, error)

	ActiveSlot(ctx context.Context) (string, error)
	SetActiveSlot(ctx context.Context, name string) error
	ClearActiveSlot(ctx context.Context) error

	Username(ctx context.Context) (string, error)
	SetUsername(ctx context.Context, username string) error
}

var ErrNameTaken = errors.New("a dataset with that name already exists")

type NotFoundError struct {
	Slot string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no dataset stored in slot %q", e.Slot)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// WriteError marks a failed persistence attempt. The in-memory edit that
// triggered the write stays applied; only the save failed.
type WriteError struct {
	Slot  string
	Cause error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to save dataset to slot %q: %v", e.Slot, e.Cause)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}
