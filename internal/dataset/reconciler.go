// Package dataset owns the current-dataset state machine: how a record
// collection moves between its in-memory working copy and the persisted
// envelope, and which transitions are allowed to touch storage.
package dataset

import (
	"context"
	"fmt"
	"time"

	"github.com/curately/groundtruth-backend/internal/platform/logger"
	"github.com/curately/groundtruth-backend/internal/store"
)

// DefaultUsername is stamped on envelopes recreated by the update fallback
// when the slot vanished out-of-band.
const DefaultUsername = "User"

// Reconciler applies envelope transitions against one storage slot. A slot
// is either Absent (nothing persisted) or Present; CreateOrReplace is the
// only transition that resets created_at.
type Reconciler[T any] struct {
	log   *logger.Logger
	store store.Store[T]
	slot  string
	label string
	now   func() time.Time
}

func NewReconciler[T any](log *logger.Logger, st store.Store[T], slot, label string) *Reconciler[T] {
	return &Reconciler[T]{
		log:   log.With("service", "Reconciler", "slot", slot),
		store: st,
		slot:  slot,
		label: label,
		now:   time.Now,
	}
}

// SetSlot retargets the reconciler. Named stores use this when the active
// dataset changes.
func (r *Reconciler[T]) SetSlot(slot string) {
	r.slot = slot
	r.log = r.log.With("slot", slot)
}

func (r *Reconciler[T]) Slot() string { return r.slot }

// DefaultName is the date-stamped name given to envelopes created without
// an explicit one.
func (r *Reconciler[T]) DefaultName() string {
	return fmt.Sprintf("%s %s", r.label, r.now().Format("2006-01-02"))
}

// Load returns the persisted envelope, or nil when the slot is absent.
// Callers treat nil as "nothing to show yet", not an error.
func (r *Reconciler[T]) Load(ctx context.Context) (*store.Envelope[T], error) {
	ok, err := r.store.Exists(ctx, r.slot)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	env, err := r.store.Read(ctx, r.slot)
	if store.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return env, nil
}

// CreateOrReplace writes a fresh envelope with a date-stamped default name.
// Always permitted, whatever the slot held before.
func (r *Reconciler[T]) CreateOrReplace(ctx context.Context, records []T, username string) (*store.Envelope[T], error) {
	return r.createAs(ctx, records, username, r.DefaultName())
}

// CreateOrReplaceAs is CreateOrReplace with an explicit envelope name, used
// by named stores where the slot name is the dataset name.
func (r *Reconciler[T]) CreateOrReplaceAs(ctx context.Context, records []T, username, name string) (*store.Envelope[T], error) {
	return r.createAs(ctx, records, username, name)
}

func (r *Reconciler[T]) createAs(ctx context.Context, records []T, username, name string) (*store.Envelope[T], error) {
	now := r.now()
	env := &store.Envelope[T]{
		Name:      name,
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
		Records:   records,
	}
	if err := r.store.Write(ctx, r.slot, env); err != nil {
		return nil, &store.WriteError{Slot: r.slot, Cause: err}
	}
	return env, nil
}

// Update replaces the records wholesale, preserving name, username and
// created_at from the persisted envelope. When the slot is unexpectedly
// absent (storage cleared out-of-band) it falls back to CreateOrReplace
// with DefaultUsername.
func (r *Reconciler[T]) Update(ctx context.Context, records []T) (*store.Envelope[T], error) {
	env, err := r.store.Read(ctx, r.slot)
	if store.IsNotFound(err) {
		r.log.Warn("Dataset slot missing on update, recreating with default username")
		return r.CreateOrReplace(ctx, records, DefaultUsername)
	}
	if err != nil {
		return nil, err
	}
	env.Records = records
	env.UpdatedAt = r.now()
	if err := r.store.Write(ctx, r.slot, env); err != nil {
		return nil, &store.WriteError{Slot: r.slot, Cause: err}
	}
	return env, nil
}

// Clear transitions the slot back to Absent (or to a tombstone, depending
// on the backend). Clearing an absent slot succeeds.
func (r *Reconciler[T]) Clear(ctx context.Context) error {
	return r.store.Delete(ctx, r.slot)
}
