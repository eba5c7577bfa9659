package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/curately/groundtruth-backend/internal/platform/logger"
)

const gcsOpTimeout = 30 * time.Second

// GCSStore keeps one envelope per well-known object key in a bucket. Object
// writes are atomic full replacements; a crashed save never leaves a torn
// envelope.
type GCSStore[T any] struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
	now    func() time.Time
}

func NewGCSStore[T any](log *logger.Logger, bucket string, opts ...option.ClientOption) (*GCSStore[T], error) {
	if bucket == "" {
		return nil, fmt.Errorf("missing GCS bucket name")
	}
	client, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore[T]{
		log:    log.With("service", "GCSStore"),
		client: client,
		bucket: bucket,
		now:    time.Now,
	}, nil
}

func (s *GCSStore[T]) Exists(ctx context.Context, slot string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, gcsOpTimeout)
	defer cancel()
	_, err := s.client.Bucket(s.bucket).Object(slot).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat object %q: %w", slot, err)
	}
	return true, nil
}

func (s *GCSStore[T]) Read(ctx context.Context, slot string) (*Envelope[T], error) {
	ctx, cancel := context.WithTimeout(ctx, gcsOpTimeout)
	defer cancel()
	r, err := s.client.Bucket(s.bucket).Object(slot).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, &NotFoundError{Slot: slot}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open reader for %q: %w", slot, err)
	}
	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %q: %w", slot, err)
	}
	var env Envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode stored dataset %q: %w", slot, err)
	}
	return &env, nil
}

func (s *GCSStore[T]) Write(ctx context.Context, slot string, env *Envelope[T]) error {
	body, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode dataset for %q: %w", slot, err)
	}
	ctx, cancel := context.WithTimeout(ctx, gcsOpTimeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(slot).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write dataset to %q: %w", slot, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close writer for %q: %w", slot, err)
	}
	return nil
}

// Delete resets the slot to an empty tombstone envelope rather than removing
// the object. A later Read sees an empty collection, not a missing slot.
func (s *GCSStore[T]) Delete(ctx context.Context, slot string) error {
	now := s.now()
	tombstone := &Envelope[T]{
		CreatedAt: now,
		UpdatedAt: now,
		Records:   []T{},
	}
	return s.Write(ctx, slot, tombstone)
}
