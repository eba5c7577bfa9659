package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is a map-backed Store used by tests. Envelopes are deep-copied
// through JSON so callers cannot mutate stored state by accident. WriteErr
// and ReadErr, when set, are returned by the corresponding operations.
type MemoryStore[T any] struct {
	mu        sync.Mutex
	envelopes map[string]*Envelope[T]

	WriteErr error
	ReadErr  error
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{envelopes: map[string]*Envelope[T]{}}
}

func (s *MemoryStore[T]) Exists(ctx context.Context, slot string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.envelopes[slot]
	return ok, nil
}

func (s *MemoryStore[T]) Read(ctx context.Context, slot string) (*Envelope[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	env, ok := s.envelopes[slot]
	if !ok {
		return nil, &NotFoundError{Slot: slot}
	}
	return copyEnvelope(env)
}

func (s *MemoryStore[T]) Write(ctx context.Context, slot string, env *Envelope[T]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	stored, err := copyEnvelope(env)
	if err != nil {
		return err
	}
	s.envelopes[slot] = stored
	return nil
}

func (s *MemoryStore[T]) Delete(ctx context.Context, slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.envelopes, slot)
	return nil
}

func copyEnvelope[T any](env *Envelope[T]) (*Envelope[T], error) {
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	var out Envelope[T]
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
