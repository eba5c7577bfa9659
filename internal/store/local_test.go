package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/curately/groundtruth-backend/internal/domain"
	"github.com/curately/groundtruth-backend/internal/platform/logger"
)

func newTestLocalStore(t *testing.T) *LocalStore[*domain.Entry] {
	t.Helper()
	db, err := OpenLocalDB(logger.NewNop(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewLocalStore[*domain.Entry](logger.NewNop(), db, "entries")
}

func testEnvelope(name string) *Envelope[*domain.Entry] {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	return &Envelope[*domain.Entry]{
		Name:      name,
		Username:  "alice",
		CreatedAt: now,
		UpdatedAt: now,
		Records: []*domain.Entry{
			{Question: "q1", GroundTruthChunkID: "c1", GroundTruthText: "t1", ID: "1_aaaaaaaaa"},
		},
	}
}

func TestLocalStoreRoundTrip(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "My Dataset")
	if err != nil || ok {
		t.Fatalf("exists before write: want=false got=%v err=%v", ok, err)
	}

	if err := s.Write(ctx, "My Dataset", testEnvelope("My Dataset")); err != nil {
		t.Fatalf("write: %v", err)
	}
	env, err := s.Read(ctx, "My Dataset")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if env.Username != "alice" || len(env.Records) != 1 {
		t.Fatalf("envelope mangled: %+v", env)
	}
	if env.Records[0].GroundTruthChunkID != "c1" {
		t.Fatalf("record mangled: %+v", env.Records[0])
	}
}

func TestLocalStoreReadAbsentIsNotFound(t *testing.T) {
	s := newTestLocalStore(t)
	_, err := s.Read(context.Background(), "nope")
	if !IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got=%v", err)
	}
}

func TestLocalStoreWriteReplacesExisting(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	if err := s.Write(ctx, "My Dataset", testEnvelope("My Dataset")); err != nil {
		t.Fatalf("write: %v", err)
	}
	env := testEnvelope("My Dataset")
	env.Records = append(env.Records, &domain.Entry{
		Question: "q2", GroundTruthChunkID: "c2", GroundTruthText: "t2", ID: "2_bbbbbbbbb",
	})
	if err := s.Write(ctx, "My Dataset", env); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	got, err := s.Read(ctx, "My Dataset")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got.Records) != 2 {
		t.Fatalf("records after rewrite: want=2 got=%d", len(got.Records))
	}
}

func TestLocalStoreDeleteClearsActivePointer(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	if err := s.Write(ctx, "My Dataset", testEnvelope("My Dataset")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.SetActiveSlot(ctx, "My Dataset"); err != nil {
		t.Fatalf("set active: %v", err)
	}
	if err := s.Delete(ctx, "My Dataset"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	ok, err := s.Exists(ctx, "My Dataset")
	if err != nil || ok {
		t.Fatalf("dataset must be gone, got=%v err=%v", ok, err)
	}
	active, err := s.ActiveSlot(ctx)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active != "" {
		t.Fatalf("active pointer must be cleared, got=%q", active)
	}
}

func TestLocalStoreDeleteKeepsUnrelatedActivePointer(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	if err := s.Write(ctx, "A", testEnvelope("A")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Write(ctx, "B", testEnvelope("B")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.SetActiveSlot(ctx, "A"); err != nil {
		t.Fatalf("set active: %v", err)
	}
	if err := s.Delete(ctx, "B"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	active, err := s.ActiveSlot(ctx)
	if err != nil || active != "A" {
		t.Fatalf("active: want=A got=%q err=%v", active, err)
	}
}

func TestLocalStoreRename(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	if err := s.Write(ctx, "Old", testEnvelope("Old")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.SetActiveSlot(ctx, "Old"); err != nil {
		t.Fatalf("set active: %v", err)
	}
	if err := s.Rename(ctx, "Old", "New"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	env, err := s.Read(ctx, "New")
	if err != nil {
		t.Fatalf("read renamed: %v", err)
	}
	if env.Name != "New" {
		t.Fatalf("payload name must follow the rename, got=%q", env.Name)
	}
	if _, err := s.Read(ctx, "Old"); !IsNotFound(err) {
		t.Fatalf("old name must be gone, got=%v", err)
	}
	active, err := s.ActiveSlot(ctx)
	if err != nil || active != "New" {
		t.Fatalf("active pointer must follow rename, got=%q err=%v", active, err)
	}
}

func TestLocalStoreRenameRejectsTakenName(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	if err := s.Write(ctx, "A", testEnvelope("A")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Write(ctx, "B", testEnvelope("B")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Rename(ctx, "A", "B"); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got=%v", err)
	}
}

func TestLocalStoreUniqueName(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	name, err := s.UniqueName(ctx, "Dataset 2026-03-14")
	if err != nil || name != "Dataset 2026-03-14" {
		t.Fatalf("free base: want=Dataset 2026-03-14 got=%q err=%v", name, err)
	}

	if err := s.Write(ctx, "Dataset 2026-03-14", testEnvelope("Dataset 2026-03-14")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Write(ctx, "Dataset 2026-03-14 (1)", testEnvelope("Dataset 2026-03-14 (1)")); err != nil {
		t.Fatalf("write: %v", err)
	}
	name, err = s.UniqueName(ctx, "Dataset 2026-03-14")
	if err != nil || name != "Dataset 2026-03-14 (2)" {
		t.Fatalf("taken base: want=Dataset 2026-03-14 (2) got=%q err=%v", name, err)
	}
}

func TestLocalStoreNamespacesAreIsolated(t *testing.T) {
	db, err := OpenLocalDB(logger.NewNop(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	entries := NewLocalStore[*domain.Entry](logger.NewNop(), db, "entries")
	documents := NewLocalStore[*domain.Document](logger.NewNop(), db, "documents")
	ctx := context.Background()

	if err := entries.Write(ctx, "Shared Name", testEnvelope("Shared Name")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if ok, _ := documents.Exists(ctx, "Shared Name"); ok {
		t.Fatalf("names must not leak across namespaces")
	}

	if err := entries.SetUsername(ctx, "alice"); err != nil {
		t.Fatalf("set username: %v", err)
	}
	username, err := documents.Username(ctx)
	if err != nil {
		t.Fatalf("username: %v", err)
	}
	if username != "" {
		t.Fatalf("username must be namespaced, got=%q", username)
	}
}

func TestLocalStoreList(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	envA := testEnvelope("A")
	envB := testEnvelope("B")
	envB.UpdatedAt = envB.UpdatedAt.Add(time.Hour)
	if err := s.Write(ctx, "A", envA); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Write(ctx, "B", envB); err != nil {
		t.Fatalf("write: %v", err)
	}

	infos, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("datasets: want=2 got=%d", len(infos))
	}
	if infos[0].Name != "B" {
		t.Fatalf("most recently updated first: want=B got=%q", infos[0].Name)
	}
	if infos[0].RecordCount != 1 {
		t.Fatalf("record count: want=1 got=%d", infos[0].RecordCount)
	}
}
