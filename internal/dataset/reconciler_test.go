package dataset

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/curately/groundtruth-backend/internal/domain"
	"github.com/curately/groundtruth-backend/internal/platform/logger"
	"github.com/curately/groundtruth-backend/internal/store"
)

const testSlot = "current-dataset.json"

func newTestReconciler(st store.Store[*domain.Entry]) *Reconciler[*domain.Entry] {
	r := NewReconciler[*domain.Entry](logger.NewNop(), st, testSlot, "Dataset")
	r.now = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }
	return r
}

func testEntries() []*domain.Entry {
	return []*domain.Entry{
		{Question: "q1", GroundTruthChunkID: "c1", GroundTruthText: "t1", ID: "1_aaaaaaaaa"},
		{Question: "q2", GroundTruthChunkID: "c2", GroundTruthText: "t2", ID: "2_bbbbbbbbb"},
	}
}

func TestLoadAbsentSlotIsNil(t *testing.T) {
	rec := newTestReconciler(store.NewMemoryStore[*domain.Entry]())
	env, err := rec.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if env != nil {
		t.Fatalf("absent slot: want=nil got=%+v", env)
	}
}

func TestCreateOrReplaceStampsDatedName(t *testing.T) {
	st := store.NewMemoryStore[*domain.Entry]()
	rec := newTestReconciler(st)

	env, err := rec.CreateOrReplace(context.Background(), testEntries(), "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if env.Name != "Dataset 2026-03-14" {
		t.Fatalf("name: want=%q got=%q", "Dataset 2026-03-14", env.Name)
	}
	if env.Username != "alice" {
		t.Fatalf("username: want=alice got=%q", env.Username)
	}
	if !env.CreatedAt.Equal(env.UpdatedAt) {
		t.Fatalf("fresh envelope: created_at and updated_at must match")
	}

	stored, err := st.Read(context.Background(), testSlot)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(stored.Records) != 2 {
		t.Fatalf("records: want=2 got=%d", len(stored.Records))
	}
}

func TestUpdatePreservesCreationMetadata(t *testing.T) {
	st := store.NewMemoryStore[*domain.Entry]()
	rec := newTestReconciler(st)

	created, err := rec.CreateOrReplace(context.Background(), testEntries(), "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	later := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return later }

	updated, err := rec.Update(context.Background(), testEntries()[:1])
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Username != "alice" {
		t.Fatalf("username must survive update, got=%q", updated.Username)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at must survive update")
	}
	if !updated.UpdatedAt.Equal(later) {
		t.Fatalf("updated_at: want=%v got=%v", later, updated.UpdatedAt)
	}
	if len(updated.Records) != 1 {
		t.Fatalf("records: want=1 got=%d", len(updated.Records))
	}
}

func TestUpdateMissingSlotRecreatesWithDefaultUsername(t *testing.T) {
	rec := newTestReconciler(store.NewMemoryStore[*domain.Entry]())

	env, err := rec.Update(context.Background(), testEntries())
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if env.Username != DefaultUsername {
		t.Fatalf("username: want=%q got=%q", DefaultUsername, env.Username)
	}
}

func TestWriteFailureIsTyped(t *testing.T) {
	st := store.NewMemoryStore[*domain.Entry]()
	st.WriteErr = errors.New("disk full")
	rec := newTestReconciler(st)

	_, err := rec.CreateOrReplace(context.Background(), testEntries(), "alice")
	var wErr *store.WriteError
	if !errors.As(err, &wErr) {
		t.Fatalf("expected WriteError, got=%T", err)
	}
	if wErr.Slot != testSlot {
		t.Fatalf("slot: want=%q got=%q", testSlot, wErr.Slot)
	}
}

func TestClearAbsentSlotSucceeds(t *testing.T) {
	rec := newTestReconciler(store.NewMemoryStore[*domain.Entry]())
	if err := rec.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
}
