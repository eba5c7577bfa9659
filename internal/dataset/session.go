package dataset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/curately/groundtruth-backend/internal/domain"
	"github.com/curately/groundtruth-backend/internal/platform/logger"
	"github.com/curately/groundtruth-backend/internal/store"
)

type ApprovalFilter string

const (
	FilterAll      ApprovalFilter = "all"
	FilterApproved ApprovalFilter = "approved"
	FilterPending  ApprovalFilter = "pending"
)

type SortDirection string

const (
	SortNone SortDirection = "none"
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// RecordPtr constrains session element types to pointers satisfying
// domain.Record.
type RecordPtr[T any] interface {
	*T
	domain.Record
}

// GuardError blocks an import that would overwrite loaded records. The
// caller must export or clear first; the import is discarded, never queued.
type GuardError struct {
	AtRisk int
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("import blocked: %d records already loaded; export or clear the current dataset first", e.AtRisk)
}

// ErrNotNamed is returned for named-dataset operations when the configured
// backend only supports a fixed slot.
var ErrNotNamed = errors.New("named datasets are not supported by this storage backend")

// Session holds the working record collection and applies review actions to
// it. Every mutation runs to completion under the lock, then triggers an
// auto-save; the persisted copy can lag the in-memory one by at most the
// in-flight write.
type Session[T any, PT RecordPtr[T]] struct {
	mu    sync.Mutex
	log   *logger.Logger
	rec   *Reconciler[PT]
	named store.NamedStore[PT]

	records   []PT
	username  string
	name      string
	createdAt time.Time
	updatedAt time.Time
	persisted bool

	collator *collate.Collator
	now      func() time.Time
}

func NewSession[T any, PT RecordPtr[T]](log *logger.Logger, rec *Reconciler[PT], named store.NamedStore[PT]) *Session[T, PT] {
	return &Session[T, PT]{
		log:      log.With("service", "Session"),
		rec:      rec,
		named:    named,
		collator: collate.New(language.Und, collate.Numeric, collate.IgnoreCase),
		now:      time.Now,
	}
}

// Load pulls the persisted state into the session. A read failure degrades
// to the empty state rather than blocking the caller.
func (s *Session[T, PT]) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.named != nil {
		if username, err := s.named.Username(ctx); err == nil && username != "" {
			s.username = username
		}
		active, err := s.named.ActiveSlot(ctx)
		if err != nil {
			s.log.Warn("Failed to read active dataset pointer", "error", err)
			return nil
		}
		if active == "" {
			return nil
		}
		s.rec.SetSlot(active)
		s.name = active
	}

	env, err := s.rec.Load(ctx)
	if err != nil {
		s.log.Warn("Failed to load dataset, starting empty", "error", err)
		return nil
	}
	if env == nil {
		return nil
	}
	s.records = env.Records
	s.name = env.Name
	s.createdAt = env.CreatedAt
	s.updatedAt = env.UpdatedAt
	s.persisted = true
	if s.named == nil && env.Username != "" {
		s.username = env.Username
	}
	return nil
}

// ImportGuard reports whether an import may proceed. Exposed so callers can
// refuse before decoding; ImportRecords enforces it again regardless.
func (s *Session[T, PT]) ImportGuard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.importGuard()
}

func (s *Session[T, PT]) importGuard() error {
	if len(s.records) > 0 {
		return &GuardError{AtRisk: len(s.records)}
	}
	return nil
}

// ImportRecords replaces the (empty) collection with freshly decoded
// records. Persistence happens immediately when identity is established and
// is otherwise deferred until it is.
func (s *Session[T, PT]) ImportRecords(ctx context.Context, records []PT) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.importGuard(); err != nil {
		return err
	}
	s.records = records
	s.persisted = false
	return s.autosave(ctx)
}

func (s *Session[T, PT]) identityEstablished() bool {
	if s.username == "" {
		return false
	}
	if s.named != nil && s.name == "" {
		return false
	}
	return true
}

// autosave persists the collection after a mutation. Before identity is
// established (or while the collection is empty) the save is suppressed,
// not queued. A failed save is surfaced; the in-memory mutation stays
// applied.
func (s *Session[T, PT]) autosave(ctx context.Context) error {
	if !s.identityEstablished() || len(s.records) == 0 {
		return nil
	}
	var env *store.Envelope[PT]
	var err error
	if s.persisted {
		env, err = s.rec.Update(ctx, s.records)
	} else if s.named != nil {
		env, err = s.rec.CreateOrReplaceAs(ctx, s.records, s.username, s.name)
	} else {
		env, err = s.rec.CreateOrReplace(ctx, s.records, s.username)
	}
	if err != nil {
		s.log.Error("Auto-save failed, in-memory state kept", "error", err)
		return err
	}
	s.persisted = true
	s.name = env.Name
	s.createdAt = env.CreatedAt
	s.updatedAt = env.UpdatedAt
	if s.named != nil {
		if err := s.named.SetActiveSlot(ctx, s.name); err != nil {
			s.log.Warn("Failed to update active dataset pointer", "error", err)
		}
	}
	return nil
}

func (s *Session[T, PT]) indexOf(id string) int {
	for i, r := range s.records {
		if r.TrackingID() == id {
			return i
		}
	}
	return -1
}

// Add validates the candidate, stamps a fresh identity, and appends it.
func (s *Session[T, PT]) Add(ctx context.Context, candidate PT) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := candidate.Validate(); err != nil {
		return err
	}
	candidate.ClearApproval()
	candidate.SetTrackingID(domain.NewTrackingID())
	s.records = append(s.records, candidate)
	return s.autosave(ctx)
}

// InsertAt places the candidate before or after the target index. Inserting
// before index i lands at position i, after lands at i+1; out-of-range
// targets clamp to the nearest boundary.
func (s *Session[T, PT]) InsertAt(ctx context.Context, candidate PT, index int, before bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := candidate.Validate(); err != nil {
		return err
	}
	candidate.ClearApproval()
	candidate.SetTrackingID(domain.NewTrackingID())

	pos := index
	if !before {
		pos = index + 1
	}
	if pos < 0 {
		pos = 0
	}
	if pos > len(s.records) {
		pos = len(s.records)
	}
	s.records = append(s.records, nil)
	copy(s.records[pos+1:], s.records[pos:])
	s.records[pos] = candidate
	return s.autosave(ctx)
}

// Edit replaces the record with the given identity in full, keeping its
// position and identity. An unknown identity is a no-op, not an error.
func (s *Session[T, PT]) Edit(ctx context.Context, id string, replacement PT) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}
	if err := replacement.Validate(); err != nil {
		return err
	}
	replacement.SetTrackingID(id)
	s.records[idx] = replacement
	return s.autosave(ctx)
}

func (s *Session[T, PT]) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	return s.autosave(ctx)
}

func (s *Session[T, PT]) Approve(ctx context.Context, id, approver string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}
	s.records[idx].Approve(approver, s.now())
	return s.autosave(ctx)
}

// View returns a derived slice: search and approval filter AND'd together,
// then the requested sort over the business key. The underlying collection
// and its order are never touched.
func (s *Session[T, PT]) View(term string, filter ApprovalFilter, dir SortDirection) []PT {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PT, 0, len(s.records))
	for _, r := range s.records {
		if !r.MatchesSearch(term) {
			continue
		}
		switch filter {
		case FilterApproved:
			if !r.IsApproved() {
				continue
			}
		case FilterPending:
			if r.IsApproved() {
				continue
			}
		}
		out = append(out, r)
	}
	if dir == SortAsc || dir == SortDesc {
		sort.SliceStable(out, func(i, j int) bool {
			cmp := s.compareKeys(out[i].BusinessKey(), out[j].BusinessKey())
			if dir == SortDesc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	return out
}

// compareKeys compares numerically when both keys parse as numbers, and
// falls back to numeric-aware, case-insensitive collation otherwise.
func (s *Session[T, PT]) compareKeys(a, b string) int {
	aNum, aErr := strconv.ParseFloat(a, 64)
	bNum, bErr := strconv.ParseFloat(b, 64)
	if aErr == nil && bErr == nil {
		switch {
		case aNum < bNum:
			return -1
		case aNum > bNum:
			return 1
		default:
			return 0
		}
	}
	return s.collator.CompareString(a, b)
}

func (s *Session[T, PT]) Records() []PT {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PT, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Session[T, PT]) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Stats reports total, approved and pending counts.
func (s *Session[T, PT]) Stats() (total, approved, pending int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.IsApproved() {
			approved++
		}
	}
	return len(s.records), approved, len(s.records) - approved
}

// Clear drops the in-memory collection and the persisted envelope.
func (s *Session[T, PT]) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.rec.Clear(ctx); err != nil {
		return err
	}
	if s.named != nil {
		if err := s.named.ClearActiveSlot(ctx); err != nil {
			s.log.Warn("Failed to clear active dataset pointer", "error", err)
		}
	}
	s.records = nil
	s.persisted = false
	s.name = ""
	s.createdAt = time.Time{}
	s.updatedAt = time.Time{}
	return nil
}

func (s *Session[T, PT]) SetUsername(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
	if s.named != nil {
		if err := s.named.SetUsername(ctx, username); err != nil {
			return err
		}
	}
	return s.autosave(ctx)
}

// SaveAs names the current dataset and persists it under that name. An
// empty name picks a unique date-stamped default. Named stores only.
func (s *Session[T, PT]) SaveAs(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.named == nil {
		return "", ErrNotNamed
	}
	if name == "" {
		unique, err := s.named.UniqueName(ctx, s.rec.DefaultName())
		if err != nil {
			return "", err
		}
		name = unique
	}
	if name == s.name {
		return name, s.autosave(ctx)
	}
	taken, err := s.named.Exists(ctx, name)
	if err != nil {
		return "", err
	}
	if taken {
		return "", store.ErrNameTaken
	}
	s.name = name
	s.rec.SetSlot(name)
	s.persisted = false
	return name, s.autosave(ctx)
}

// Open resumes a named dataset, making it the active slot.
func (s *Session[T, PT]) Open(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.named == nil {
		return ErrNotNamed
	}
	env, err := s.named.Read(ctx, name)
	if err != nil {
		return err
	}
	s.rec.SetSlot(name)
	s.name = name
	s.records = env.Records
	s.createdAt = env.CreatedAt
	s.updatedAt = env.UpdatedAt
	s.persisted = true
	return s.named.SetActiveSlot(ctx, name)
}

// Rename renames the current dataset, keeping uniqueness. Named stores only.
func (s *Session[T, PT]) Rename(ctx context.Context, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.named == nil {
		return ErrNotNamed
	}
	if s.name == "" {
		return &store.NotFoundError{Slot: ""}
	}
	if err := s.named.Rename(ctx, s.name, newName); err != nil {
		return err
	}
	s.name = newName
	s.rec.SetSlot(newName)
	return nil
}

// DeleteDataset removes a named dataset. Deleting the open one also clears
// the session.
func (s *Session[T, PT]) DeleteDataset(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.named == nil {
		return ErrNotNamed
	}
	if err := s.named.Delete(ctx, name); err != nil {
		return err
	}
	if name == s.name {
		s.records = nil
		s.persisted = false
		s.name = ""
		s.createdAt = time.Time{}
		s.updatedAt = time.Time{}
	}
	return nil
}

func (s *Session[T, PT]) ListDatasets(ctx context.Context) ([]store.DatasetInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.named == nil {
		return nil, ErrNotNamed
	}
	return s.named.List(ctx)
}

// Named reports whether the backend supports named datasets.
func (s *Session[T, PT]) Named() bool { return s.named != nil }

func (s *Session[T, PT]) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *Session[T, PT]) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// Meta returns the envelope metadata for the loaded dataset.
func (s *Session[T, PT]) Meta() (name, username string, createdAt, updatedAt time.Time, persisted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name, s.username, s.createdAt, s.updatedAt, s.persisted
}
