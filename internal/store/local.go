package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/curately/groundtruth-backend/internal/platform/logger"
)

// DatasetRow is the persisted form of one named dataset. The envelope is
// stored as a JSON payload; name and timestamps are lifted out for listing
// without decoding every payload.
type DatasetRow struct {
	ID        uint   `gorm:"primaryKey"`
	Namespace string `gorm:"uniqueIndex:idx_namespace_name;not null"`
	Name      string `gorm:"uniqueIndex:idx_namespace_name;not null"`
	Payload   []byte `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (DatasetRow) TableName() string { return "dataset_rows" }

// Setting is one namespaced key/value pair (active dataset pointer,
// username).
type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

func (Setting) TableName() string { return "settings" }

// LocalStore persists named datasets in an embedded SQLite database. Slots
// are dataset names; the namespace keeps the two record kinds apart in the
// shared tables.
type LocalStore[T any] struct {
	log       *logger.Logger
	db        *gorm.DB
	namespace string
}

func OpenLocalDB(log *logger.Logger, path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Error("Failed to open local dataset database", "path", path, "error", err)
		return nil, fmt.Errorf("failed to open local dataset database: %w", err)
	}
	if err := db.AutoMigrate(&DatasetRow{}, &Setting{}); err != nil {
		return nil, fmt.Errorf("failed to migrate local dataset tables: %w", err)
	}
	return db, nil
}

func NewLocalStore[T any](log *logger.Logger, db *gorm.DB, namespace string) *LocalStore[T] {
	return &LocalStore[T]{
		log:       log.With("service", "LocalStore", "namespace", namespace),
		db:        db,
		namespace: namespace,
	}
}

func (s *LocalStore[T]) Exists(ctx context.Context, slot string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&DatasetRow{}).
		Where("namespace = ? AND name = ?", s.namespace, slot).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *LocalStore[T]) Read(ctx context.Context, slot string) (*Envelope[T], error) {
	var row DatasetRow
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND name = ?", s.namespace, slot).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Slot: slot}
	}
	if err != nil {
		return nil, err
	}
	var env Envelope[T]
	if err := json.Unmarshal(row.Payload, &env); err != nil {
		return nil, fmt.Errorf("failed to decode stored dataset %q: %w", slot, err)
	}
	return &env, nil
}

func (s *LocalStore[T]) Write(ctx context.Context, slot string, env *Envelope[T]) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode dataset for %q: %w", slot, err)
	}
	row := DatasetRow{
		Namespace: s.namespace,
		Name:      slot,
		Payload:   payload,
		CreatedAt: env.CreatedAt,
		UpdatedAt: env.UpdatedAt,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
}

// Delete removes the dataset from the name index entirely and drops the
// active pointer if it referenced the deleted name.
func (s *LocalStore[T]) Delete(ctx context.Context, slot string) error {
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND name = ?", s.namespace, slot).
		Delete(&DatasetRow{}).Error
	if err != nil {
		return err
	}
	active, err := s.ActiveSlot(ctx)
	if err != nil {
		return err
	}
	if active == slot {
		return s.ClearActiveSlot(ctx)
	}
	return nil
}

func (s *LocalStore[T]) List(ctx context.Context) ([]DatasetInfo, error) {
	var rows []DatasetRow
	err := s.db.WithContext(ctx).
		Where("namespace = ?", s.namespace).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]DatasetInfo, 0, len(rows))
	for _, row := range rows {
		var env Envelope[T]
		if err := json.Unmarshal(row.Payload, &env); err != nil {
			s.log.Warn("Skipping unreadable dataset row", "name", row.Name, "error", err)
			continue
		}
		out = append(out, DatasetInfo{
			Name:        row.Name,
			UpdatedAt:   row.UpdatedAt,
			RecordCount: len(env.Records),
		})
	}
	return out, nil
}

func (s *LocalStore[T]) Rename(ctx context.Context, oldName, newName string) error {
	taken, err := s.Exists(ctx, newName)
	if err != nil {
		return err
	}
	if taken {
		return ErrNameTaken
	}
	env, err := s.Read(ctx, oldName)
	if err != nil {
		return err
	}
	env.Name = newName
	env.UpdatedAt = time.Now()
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode dataset for rename: %w", err)
	}
	err = s.db.WithContext(ctx).Model(&DatasetRow{}).
		Where("namespace = ? AND name = ?", s.namespace, oldName).
		Updates(map[string]any{
			"name":       newName,
			"payload":    payload,
			"updated_at": env.UpdatedAt,
		}).Error
	if err != nil {
		return err
	}
	active, err := s.ActiveSlot(ctx)
	if err != nil {
		return err
	}
	if active == oldName {
		return s.SetActiveSlot(ctx, newName)
	}
	return nil
}

// UniqueName returns base, or "base (n)" for the smallest n that is free.
func (s *LocalStore[T]) UniqueName(ctx context.Context, base string) (string, error) {
	if base == "" {
		base = "Untitled Dataset"
	}
	taken, err := s.Exists(ctx, base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", base, n)
		taken, err := s.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}

func (s *LocalStore[T]) settingKey(name string) string {
	return s.namespace + ":" + name
}

func (s *LocalStore[T]) getSetting(ctx context.Context, name string) (string, error) {
	var setting Setting
	err := s.db.WithContext(ctx).
		Where("key = ?", s.settingKey(name)).
		First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

func (s *LocalStore[T]) putSetting(ctx context.Context, name, value string) error {
	setting := Setting{Key: s.settingKey(name), Value: value}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&setting).Error
}

func (s *LocalStore[T]) ActiveSlot(ctx context.Context) (string, error) {
	return s.getSetting(ctx, "active_dataset")
}

func (s *LocalStore[T]) SetActiveSlot(ctx context.Context, name string) error {
	return s.putSetting(ctx, "active_dataset", name)
}

func (s *LocalStore[T]) ClearActiveSlot(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Where("key = ?", s.settingKey("active_dataset")).
		Delete(&Setting{}).Error
}

func (s *LocalStore[T]) Username(ctx context.Context) (string, error) {
	return s.getSetting(ctx, "username")
}

func (s *LocalStore[T]) SetUsername(ctx context.Context, username string) error {
	return s.putSetting(ctx, "username", username)
}
