package app

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/curately/groundtruth-backend/internal/domain"
	"github.com/curately/groundtruth-backend/internal/platform/logger"
	"github.com/curately/groundtruth-backend/internal/store"
)

type StorageBootstrapErrorCode string

const (
	StorageBootstrapErrorInvalidMode   StorageBootstrapErrorCode = "invalid_mode"
	StorageBootstrapErrorMissingBucket StorageBootstrapErrorCode = "missing_bucket"
	StorageBootstrapErrorConnectFailed StorageBootstrapErrorCode = "connect_failed"
)

type StorageBootstrapError struct {
	Code  StorageBootstrapErrorCode
	Mode  string
	Cause error
}

func (e *StorageBootstrapError) Error() string {
	if e == nil {
		return "storage bootstrap failed"
	}
	return fmt.Sprintf("storage bootstrap failed (code=%s mode=%q): %v", e.Code, e.Mode, e.Cause)
}

func (e *StorageBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Stores bundles the per-kind dataset stores for one backend. The named
// stores are nil when the backend only supports fixed slots.
type Stores struct {
	Entries        store.Store[*domain.Entry]
	Documents      store.Store[*domain.Document]
	NamedEntries   store.NamedStore[*domain.Entry]
	NamedDocuments store.NamedStore[*domain.Document]

	db *gorm.DB
}

// resolveStores picks the backend from config. "local" is the named sqlite
// backend; "gcs" is the fixed-slot bucket backend.
func resolveStores(log *logger.Logger, cfg Config) (*Stores, error) {
	mode := strings.TrimSpace(strings.ToLower(cfg.Storage.Mode))
	switch mode {
	case "local":
		db, err := store.OpenLocalDB(log, cfg.Storage.LocalPath)
		if err != nil {
			return nil, &StorageBootstrapError{Code: StorageBootstrapErrorConnectFailed, Mode: mode, Cause: err}
		}
		entries := store.NewLocalStore[*domain.Entry](log, db, "entries")
		documents := store.NewLocalStore[*domain.Document](log, db, "documents")
		return &Stores{
			Entries:        entries,
			Documents:      documents,
			NamedEntries:   entries,
			NamedDocuments: documents,
			db:             db,
		}, nil
	case "gcs":
		if strings.TrimSpace(cfg.Storage.Bucket) == "" {
			return nil, &StorageBootstrapError{
				Code:  StorageBootstrapErrorMissingBucket,
				Mode:  mode,
				Cause: fmt.Errorf("gcs storage requires a bucket name"),
			}
		}
		entries, err := store.NewGCSStore[*domain.Entry](log, cfg.Storage.Bucket)
		if err != nil {
			return nil, &StorageBootstrapError{Code: StorageBootstrapErrorConnectFailed, Mode: mode, Cause: err}
		}
		documents, err := store.NewGCSStore[*domain.Document](log, cfg.Storage.Bucket)
		if err != nil {
			return nil, &StorageBootstrapError{Code: StorageBootstrapErrorConnectFailed, Mode: mode, Cause: err}
		}
		return &Stores{Entries: entries, Documents: documents}, nil
	default:
		return nil, &StorageBootstrapError{
			Code:  StorageBootstrapErrorInvalidMode,
			Mode:  mode,
			Cause: fmt.Errorf("unsupported storage mode %q", cfg.Storage.Mode),
		}
	}
}

func (s *Stores) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
