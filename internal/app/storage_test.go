package app

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/curately/groundtruth-backend/internal/platform/logger"
)

func TestResolveStoresInvalidMode(t *testing.T) {
	cfg := defaultConfig()
	cfg.Storage.Mode = "s3"

	_, err := resolveStores(logger.NewNop(), cfg)
	var bErr *StorageBootstrapError
	if !errors.As(err, &bErr) {
		t.Fatalf("expected StorageBootstrapError, got=%T", err)
	}
	if bErr.Code != StorageBootstrapErrorInvalidMode {
		t.Fatalf("code: want=%q got=%q", StorageBootstrapErrorInvalidMode, bErr.Code)
	}
}

func TestResolveStoresGCSRequiresBucket(t *testing.T) {
	cfg := defaultConfig()
	cfg.Storage.Mode = "gcs"
	cfg.Storage.Bucket = " "

	_, err := resolveStores(logger.NewNop(), cfg)
	var bErr *StorageBootstrapError
	if !errors.As(err, &bErr) {
		t.Fatalf("expected StorageBootstrapError, got=%T", err)
	}
	if bErr.Code != StorageBootstrapErrorMissingBucket {
		t.Fatalf("code: want=%q got=%q", StorageBootstrapErrorMissingBucket, bErr.Code)
	}
}

func TestResolveStoresLocalIsNamed(t *testing.T) {
	cfg := defaultConfig()
	cfg.Storage.LocalPath = filepath.Join(t.TempDir(), "test.db")

	stores, err := resolveStores(logger.NewNop(), cfg)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	defer stores.Close()

	if stores.NamedEntries == nil || stores.NamedDocuments == nil {
		t.Fatalf("local backend must expose named stores")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(logger.NewNop(), "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Mode != "local" {
		t.Fatalf("default storage mode: want=local got=%q", cfg.Storage.Mode)
	}
	if cfg.Dataset.EntrySlot != "current-dataset.json" {
		t.Fatalf("entry slot: got=%q", cfg.Dataset.EntrySlot)
	}
	if cfg.Dataset.DocumentSlot != "current-jsonl-dataset.json" {
		t.Fatalf("document slot: got=%q", cfg.Dataset.DocumentSlot)
	}
	if cfg.Dataset.DeleteConfirmSeconds != 5 {
		t.Fatalf("delete confirm window: got=%d", cfg.Dataset.DeleteConfirmSeconds)
	}
}
