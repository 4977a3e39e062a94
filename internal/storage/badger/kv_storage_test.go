package badger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
)

func newTestStorage(t *testing.T) interfaces.KeyValueStorage {
	t.Helper()

	logger := arbor.NewLogger()
	db, err := NewBadgerDB(logger, &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "kv.db"),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewKVStorage(db, logger)
}

func TestKVStorage_SetGet(t *testing.T) {
	kv := newTestStorage(t)
	ctx := context.Background()

	if err := kv.Set(ctx, "portfolio:snapshot:latest", `{"run_id":"abc"}`, "latest snapshot"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, err := kv.Get(ctx, "portfolio:snapshot:latest")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != `{"run_id":"abc"}` {
		t.Errorf("Unexpected value %q", value)
	}

	// Keys are case-insensitive
	value, err = kv.Get(ctx, "Portfolio:Snapshot:LATEST")
	if err != nil {
		t.Fatalf("Case-insensitive Get failed: %v", err)
	}
	if value != `{"run_id":"abc"}` {
		t.Errorf("Unexpected value %q", value)
	}
}

func TestKVStorage_GetMissing(t *testing.T) {
	kv := newTestStorage(t)

	if _, err := kv.Get(context.Background(), "missing"); err != interfaces.ErrKeyNotFound {
		t.Fatalf("Expected ErrKeyNotFound, got %v", err)
	}
}

func TestKVStorage_Overwrite(t *testing.T) {
	kv := newTestStorage(t)
	ctx := context.Background()

	if err := kv.Set(ctx, "key", "first", ""); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := kv.Set(ctx, "key", "second", ""); err != nil {
		t.Fatalf("Second Set failed: %v", err)
	}

	pair, err := kv.GetPair(ctx, "key")
	if err != nil {
		t.Fatalf("GetPair failed: %v", err)
	}
	if pair.Value != "second" {
		t.Errorf("Expected overwritten value, got %q", pair.Value)
	}
	if pair.CreatedAt.After(pair.UpdatedAt) {
		t.Error("Expected CreatedAt to be preserved across updates")
	}

	count, err := kv.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 key after overwrite, got %d", count)
	}
}

func TestKVStorage_Delete(t *testing.T) {
	kv := newTestStorage(t)
	ctx := context.Background()

	if err := kv.Set(ctx, "key", "value", ""); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := kv.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := kv.Get(ctx, "key"); err != interfaces.ErrKeyNotFound {
		t.Fatalf("Expected ErrKeyNotFound after delete, got %v", err)
	}
}
