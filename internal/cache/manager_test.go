package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGenerateCacheKey(t *testing.T) {
	base := GenerateCacheKey("gtts:en/com", "Hello", 1.0)

	if GenerateCacheKey("gtts:en/com", "Hello", 1.0) != base {
		t.Error("key must be deterministic")
	}
	if len(base) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(base))
	}

	others := []string{
		GenerateCacheKey("gtts:en/co.uk", "Hello", 1.0),
		GenerateCacheKey("gtts:en/com", "Hello!", 1.0),
		GenerateCacheKey("gtts:en/com", "Hello", 1.25),
	}
	for i, k := range others {
		if k == base {
			t.Errorf("variant %d collides with base key", i)
		}
	}
}

func TestDiskCache_PersistsAcrossOpens(t *testing.T) {
	dir := t.TempDir()
	payload := bytes.Repeat([]byte("speech "), 500)

	dc, err := NewDiskCache(dir, 1<<20, 3)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	if err := dc.Put("abc", payload); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if s := dc.Stats(); s.Size >= int64(len(payload)) {
		t.Errorf("expected compressed size below %d, got %d", len(payload), s.Size)
	}
	if err := dc.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewDiskCache(dir, 1<<20, 3)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, ok := reopened.Get("abc")
	if !ok || !bytes.Equal(got, payload) {
		t.Fatalf("Get after reopen = %d bytes, %v", len(got), ok)
	}
}

func TestDiskCache_CorruptEntry(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad"+diskExt), []byte("not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}

	dc, err := NewDiskCache(dir, 1<<20, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer dc.Close()

	if _, ok := dc.Get("bad"); ok {
		t.Fatal("corrupt entry must be a miss")
	}
	if _, err := os.Stat(filepath.Join(dir, "bad"+diskExt)); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestDiskCache_Prune(t *testing.T) {
	dir := t.TempDir()
	dc, err := NewDiskCache(dir, 1<<20, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer dc.Close()

	if err := dc.Put("old", []byte("old")); err != nil {
		t.Fatal(err)
	}
	if err := dc.Put("new", []byte("new")); err != nil {
		t.Fatal(err)
	}

	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "old"+diskExt), past, past); err != nil {
		t.Fatal(err)
	}
	// Reopen so the index picks up the modification time.
	dc2, err := NewDiskCache(dir, 1<<20, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer dc2.Close()

	if n := dc2.Prune(24 * time.Hour); n != 1 {
		t.Errorf("Prune removed %d entries, want 1", n)
	}
	if _, ok := dc2.Get("new"); !ok {
		t.Error("recent entry should survive")
	}
}

func TestManager_Promotion(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if err := m.Put("k", []byte("clip")); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}

	m2, err := NewManager(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer m2.Close()

	got, ok := m2.Get("k")
	if !ok || string(got) != "clip" {
		t.Fatalf("Get = %q, %v", got, ok)
	}
	if m2.Promotions() != 1 {
		t.Errorf("expected one promotion, got %d", m2.Promotions())
	}
	if _, ok := m2.Get("k"); !ok {
		t.Fatal("second lookup should hit memory")
	}
	if m2.Promotions() != 1 {
		t.Error("memory hit must not promote again")
	}

	stats := m2.Stats()
	if stats[LevelMemory].Hits != 1 || stats[LevelDisk].Hits != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestManager_MemoryOnly(t *testing.T) {
	m, err := NewManager(Config{MemoryCapacity: 1024})
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	if err := m.Put("k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Stats()[LevelDisk]; ok {
		t.Error("disk tier should be disabled")
	}
	if err := m.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Get("k"); ok {
		t.Error("Clear should remove entries")
	}
}
