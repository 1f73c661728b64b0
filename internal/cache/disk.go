package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"
)

const diskExt = ".zst"

// DiskCache stores zstd-compressed entries, one file per key, so synthesized
// clips survive between runs. The directory listing is the index.
type DiskCache struct {
	dir      string
	capacity int64
	size     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	// entries maps key to compressed size and modification time.
	entries map[string]diskEntry

	mu    sync.Mutex
	stats Stats
}

type diskEntry struct {
	size    int64
	modTime time.Time
}

// NewDiskCache opens or creates a disk cache in dir.
func NewDiskCache(dir string, capacity int64, level int) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if level <= 0 {
		level = 3
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	dc := &DiskCache{
		dir:      dir,
		capacity: capacity,
		encoder:  encoder,
		decoder:  decoder,
		entries:  make(map[string]diskEntry),
	}
	if err := dc.scan(); err != nil {
		return nil, err
	}
	return dc, nil
}

// Get reads and decompresses key. Unreadable entries are removed and
// reported as misses.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if _, ok := dc.entries[key]; !ok {
		dc.stats.Misses++
		return nil, false
	}

	raw, err := os.ReadFile(dc.path(key))
	if err == nil {
		var data []byte
		data, err = dc.decoder.DecodeAll(raw, nil)
		if err == nil {
			now := time.Now()
			_ = os.Chtimes(dc.path(key), now, now)
			e := dc.entries[key]
			e.modTime = now
			dc.entries[key] = e
			dc.stats.Hits++
			return data, true
		}
	}

	log.Warn("dropping unreadable cache entry", "key", key, "error", err)
	dc.removeLocked(key)
	dc.stats.Misses++
	return nil, false
}

// Put compresses and stores value, evicting the oldest entries to stay
// within capacity.
func (dc *DiskCache) Put(key string, value []byte) error {
	compressed := dc.encoder.EncodeAll(value, make([]byte, 0, len(value)/2))
	n := int64(len(compressed))

	dc.mu.Lock()
	defer dc.mu.Unlock()

	if n > dc.capacity {
		return ErrItemTooLarge
	}
	if _, ok := dc.entries[key]; ok {
		dc.removeLocked(key)
	}
	for dc.size+n > dc.capacity && len(dc.entries) > 0 {
		dc.evictOldest()
	}

	if err := writeFileAtomic(dc.path(key), compressed); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	dc.entries[key] = diskEntry{size: n, modTime: time.Now()}
	dc.size += n
	return nil
}

// Delete removes key if present.
func (dc *DiskCache) Delete(key string) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.removeLocked(key)
}

// Clear removes every entry.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	for key := range dc.entries {
		if err := os.Remove(dc.path(key)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	dc.entries = make(map[string]diskEntry)
	dc.size = 0
	return nil
}

// Prune removes entries not used since before now-maxAge and returns how
// many were removed.
func (dc *DiskCache) Prune(maxAge time.Duration) int {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for key, e := range dc.entries {
		if e.modTime.Before(cutoff) {
			dc.removeLocked(key)
			removed++
		}
	}
	return removed
}

// Stats returns usage counters.
func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	s := dc.stats
	s.Capacity = dc.capacity
	s.Size = dc.size
	s.Items = int64(len(dc.entries))
	return s
}

// Dir returns the cache directory.
func (dc *DiskCache) Dir() string {
	return dc.dir
}

// Close releases the codec resources.
func (dc *DiskCache) Close() error {
	dc.decoder.Close()
	return dc.encoder.Close()
}

func (dc *DiskCache) path(key string) string {
	return filepath.Join(dc.dir, key+diskExt)
}

// scan rebuilds the in-memory index from the directory listing.
func (dc *DiskCache) scan() error {
	files, err := os.ReadDir(dc.dir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, diskExt) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		dc.entries[strings.TrimSuffix(name, diskExt)] = diskEntry{size: info.Size(), modTime: info.ModTime()}
		dc.size += info.Size()
	}
	log.Debug("disk cache opened", "dir", dc.dir, "entries", len(dc.entries), "size", humanize.IBytes(uint64(dc.size)))
	return nil
}

// evictOldest must be called with the lock held.
func (dc *DiskCache) evictOldest() {
	keys := make([]string, 0, len(dc.entries))
	for key := range dc.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return dc.entries[keys[i]].modTime.Before(dc.entries[keys[j]].modTime)
	})
	if len(keys) > 0 {
		dc.removeLocked(keys[0])
		dc.stats.Evictions++
	}
}

// removeLocked must be called with the lock held.
func (dc *DiskCache) removeLocked(key string) {
	e, ok := dc.entries[key]
	if !ok {
		return
	}
	_ = os.Remove(dc.path(key))
	delete(dc.entries, key)
	dc.size -= e.size
}

// writeFileAtomic writes data to a temp file beside path and renames it
// into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()           //nolint:errcheck
		os.Remove(tmp.Name()) //nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return err
	}
	return os.Rename(tmp.Name(), path)
}
