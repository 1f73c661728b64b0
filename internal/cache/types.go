package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Common errors for cache operations
var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCorrupted is returned when a stored entry cannot be decoded
	ErrCorrupted = errors.New("cache entry corrupted")
)

// Level represents the cache tier
type Level int

const (
	// LevelMemory is the in-process LRU
	LevelMemory Level = iota

	// LevelDisk is the compressed on-disk store
	LevelDisk
)

// String returns the string representation of the cache level
func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "memory"
	case LevelDisk:
		return "disk"
	default:
		return "unknown"
	}
}

// Stats holds cache usage counters.
type Stats struct {
	Capacity  int64 // Maximum capacity in bytes
	Size      int64 // Current size in bytes
	Items     int64 // Number of stored entries
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns hits / (hits + misses), or zero before any lookup.
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// Config holds configuration for a cache Manager.
type Config struct {
	// MemoryCapacity bounds the in-memory tier, in bytes.
	MemoryCapacity int64

	// DiskCapacity bounds the on-disk tier, in bytes. Zero disables it.
	DiskCapacity int64

	// Dir is where disk entries are stored.
	Dir string

	// CompressionLevel is the zstd level (1-22, default 3).
	CompressionLevel int

	// MaxAge removes disk entries older than this when the cache is opened.
	// Zero keeps everything.
	MaxAge time.Duration
}

// DefaultConfig returns the default cache configuration for dir.
func DefaultConfig(dir string) Config {
	return Config{
		MemoryCapacity:   64 * 1024 * 1024,   // 64MB
		DiskCapacity:     1024 * 1024 * 1024, // 1GB
		Dir:              dir,
		CompressionLevel: 3,
		MaxAge:           30 * 24 * time.Hour,
	}
}

// GenerateCacheKey derives a stable key for one synthesis request. The
// backend name must include everything that changes the voice, such as the
// voice ID or the regional accent.
func GenerateCacheKey(backend, text string, speed float64) string {
	data := fmt.Sprintf("%s|%s|%.3f", backend, text, speed)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}
