package cache

import (
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Manager coordinates the memory and disk tiers. Lookups check memory
// first and promote disk hits; stores go to both tiers.
type Manager struct {
	memory *MemoryCache
	disk   *DiskCache // nil when the disk tier is disabled

	promotions atomic.Int64
}

// NewManager creates a cache manager. A zero DiskCapacity or empty Dir
// keeps everything in memory.
func NewManager(cfg Config) (*Manager, error) {
	m := &Manager{memory: NewMemoryCache(cfg.MemoryCapacity)}

	if cfg.DiskCapacity > 0 && cfg.Dir != "" {
		disk, err := NewDiskCache(cfg.Dir, cfg.DiskCapacity, cfg.CompressionLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to create disk cache: %w", err)
		}
		if cfg.MaxAge > 0 {
			if n := disk.Prune(cfg.MaxAge); n > 0 {
				log.Debug("pruned stale cache entries", "count", n)
			}
		}
		m.disk = disk
	}

	return m, nil
}

// Get retrieves a value from the first tier that has it.
func (m *Manager) Get(key string) ([]byte, bool) {
	if data, ok := m.memory.Get(key); ok {
		return data, true
	}
	if m.disk == nil {
		return nil, false
	}
	data, ok := m.disk.Get(key)
	if !ok {
		return nil, false
	}
	m.promotions.Add(1)
	_ = m.memory.Put(key, data)
	return data, true
}

// Put stores a value in every tier. Entries too large for the memory tier
// still go to disk.
func (m *Manager) Put(key string, value []byte) error {
	if err := m.memory.Put(key, value); err != nil && err != ErrItemTooLarge {
		return fmt.Errorf("memory cache: %w", err)
	}
	if m.disk != nil {
		if err := m.disk.Put(key, value); err != nil {
			return fmt.Errorf("disk cache: %w", err)
		}
	}
	return nil
}

// Delete removes key from every tier.
func (m *Manager) Delete(key string) {
	m.memory.Delete(key)
	if m.disk != nil {
		m.disk.Delete(key)
	}
}

// Clear removes every entry from every tier.
func (m *Manager) Clear() error {
	m.memory.Clear()
	if m.disk != nil {
		return m.disk.Clear()
	}
	return nil
}

// Stats returns per-tier statistics.
func (m *Manager) Stats() map[Level]Stats {
	stats := map[Level]Stats{LevelMemory: m.memory.Stats()}
	if m.disk != nil {
		stats[LevelDisk] = m.disk.Stats()
	}
	return stats
}

// Promotions returns how many disk hits were copied into memory.
func (m *Manager) Promotions() int64 {
	return m.promotions.Load()
}

// Close releases the disk tier.
func (m *Manager) Close() error {
	if m.disk == nil {
		return nil
	}
	if err := m.disk.Close(); err != nil {
		return fmt.Errorf("failed to close disk cache: %w", err)
	}
	return nil
}
