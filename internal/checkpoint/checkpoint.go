package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"

	"github.com/dgnsrekt/srtaudio/internal/audio"
)

// ErrLocked is returned by Open when another job owns the directory.
var ErrLocked = errors.New("job directory is locked by another process")

// Names are the file names used inside a job directory.
type Names struct {
	Partial  string
	Progress string
	Output   string
	Lock     string
}

// DefaultNames returns the standard artifact names.
func DefaultNames() Names {
	return Names{
		Partial:  "output_partial.wav",
		Progress: "progress.txt",
		Output:   "output_audio.wav",
		Lock:     ".srtaudio.lock",
	}
}

func (n Names) withDefaults() Names {
	d := DefaultNames()
	if n.Partial == "" {
		n.Partial = d.Partial
	}
	if n.Progress == "" {
		n.Progress = d.Progress
	}
	if n.Output == "" {
		n.Output = d.Output
	}
	if n.Lock == "" {
		n.Lock = d.Lock
	}
	return n
}

// Manager owns the checkpoint of one job directory while its lock is held.
type Manager struct {
	dir   string
	names Names
	lock  *flock.Flock
}

// LoadResult is the state recovered by Load.
type LoadResult struct {
	Timeline *audio.Timeline
	// Next is the position of the first cue not yet committed.
	Next int
	// Reset is set when a corrupt checkpoint was discarded.
	Reset  bool
	Reason string
}

// Resumed reports whether work was recovered from disk.
func (r LoadResult) Resumed() bool {
	return r.Next > 0
}

// Open acquires the exclusive lock on dir.
func Open(dir string, names Names) (*Manager, error) {
	names = names.withDefaults()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create job directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, names.Lock))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}

	log.Debug("checkpoint lock acquired", "dir", dir)
	return &Manager{dir: dir, names: names, lock: lock}, nil
}

// Close releases the lock.
func (m *Manager) Close() error {
	if err := m.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// Dir returns the job directory.
func (m *Manager) Dir() string { return m.dir }

// PartialPath returns the path of the partial timeline.
func (m *Manager) PartialPath() string { return filepath.Join(m.dir, m.names.Partial) }

// ProgressPath returns the path of the progress marker.
func (m *Manager) ProgressPath() string { return filepath.Join(m.dir, m.names.Progress) }

// OutputPath returns the path of the final output.
func (m *Manager) OutputPath() string { return filepath.Join(m.dir, m.names.Output) }

// HasArtifacts reports whether either checkpoint file exists.
func (m *Manager) HasArtifacts() bool {
	return exists(m.PartialPath()) || exists(m.ProgressPath())
}

// OutputExists reports whether the final output exists.
func (m *Manager) OutputExists() bool {
	return exists(m.OutputPath())
}

// Load recovers the checkpoint for a job of total cues. A missing
// checkpoint starts at zero. An inconsistent one is discarded and also
// starts at zero, with Reset set.
func (m *Manager) Load(total int) (LoadResult, error) {
	fresh := LoadResult{Timeline: audio.NewTimeline()}

	hasPartial, hasProgress := exists(m.PartialPath()), exists(m.ProgressPath())
	switch {
	case !hasPartial && !hasProgress:
		return fresh, nil
	case !hasProgress:
		return m.discard("partial audio without progress marker")
	case !hasPartial:
		return m.discard("progress marker without partial audio")
	}

	marker, err := os.ReadFile(m.ProgressPath())
	if err != nil {
		return LoadResult{}, fmt.Errorf("unable to read progress marker: %w", err)
	}
	next, err := parseMarker(marker)
	if err != nil {
		return m.discard(err.Error())
	}
	if next > total {
		return m.discard(fmt.Sprintf("progress marker %d exceeds %d cues", next, total))
	}

	data, err := os.ReadFile(m.PartialPath())
	if err != nil {
		return LoadResult{}, fmt.Errorf("unable to read partial audio: %w", err)
	}
	tl, err := audio.DecodeTimeline(data)
	if err != nil {
		return m.discard(err.Error())
	}

	log.Info("resuming from checkpoint", "next", next, "total", total,
		"partial", tl.Duration(), "size", humanize.Bytes(uint64(len(data))))
	return LoadResult{Timeline: tl, Next: next}, nil
}

func (m *Manager) discard(reason string) (LoadResult, error) {
	log.Warn("discarding corrupt checkpoint", "dir", m.dir, "reason", reason)
	if err := m.Reset(); err != nil {
		return LoadResult{}, err
	}
	return LoadResult{Timeline: audio.NewTimeline(), Reset: true, Reason: reason}, nil
}

// Commit persists tl and the index of the next cue. The timeline is
// replaced before the marker.
func (m *Manager) Commit(tl *audio.Timeline, next int) error {
	if next < 0 {
		return fmt.Errorf("invalid progress %d", next)
	}
	if err := writeTimeline(m.PartialPath(), tl); err != nil {
		return fmt.Errorf("unable to save partial audio: %w", err)
	}
	if err := writeFileAtomic(m.ProgressPath(), []byte(strconv.Itoa(next))); err != nil {
		return fmt.Errorf("unable to save progress: %w", err)
	}
	log.Debug("checkpoint committed", "next", next, "length", tl.Duration())
	return nil
}

// Finalize writes the final output and removes the checkpoint. Calling it
// again with the same timeline is a no-op success.
func (m *Manager) Finalize(tl *audio.Timeline) error {
	if err := writeTimeline(m.OutputPath(), tl); err != nil {
		return fmt.Errorf("unable to save output: %w", err)
	}
	return m.Reset()
}

// Reset deletes the checkpoint files. Missing files are not errors.
func (m *Manager) Reset() error {
	for _, path := range []string{m.PartialPath(), m.ProgressPath()} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("unable to remove %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

// parseMarker reads a progress marker. An empty marker means zero.
func parseMarker(data []byte) (int, error) {
	s := strings.TrimSpace(string(data))
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unparsable progress marker %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative progress marker %d", n)
	}
	return n, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
