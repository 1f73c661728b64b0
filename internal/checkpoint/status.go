package checkpoint

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/dgnsrekt/srtaudio/internal/audio"
)

// wavHeaderSize is the header length of files written by audio.Timeline.
const wavHeaderSize = 44

// Status describes the artifacts of a job directory.
type Status struct {
	Dir string

	PartialExists   bool
	PartialSize     int64
	PartialDuration time.Duration

	ProgressExists bool
	// Next is the committed cue count, or -1 if the marker is unreadable.
	Next int

	OutputExists bool
	OutputSize   int64

	// Locked is set while another job holds the directory.
	Locked bool
}

// Resumable reports whether a complete checkpoint pair exists.
func (s Status) Resumable() bool {
	return s.PartialExists && s.ProgressExists && s.Next >= 0
}

// Inspect reports the artifacts in dir without taking ownership of it.
func Inspect(dir string, names Names) (Status, error) {
	names = names.withDefaults()
	st := Status{Dir: dir}

	if fi, err := os.Stat(filepath.Join(dir, names.Partial)); err == nil {
		st.PartialExists = true
		st.PartialSize = fi.Size()
		if samples := (fi.Size() - wavHeaderSize) / int64(audio.Format.Width()); samples > 0 {
			st.PartialDuration = audio.Duration(int(samples))
		}
	}

	if data, err := os.ReadFile(filepath.Join(dir, names.Progress)); err == nil {
		st.ProgressExists = true
		if n, err := parseMarker(data); err == nil {
			st.Next = n
		} else {
			st.Next = -1
		}
	}

	if fi, err := os.Stat(filepath.Join(dir, names.Output)); err == nil {
		st.OutputExists = true
		st.OutputSize = fi.Size()
	}

	lockPath := filepath.Join(dir, names.Lock)
	if _, err := os.Stat(lockPath); err == nil {
		lock := flock.New(lockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return st, err
		}
		if ok {
			_ = lock.Unlock()
		} else {
			st.Locked = true
		}
	}

	return st, nil
}
