package audio

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
)

// Timeline is the growing output track. Samples are quantized to the
// 16-bit Format on append, so an encoded timeline decodes to exactly the
// same samples.
type Timeline struct {
	buf *beep.Buffer
}

// Placement describes how a clip was laid onto the timeline.
type Placement struct {
	// Start is where the clip begins.
	Start time.Duration
	// Gap is the silence inserted before the clip.
	Gap time.Duration
	// Drift is how far past the cue start the clip had to begin.
	Drift time.Duration
	// Factor is the compression applied, 1 when the clip fit.
	Factor float64
	// Duration is the length of the appended clip.
	Duration time.Duration
}

// Compressed reports whether the clip was shortened to fit.
func (p Placement) Compressed() bool {
	return p.Factor > 1
}

// NewTimeline returns an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{buf: beep.NewBuffer(Format)}
}

// Len returns the number of samples.
func (t *Timeline) Len() int {
	return t.buf.Len()
}

// Duration returns the playing time.
func (t *Timeline) Duration() time.Duration {
	return Duration(t.buf.Len())
}

// LengthMS returns the playing time in whole milliseconds.
func (t *Timeline) LengthMS() int64 {
	return t.Duration().Milliseconds()
}

// AppendSilence appends d of silence.
func (t *Timeline) AppendSilence(d time.Duration) {
	if n := Samples(d); n > 0 {
		t.buf.Append(beep.Silence(n))
	}
}

// Append appends the clip unchanged.
func (t *Timeline) Append(c *Clip) {
	if c.Len() > 0 {
		t.buf.Append(c.Streamer())
	}
}

// Place appends the clip for a cue spanning [start, end). Silence fills
// the gap up to start; a clip longer than the cue window is compressed
// to the window. The timeline never shrinks.
func (t *Timeline) Place(c *Clip, start, end time.Duration) Placement {
	p := Placement{Factor: 1}

	if target := Samples(start); target > t.Len() {
		gap := target - t.Len()
		t.buf.Append(beep.Silence(gap))
		p.Gap = Duration(gap)
	} else if target < t.Len() {
		p.Drift = Duration(t.Len() - target)
	}
	p.Start = t.Duration()

	window := end - start
	if d := c.Duration(); window > 0 && d > window {
		p.Factor = float64(d) / float64(window)
		c = c.Compress(p.Factor)
	}

	t.Append(c)
	p.Duration = c.Duration()
	return p
}

// Streamer returns a stream over the whole timeline.
func (t *Timeline) Streamer() beep.StreamSeeker {
	return t.buf.Streamer(0, t.buf.Len())
}

// Encode writes the timeline as a WAV file.
func (t *Timeline) Encode(w io.WriteSeeker) error {
	if err := wav.Encode(w, t.Streamer(), Format); err != nil {
		return fmt.Errorf("unable to encode timeline: %w", err)
	}
	return nil
}

// wavHeaderSize is the canonical header written by Encode.
const wavHeaderSize = 44

// DecodeTimeline reads a WAV file written by Encode. Truncated data is
// reported as ErrDecode.
func DecodeTimeline(data []byte) (*Timeline, error) {
	s, format, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer s.Close() //nolint:errcheck

	if format != Format {
		return nil, fmt.Errorf("%w: got %d Hz, %d channels, %d bytes", ErrFormatMismatch,
			format.SampleRate, format.NumChannels, format.Precision)
	}
	if want := wavHeaderSize + s.Len()*format.Width(); len(data) < want {
		return nil, fmt.Errorf("%w: truncated data, have %d bytes, want %d", ErrDecode, len(data), want)
	}

	t := NewTimeline()
	t.buf.Append(beep.Take(s.Len(), s))
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return t, nil
}
