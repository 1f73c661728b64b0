package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"

	"github.com/dgnsrekt/srtaudio/internal/tts"
)

// resampleQuality is passed to beep.Resample.
const resampleQuality = 4

// Clip is decoded mono speech at SampleRate, ready to be placed on a
// timeline.
type Clip struct {
	Samples []float64
}

// Len returns the number of samples.
func (c *Clip) Len() int {
	return len(c.Samples)
}

// Duration returns the playing time of the clip.
func (c *Clip) Duration() time.Duration {
	return Duration(len(c.Samples))
}

// Streamer returns a seekable stream over the clip.
func (c *Clip) Streamer() beep.StreamSeeker {
	return &monoStreamer{samples: c.Samples}
}

// Decode converts backend output into a Clip at the timeline format,
// downmixing to mono and resampling as needed.
func Decode(clip *tts.Clip) (*Clip, error) {
	if clip == nil {
		return nil, fmt.Errorf("%w: no audio", ErrDecode)
	}

	var (
		s      beep.Streamer
		format beep.Format
	)

	switch clip.Format {
	case tts.FormatMP3:
		ss, f, err := mp3.Decode(io.NopCloser(bytes.NewReader(clip.Audio)))
		if err != nil {
			return nil, fmt.Errorf("%w: mp3: %v", ErrDecode, err)
		}
		defer ss.Close() //nolint:errcheck
		s, format = ss, f

	case tts.FormatWAV:
		ss, f, err := wav.Decode(bytes.NewReader(clip.Audio))
		if err != nil {
			return nil, fmt.Errorf("%w: wav: %v", ErrDecode, err)
		}
		defer ss.Close() //nolint:errcheck
		s, format = ss, f

	case tts.FormatPCM:
		c, err := decodePCM(clip)
		if err != nil {
			return nil, err
		}
		s = c.Streamer()
		format = beep.Format{SampleRate: beep.SampleRate(clip.SampleRate), NumChannels: 1, Precision: 2}

	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrDecode, clip.Format)
	}

	if format.SampleRate != SampleRate {
		s = beep.Resample(resampleQuality, format.SampleRate, SampleRate, s)
	}

	samples, err := drain(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &Clip{Samples: samples}, nil
}

// decodePCM reads headerless signed 16-bit little-endian samples.
func decodePCM(clip *tts.Clip) (*Clip, error) {
	channels := clip.Channels
	if channels <= 0 {
		channels = 1
	}
	if clip.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: pcm without sample rate", ErrDecode)
	}

	frame := 2 * channels
	n := len(clip.Audio) / frame
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			v := int16(binary.LittleEndian.Uint16(clip.Audio[i*frame+ch*2:]))
			sum += float64(v) / math.MaxInt16
		}
		samples[i] = sum / float64(channels)
	}
	return &Clip{Samples: samples}, nil
}

// drain reads s to the end, averaging both channels.
func drain(s beep.Streamer) ([]float64, error) {
	var (
		out []float64
		buf [512][2]float64
	)
	for {
		n, ok := s.Stream(buf[:])
		for i := 0; i < n; i++ {
			out = append(out, (buf[i][0]+buf[i][1])/2)
		}
		if !ok {
			break
		}
	}
	return out, s.Err()
}

// monoStreamer plays a slice of mono samples on both channels.
type monoStreamer struct {
	samples []float64
	pos     int
}

func (m *monoStreamer) Stream(samples [][2]float64) (int, bool) {
	if m.pos >= len(m.samples) {
		return 0, false
	}
	n := copy2(samples, m.samples[m.pos:])
	m.pos += n
	return n, true
}

func (m *monoStreamer) Err() error    { return nil }
func (m *monoStreamer) Len() int      { return len(m.samples) }
func (m *monoStreamer) Position() int { return m.pos }

func (m *monoStreamer) Seek(p int) error {
	if p < 0 || p > len(m.samples) {
		return fmt.Errorf("seek position %d out of range [0, %d]", p, len(m.samples))
	}
	m.pos = p
	return nil
}

func copy2(dst [][2]float64, src []float64) int {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i][0] = src[i]
		dst[i][1] = src[i]
	}
	return n
}
