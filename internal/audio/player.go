package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/faiface/beep"
)

// PlayerState represents the current state of a player.
type PlayerState int32

const (
	StateStopped PlayerState = iota
	StatePlaying
	StatePaused
	StateClosed
)

func (s PlayerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrPlayerClosed is returned when playing on a closed player.
var ErrPlayerClosed = errors.New("player is closed")

// Output plays timeline audio. Play blocks until the stream ends or ctx
// is canceled.
type Output interface {
	Play(ctx context.Context, s beep.Streamer) error
	Pause() error
	Resume() error
	State() PlayerState
	Close() error
}

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	BufferSize time.Duration
	Volume     float64
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		BufferSize: 100 * time.Millisecond,
		Volume:     1.0,
	}
}

// Player plays timelines on the system audio device using oto. Only one
// Player may exist per process.
type Player struct {
	context *oto.Context
	volume  float64

	mu     sync.Mutex
	player *oto.Player
	state  atomic.Int32
}

// pollInterval is how often Play checks for the end of playback.
const pollInterval = 20 * time.Millisecond

// NewPlayer opens the audio device at the timeline format.
func NewPlayer(cfg PlayerConfig) (*Player, error) {
	if cfg.Volume < 0 || cfg.Volume > 1 {
		return nil, fmt.Errorf("volume must be between 0.0 and 1.0, got %f", cfg.Volume)
	}

	op := &oto.NewContextOptions{
		SampleRate:   int(Format.SampleRate),
		ChannelCount: Format.NumChannels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   cfg.BufferSize,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	p := &Player{context: ctx, volume: cfg.Volume}
	p.state.Store(int32(StateStopped))
	return p, nil
}

// Play streams s to the device and blocks until it has been heard.
func (p *Player) Play(ctx context.Context, s beep.Streamer) error {
	p.mu.Lock()
	if p.State() == StateClosed {
		p.mu.Unlock()
		return ErrPlayerClosed
	}
	if p.player != nil {
		p.player.Pause()
		_ = p.player.Close()
	}
	player := p.context.NewPlayer(newPCMReader(s))
	player.SetVolume(p.volume)
	player.Play()
	p.player = player
	p.state.Store(int32(StatePlaying))
	p.mu.Unlock()

	defer p.stop(player)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			switch p.State() {
			case StatePaused:
				continue
			case StateStopped, StateClosed:
				return nil
			}
			if !player.IsPlaying() {
				return player.Err()
			}
		}
	}
}

func (p *Player) stop(player *oto.Player) {
	p.mu.Lock()
	defer p.mu.Unlock()

	player.Pause()
	_ = player.Close()
	if p.player == player {
		p.player = nil
		if p.State() != StateClosed {
			p.state.Store(int32(StateStopped))
		}
	}
}

// Pause pauses the current playback.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s := p.State(); s != StatePlaying {
		return fmt.Errorf("cannot pause: player is %s", s)
	}
	p.player.Pause()
	p.state.Store(int32(StatePaused))
	return nil
}

// Resume resumes paused playback.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s := p.State(); s != StatePaused {
		return fmt.Errorf("cannot resume: player is %s", s)
	}
	p.player.Play()
	p.state.Store(int32(StatePlaying))
	return nil
}

// State returns the current state.
func (p *Player) State() PlayerState {
	return PlayerState(p.state.Load())
}

// Close stops playback. The oto context itself lives for the process.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player != nil {
		p.player.Pause()
		_ = p.player.Close()
		p.player = nil
	}
	p.state.Store(int32(StateClosed))
	return nil
}

// pcmReader encodes a beep stream as mono signed 16-bit little-endian
// bytes.
type pcmReader struct {
	s       beep.Streamer
	samples [512][2]float64
	pending []byte
	done    bool
}

func newPCMReader(s beep.Streamer) *pcmReader {
	return &pcmReader{s: s}
}

func (r *pcmReader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		if r.done {
			if err := r.s.Err(); err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		n, ok := r.s.Stream(r.samples[:])
		if !ok {
			r.done = true
		}
		buf := make([]byte, 0, n*2)
		for i := 0; i < n; i++ {
			v := int16(math.Round(clamp(r.samples[i][0]) * math.MaxInt16))
			buf = append(buf, byte(v), byte(v>>8))
		}
		r.pending = buf
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
