package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
)

// MockPlayer implements Output without an audio device. It consumes the
// stream through the same PCM encoding as Player.
type MockPlayer struct {
	// Speed scales simulated playback. Zero consumes the stream instantly.
	Speed float64

	// OnPlay is called with the encoded PCM once a stream is consumed.
	OnPlay func(pcm []byte)

	mu      sync.Mutex
	resume  chan struct{}
	state   atomic.Int32
	plays   atomic.Int64
	samples atomic.Int64
}

// NewMockPlayer returns a mock that plays instantly.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{}
}

// Play consumes s, honoring Pause and ctx.
func (mp *MockPlayer) Play(ctx context.Context, s beep.Streamer) error {
	if mp.State() == StateClosed {
		return ErrPlayerClosed
	}
	mp.state.Store(int32(StatePlaying))
	mp.plays.Add(1)
	defer mp.state.CompareAndSwap(int32(StatePlaying), int32(StateStopped))

	r := newPCMReader(s)
	var (
		pcm   []byte
		chunk = make([]byte, 4096)
	)
	for {
		if err := mp.waitIfPaused(ctx); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := r.Read(chunk)
		pcm = append(pcm, chunk[:n]...)
		mp.samples.Add(int64(n / 2))
		if mp.Speed > 0 && n > 0 {
			time.Sleep(time.Duration(float64(Duration(n/2)) / mp.Speed))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	if mp.OnPlay != nil {
		mp.OnPlay(pcm)
	}
	return nil
}

func (mp *MockPlayer) waitIfPaused(ctx context.Context) error {
	mp.mu.Lock()
	ch := mp.resume
	mp.mu.Unlock()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pause pauses the current playback.
func (mp *MockPlayer) Pause() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if s := mp.State(); s != StatePlaying {
		return fmt.Errorf("cannot pause: player is %s", s)
	}
	mp.resume = make(chan struct{})
	mp.state.Store(int32(StatePaused))
	return nil
}

// Resume resumes paused playback.
func (mp *MockPlayer) Resume() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if s := mp.State(); s != StatePaused {
		return fmt.Errorf("cannot resume: player is %s", s)
	}
	close(mp.resume)
	mp.resume = nil
	mp.state.Store(int32(StatePlaying))
	return nil
}

// State returns the current state.
func (mp *MockPlayer) State() PlayerState {
	return PlayerState(mp.state.Load())
}

// Close marks the player closed.
func (mp *MockPlayer) Close() error {
	mp.state.Store(int32(StateClosed))
	return nil
}

// Plays returns how many streams were started.
func (mp *MockPlayer) Plays() int64 {
	return mp.plays.Load()
}

// SamplesPlayed returns the total samples consumed.
func (mp *MockPlayer) SamplesPlayed() int64 {
	return mp.samples.Load()
}
