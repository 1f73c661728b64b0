package audio

import (
	"errors"
	"time"

	"github.com/faiface/beep"
)

// SampleRate of every timeline.
const SampleRate beep.SampleRate = 44100

// Format is the timeline format: 44.1 kHz, mono, signed 16-bit.
var Format = beep.Format{
	SampleRate:  SampleRate,
	NumChannels: 1,
	Precision:   2,
}

var (
	// ErrDecode indicates synthesized audio could not be decoded.
	ErrDecode = errors.New("unable to decode audio")

	// ErrFormatMismatch indicates a stored timeline uses a different format.
	ErrFormatMismatch = errors.New("audio format mismatch")
)

// Samples converts d to a sample count at SampleRate.
func Samples(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return SampleRate.N(d)
}

// Duration converts a sample count to a duration at SampleRate.
func Duration(n int) time.Duration {
	return SampleRate.D(n)
}
