package engines

import (
	"context"
	"time"

	"github.com/dgnsrekt/srtaudio/internal/tts"
	"golang.org/x/time/rate"
)

// RateLimited spaces out calls to an online backend to avoid being blocked.
type RateLimited struct {
	tts.Synthesizer
	limiter *rate.Limiter
}

// NewRateLimited allows perMinute calls per minute with a burst of one.
func NewRateLimited(s tts.Synthesizer, perMinute int) *RateLimited {
	if perMinute <= 0 {
		perMinute = 50
	}
	return &RateLimited{
		Synthesizer: s,
		limiter:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

// Synthesize waits for a token, then calls the wrapped backend.
func (r *RateLimited) Synthesize(ctx context.Context, req tts.Request) (*tts.Clip, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, tts.NewBackendError(r.Name(), "rate limit wait cancelled", err)
	}
	return r.Synthesizer.Synthesize(ctx, req)
}

var _ tts.Synthesizer = (*RateLimited)(nil)
