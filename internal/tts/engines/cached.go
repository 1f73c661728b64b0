package engines

import (
	"bytes"
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/srtaudio/internal/cache"
	"github.com/dgnsrekt/srtaudio/internal/tts"
)

// Cached serves repeated requests from a cache.Manager so a resumed job
// does not pay for speech it already received.
type Cached struct {
	tts.Synthesizer
	cache *cache.Manager
}

// NewCached wraps s with store.
func NewCached(s tts.Synthesizer, store *cache.Manager) *Cached {
	return &Cached{Synthesizer: s, cache: store}
}

// Synthesize implements tts.Synthesizer.
func (c *Cached) Synthesize(ctx context.Context, req tts.Request) (*tts.Clip, error) {
	key := cache.GenerateCacheKey(c.Name(), req.Text, req.Speed)

	if data, ok := c.cache.Get(key); ok {
		clip, err := decodeCachedClip(data)
		if err == nil {
			log.Debug("synthesis cache hit", "key", key)
			return clip, nil
		}
		log.Warn("discarding cached clip", "key", key, "error", err)
		c.cache.Delete(key)
	}

	clip, err := c.Synthesizer.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Put(key, encodeCachedClip(clip)); err != nil {
		// Non-fatal: the clip is still usable.
		log.Warn("unable to cache clip", "key", key, "error", err)
	}
	return clip, nil
}

// Close closes the wrapped backend and the cache.
func (c *Cached) Close() error {
	err := c.Synthesizer.Close()
	if cerr := c.cache.Close(); err == nil {
		err = cerr
	}
	return err
}

// Entries are a one-line header "format rate channels" followed by the
// encoded audio.
func encodeCachedClip(clip *tts.Clip) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %d %d\n", clip.Format, clip.SampleRate, clip.Channels)
	buf.Write(clip.Audio)
	return buf.Bytes()
}

func decodeCachedClip(data []byte) (*tts.Clip, error) {
	header, audio, ok := bytes.Cut(data, []byte("\n"))
	if !ok {
		return nil, cache.ErrCorrupted
	}

	clip := &tts.Clip{}
	var format string
	if _, err := fmt.Sscanf(string(header), "%s %d %d", &format, &clip.SampleRate, &clip.Channels); err != nil {
		return nil, fmt.Errorf("%w: %v", cache.ErrCorrupted, err)
	}
	clip.Format = tts.AudioFormat(format)
	if len(audio) == 0 {
		return nil, cache.ErrCorrupted
	}
	clip.Audio = audio
	return clip, nil
}

var _ tts.Synthesizer = (*Cached)(nil)
