package engines

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/srtaudio/internal/cache"
	"github.com/dgnsrekt/srtaudio/internal/tts"
	"github.com/dgnsrekt/srtaudio/internal/tts/engines/mock"
)

func TestCached(t *testing.T) {
	backend := mock.New(mock.Config{Duration: mock.FixedDuration(100 * time.Millisecond)})
	store, err := cache.NewManager(cache.DefaultConfig(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	cached := NewCached(backend, store)
	defer cached.Close()

	req := tts.Request{Text: "hello", Speed: 1.0}
	first, err := cached.Synthesize(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := cached.Synthesize(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if backend.Calls() != 1 {
		t.Errorf("backend called %d times, want 1", backend.Calls())
	}
	if !bytes.Equal(first.Audio, second.Audio) || second.SampleRate != mock.SampleRate || second.Format != tts.FormatPCM {
		t.Errorf("cached clip differs: %+v", second)
	}

	// A different speed is a different request.
	if _, err := cached.Synthesize(context.Background(), tts.Request{Text: "hello", Speed: 1.5}); err != nil {
		t.Fatal(err)
	}
	if backend.Calls() != 2 {
		t.Errorf("backend called %d times, want 2", backend.Calls())
	}
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	backend := mock.New(mock.Config{FailOn: mock.FailAtCall(1)})
	store, err := cache.NewManager(cache.Config{MemoryCapacity: 1 << 20})
	if err != nil {
		t.Fatal(err)
	}
	cached := NewCached(backend, store)

	req := tts.Request{Text: "hello", Speed: 1.0}
	if _, err := cached.Synthesize(context.Background(), req); !errors.Is(err, mock.ErrInjected) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	if _, err := cached.Synthesize(context.Background(), req); err != nil {
		t.Fatalf("second call should reach the backend: %v", err)
	}
	if backend.Calls() != 2 {
		t.Errorf("backend called %d times, want 2", backend.Calls())
	}
}

func TestCachedClipEncoding(t *testing.T) {
	clip := &tts.Clip{Audio: []byte("ID3\nwith newline"), Format: tts.FormatMP3}
	got, err := decodeCachedClip(encodeCachedClip(clip))
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Audio) != string(clip.Audio) || got.Format != tts.FormatMP3 {
		t.Errorf("decoded %+v", got)
	}

	for _, bad := range [][]byte{nil, []byte("no header"), []byte("mp3 x y\n"), []byte("mp3 0 0\n")} {
		if _, err := decodeCachedClip(bad); !errors.Is(err, cache.ErrCorrupted) {
			t.Errorf("decodeCachedClip(%q) error = %v", bad, err)
		}
	}
}
