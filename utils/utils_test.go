package utils

import (
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
)

func TestExpandPath(t *testing.T) {
	home, err := homedir.Dir()
	if err != nil {
		t.Skip("no home directory")
	}
	t.Setenv("SRTAUDIO_TEST_DIR", "/tmp/subs")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/abs/talk.srt", "/abs/talk.srt"},
		{"~/talk.srt", filepath.Join(home, "talk.srt")},
		{"$SRTAUDIO_TEST_DIR/talk.srt", "/tmp/subs/talk.srt"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ExpandPath(tt.in); got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsSubtitleFile(t *testing.T) {
	for path, want := range map[string]bool{
		"talk.srt":      true,
		"TALK.SRT":      true,
		"output.wav":    false,
		"dir/notes.txt": false,
		"no-extension":  false,
	} {
		if got := IsSubtitleFile(path); got != want {
			t.Errorf("IsSubtitleFile(%q) = %v, want %v", path, got, want)
		}
	}
}
