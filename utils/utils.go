// Package utils holds small helpers shared by the commands.
package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// ExpandPath expands tilde and all environment variables from the given
// path.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	s, err := homedir.Expand(path)
	if err == nil {
		return os.ExpandEnv(s)
	}
	return os.ExpandEnv(path)
}

// IsSubtitleFile reports whether path looks like an SRT file.
func IsSubtitleFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".srt")
}
