package subtitle

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Cue is a single subtitle entry.
type Cue struct {
	// Index is the sequence number as written in the file.
	Index int

	// Start and End are offsets from the beginning of the media.
	Start time.Duration
	End   time.Duration

	// Text is the raw cue text, lines separated by "\n".
	Text string
}

var (
	htmlTagPattern     = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	assOverridePattern = regexp.MustCompile(`\{\\[^}]*\}`)
)

// Window returns the nominal duration of the cue. It is zero or negative for
// malformed cues.
func (c Cue) Window() time.Duration {
	return c.End - c.Start
}

// StartMS returns the start offset in milliseconds.
func (c Cue) StartMS() int64 {
	return c.Start.Milliseconds()
}

// EndMS returns the end offset in milliseconds.
func (c Cue) EndMS() int64 {
	return c.End.Milliseconds()
}

// WindowMS returns the nominal duration in milliseconds.
func (c Cue) WindowMS() int64 {
	return c.EndMS() - c.StartMS()
}

// SpokenText returns the text that should be read aloud: lines joined with a
// single space, formatting tags removed and the result NFC-normalized.
func (c Cue) SpokenText() string {
	text := strings.ReplaceAll(c.Text, "\n", " ")
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = assOverridePattern.ReplaceAllString(text, "")
	text = strings.Join(strings.Fields(text), " ")
	return norm.NFC.String(text)
}
