package subtitle

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrParse is the sentinel matched by every *ParseError.
var ErrParse = errors.New("malformed subtitle")

// ParseError describes where and why the input does not follow the SubRip
// grammar.
type ParseError struct {
	Line int
	Msg  string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("subtitle: line %d: %s", e.Line, e.Msg)
}

// Is reports whether target is ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

const timingSeparator = "-->"

// ParseFile reads and parses the subtitle file at path.
func ParseFile(path string) ([]Cue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open subtitle file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	return Parse(f)
}

// Parse reads SubRip content from r. Blocks are an index line, a
// "start --> end" timing line and any number of text lines, separated by
// blank lines. Empty input yields no cues and no error.
func Parse(r io.Reader) ([]Cue, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read subtitles: %w", err)
	}

	content := strings.TrimPrefix(string(data), "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	lines := strings.Split(content, "\n")

	var cues []Cue
	i := 0
	for i < len(lines) {
		if strings.TrimSpace(lines[i]) == "" {
			i++
			continue
		}

		cue, next, err := parseBlock(lines, i)
		if err != nil {
			return nil, err
		}
		cues = append(cues, cue)
		i = next
	}

	return cues, nil
}

// parseBlock parses the block beginning at lines[start] and returns the index
// of the first line after it.
func parseBlock(lines []string, start int) (Cue, int, error) {
	indexLine := strings.TrimSpace(lines[start])
	index, err := strconv.Atoi(indexLine)
	if err != nil {
		return Cue{}, 0, &ParseError{Line: start + 1, Msg: fmt.Sprintf("expected cue index, got %q", indexLine)}
	}

	timingAt := start + 1
	if timingAt >= len(lines) || strings.TrimSpace(lines[timingAt]) == "" {
		return Cue{}, 0, &ParseError{Line: timingAt + 1, Msg: fmt.Sprintf("cue %d has no timing line", index)}
	}

	begin, end, err := parseTiming(lines[timingAt])
	if err != nil {
		return Cue{}, 0, &ParseError{Line: timingAt + 1, Msg: err.Error()}
	}

	var text []string
	i := timingAt + 1
	for ; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t")
		if strings.TrimSpace(line) == "" {
			break
		}
		text = append(text, line)
	}
	if len(text) == 0 {
		return Cue{}, 0, &ParseError{Line: timingAt + 1, Msg: fmt.Sprintf("cue %d has no text", index)}
	}

	return Cue{
		Index: index,
		Start: begin,
		End:   end,
		Text:  strings.Join(text, "\n"),
	}, i, nil
}

func parseTiming(line string) (time.Duration, time.Duration, error) {
	parts := strings.SplitN(line, timingSeparator, 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected %q in timing line %q", timingSeparator, strings.TrimSpace(line))
	}

	begin, err := ParseTimestamp(parts[0])
	if err != nil {
		return 0, 0, err
	}

	// Anything after the end timestamp (e.g. "X1:40 X2:600") is position data.
	endFields := strings.Fields(parts[1])
	if len(endFields) == 0 {
		return 0, 0, fmt.Errorf("missing end timestamp in %q", strings.TrimSpace(line))
	}
	end, err := ParseTimestamp(endFields[0])
	if err != nil {
		return 0, 0, err
	}

	return begin, end, nil
}

// maxHours keeps a timestamp within time.Duration.
const maxHours = int(math.MaxInt64/int64(time.Hour)) - 1

// ParseTimestamp parses "HH:MM:SS,mmm". A period is accepted in place of the
// comma and the hour field may have any number of digits.
func ParseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("empty timestamp")
	}

	value = strings.ReplaceAll(value, ".", ",")
	clock, fraction, ok := strings.Cut(value, ",")
	if !ok {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(clock, ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}

	fields := []string{hms[0], hms[1], hms[2], fraction}
	nums := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 || f == "" {
			return 0, fmt.Errorf("invalid timestamp %q", value)
		}
		nums[i] = n
	}
	if nums[0] > maxHours || nums[1] > 59 || nums[2] > 59 || nums[3] > 999 {
		return 0, fmt.Errorf("timestamp out of range %q", value)
	}

	return time.Duration(nums[0])*time.Hour +
		time.Duration(nums[1])*time.Minute +
		time.Duration(nums[2])*time.Second +
		time.Duration(nums[3])*time.Millisecond, nil
}

// FormatTimestamp renders d in SubRip notation.
func FormatTimestamp(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%s%02d:%02d:%02d,%03d", sign, h, m, s, ms)
}
