package tts

import (
	"fmt"
	"math"
	"unicode"
)

// WordsPerSecond is the assumed natural speaking rate.
const WordsPerSecond = 2.5

// CountWords counts maximal runs of letters, digits and underscores.
func CountWords(text string) int {
	words := 0
	inWord := false
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			if !inWord {
				words++
				inWord = true
			}
			continue
		}
		inWord = false
	}
	return words
}

// EstimateDuration returns the expected spoken length of text in
// milliseconds at WordsPerSecond.
func EstimateDuration(text string) float64 {
	return float64(CountWords(text)) / WordsPerSecond * 1000
}

// EstimateSpeed picks a speaking rate so text fits into durationMS.
//
// When the estimated length exceeds the window the rate is the ratio of the
// two, capped at maxSpeed. Shorter text and non-positive windows yield 1.0.
func EstimateSpeed(text string, durationMS int64, maxSpeed float64) (float64, error) {
	if math.IsNaN(maxSpeed) || maxSpeed < 1 {
		return 0, NewConfigError("max_speed", "must be a number of at least 1.0, got %v", maxSpeed)
	}
	if durationMS <= 0 {
		return 1.0, nil
	}

	estimated := EstimateDuration(text)
	if estimated <= float64(durationMS) {
		return 1.0, nil
	}
	return math.Min(maxSpeed, estimated/float64(durationMS)), nil
}

// ProsodyRate renders speed as an SSML percentage, e.g. 1.25 -> "125%".
func ProsodyRate(speed float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(speed*100)))
}

// WrapProsody wraps text in an SSML prosody element at the given speed.
func WrapProsody(text string, speed float64) string {
	return fmt.Sprintf("<speak><prosody rate='%s'>%s</prosody></speak>", ProsodyRate(speed), escapeSSML(text))
}

func escapeSSML(text string) string {
	out := make([]rune, 0, len(text))
	for _, r := range text {
		switch r {
		case '&':
			out = append(out, []rune("&amp;")...)
		case '<':
			out = append(out, []rune("&lt;")...)
		case '>':
			out = append(out, []rune("&gt;")...)
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
