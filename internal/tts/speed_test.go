package tts

import (
	"errors"
	"math"
	"testing"
)

func TestCountWords(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"hello", 1},
		{"hello, world!", 2},
		{"don't stop", 3},
		{"snake_case and 42", 3},
		{"  ...  ", 0},
		{"¿Qué tal? Très bien.", 4},
	}

	for _, tt := range tests {
		if got := CountWords(tt.text); got != tt.want {
			t.Errorf("CountWords(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestEstimateSpeed(t *testing.T) {
	tenWords := "one two three four five six seven eight nine ten"

	tests := []struct {
		name       string
		text       string
		durationMS int64
		maxSpeed   float64
		want       float64
	}{
		{"long text capped at max", tenWords, 2000, 2.0, 2.0},
		{"short text natural rate", "one two three", 5000, 2.0, 1.0},
		{"exact fit", tenWords, 4000, 2.0, 1.0},
		{"ratio below cap", tenWords, 3200, 2.0, 1.25},
		{"zero window", tenWords, 0, 2.0, 1.0},
		{"negative window", tenWords, -500, 2.0, 1.0},
		{"max speed one", tenWords, 1000, 1.0, 1.0},
		{"empty text", "", 1000, 3.0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EstimateSpeed(tt.text, tt.durationMS, tt.maxSpeed)
			if err != nil {
				t.Fatalf("EstimateSpeed() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("EstimateSpeed() = %v, want %v", got, tt.want)
			}
			if got < 1.0 || got > tt.maxSpeed {
				t.Errorf("speed %v outside [1, %v]", got, tt.maxSpeed)
			}
		})
	}
}

func TestEstimateSpeedInvalidMax(t *testing.T) {
	for _, max := range []float64{0.5, 0, -1, math.NaN()} {
		_, err := EstimateSpeed("hello", 1000, max)
		if !errors.Is(err, ErrConfig) {
			t.Errorf("EstimateSpeed(max=%v) error = %v, want ErrConfig", max, err)
		}
	}
}

func TestWrapProsody(t *testing.T) {
	tests := []struct {
		text  string
		speed float64
		want  string
	}{
		{"Hello", 1.25, "<speak><prosody rate='125%'>Hello</prosody></speak>"},
		{"Hi", 2.0, "<speak><prosody rate='200%'>Hi</prosody></speak>"},
		{"A & B", 1.337, "<speak><prosody rate='134%'>A &amp; B</prosody></speak>"},
	}

	for _, tt := range tests {
		if got := WrapProsody(tt.text, tt.speed); got != tt.want {
			t.Errorf("WrapProsody(%q, %v) = %q, want %q", tt.text, tt.speed, got, tt.want)
		}
	}
}
