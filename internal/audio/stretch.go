package audio

import (
	"math"
	"time"
)

// WSOLA parameters.
const (
	frameDuration     = 40 * time.Millisecond
	toleranceDuration = 5 * time.Millisecond

	// correlation is evaluated on every corrStride-th sample.
	corrStride = 4
)

// Compress shortens the clip by factor while keeping its pitch. The
// result has round(Len()/factor) samples. A factor of 1 or less returns
// an unchanged copy.
func (c *Clip) Compress(factor float64) *Clip {
	out := make([]float64, 0, len(c.Samples))
	if factor <= 1 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return &Clip{Samples: append(out, c.Samples...)}
	}

	target := int(math.Round(float64(len(c.Samples)) / factor))
	frame := Samples(frameDuration)
	if len(c.Samples) < 2*frame {
		return &Clip{Samples: linearResample(c.Samples, target)}
	}
	return &Clip{Samples: wsola(c.Samples, factor, target, frame, Samples(toleranceDuration))}
}

// wsola is waveform-similarity overlap-add with a Hann window and 50%
// overlap on the output side.
func wsola(x []float64, factor float64, target, frame, tolerance int) []float64 {
	hop := frame / 2
	window := hann(frame)

	at := func(i int) float64 {
		if i < 0 || i >= len(x) {
			return 0
		}
		return x[i]
	}

	out := make([]float64, target+frame)
	norm := make([]float64, target+frame)

	prev := 0
	for k := 0; k*hop < target; k++ {
		pos := 0
		if k > 0 {
			nominal := int(math.Round(float64(k*hop) * factor))
			natural := prev + hop
			pos = bestOffset(at, nominal, natural, tolerance, frame)
		}

		base := k * hop
		for i := 0; i < frame; i++ {
			out[base+i] += window[i] * at(pos+i)
			norm[base+i] += window[i]
		}
		prev = pos
	}

	out = out[:target]
	for i := range out {
		if norm[i] > 1e-6 {
			out[i] /= norm[i]
		}
	}
	return out
}

// bestOffset searches nominal±tolerance for the segment most similar to
// the natural continuation of the previous frame.
func bestOffset(at func(int) float64, nominal, natural, tolerance, frame int) int {
	best := nominal
	bestScore := math.Inf(-1)
	for d := -tolerance; d <= tolerance; d++ {
		cand := nominal + d
		if cand < 0 {
			continue
		}
		var score float64
		for i := 0; i < frame; i += corrStride {
			score += at(cand+i) * at(natural+i)
		}
		if score > bestScore {
			best, bestScore = cand, score
		}
	}
	return best
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
	}
	return w
}

// linearResample maps x onto n samples by linear interpolation. Used for
// clips too short to window.
func linearResample(x []float64, n int) []float64 {
	out := make([]float64, n)
	if n == 0 || len(x) == 0 {
		return out
	}
	if n == 1 || len(x) == 1 {
		out[0] = x[0]
		return out
	}
	step := float64(len(x)-1) / float64(n-1)
	for i := range out {
		p := float64(i) * step
		j := int(p)
		if j >= len(x)-1 {
			out[i] = x[len(x)-1]
			continue
		}
		f := p - float64(j)
		out[i] = x[j]*(1-f) + x[j+1]*f
	}
	return out
}
