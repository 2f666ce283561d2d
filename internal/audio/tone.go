package audio

import (
	"math"
	"time"
)

// ChimeKind selects one of the synthesized interaction cues.
type ChimeKind int

const (
	// ChimeSave is a single high ping played when an exchange is
	// committed to memory.
	ChimeSave ChimeKind = iota
	// ChimeRitual is a two-note chime (C5 then G5, overlapping) played
	// when the daily ritual arrives.
	ChimeRitual
)

const (
	chimeGain   = 0.3
	chimeAttack = 10 * time.Millisecond
)

// synthChime renders the full sample buffer for a chime at SampleRate,
// mono.
func synthChime(kind ChimeKind) []float32 {
	switch kind {
	case ChimeRitual:
		first := synthTone(523.25, 200*time.Millisecond)
		second := synthTone(783.99, 200*time.Millisecond)
		return mixAt(first, second, samplesFor(100*time.Millisecond))
	default:
		return synthTone(880, 150*time.Millisecond)
	}
}

// synthTone renders a sine tone with the interaction-cue envelope:
// linear ramp 0 -> chimeGain over the first 10 ms, then a linear decay
// back to 0 across the remainder of the tone.
func synthTone(freq float64, duration time.Duration) []float32 {
	n := samplesFor(duration)
	attack := samplesFor(chimeAttack)
	if attack > n {
		attack = n
	}

	out := make([]float32, n)
	step := 2 * math.Pi * freq / SampleRate
	for i := range out {
		var gain float64
		if i < attack {
			gain = chimeGain * float64(i) / float64(attack)
		} else {
			gain = chimeGain * float64(n-i) / float64(n-attack)
		}
		out[i] = float32(gain * math.Sin(step*float64(i)))
	}
	return out
}

// mixAt sums b into a starting at the given sample offset, growing the
// result as needed.
func mixAt(a, b []float32, offset int) []float32 {
	total := offset + len(b)
	if len(a) > total {
		total = len(a)
	}
	out := make([]float32, total)
	copy(out, a)
	for i, v := range b {
		out[offset+i] += v
	}
	return out
}

func samplesFor(d time.Duration) int {
	return int(float64(SampleRate) * d.Seconds())
}
