package audio

import (
	"math"
	"testing"
	"time"
)

func TestSynthToneEnvelope(t *testing.T) {
	samples := synthTone(880, 150*time.Millisecond)

	wantLen := samplesFor(150 * time.Millisecond)
	if len(samples) != wantLen {
		t.Fatalf("expected %d samples, got %d", wantLen, len(samples))
	}

	if samples[0] != 0 {
		t.Errorf("tone should start silent, got %v", samples[0])
	}

	// Amplitude never exceeds the envelope ceiling.
	for i, s := range samples {
		if a := math.Abs(float64(s)); a > chimeGain+1e-6 {
			t.Fatalf("sample %d exceeds gain ceiling: %v", i, s)
		}
	}

	// The decay should leave the tail near silence.
	tail := samples[len(samples)-10:]
	for _, s := range tail {
		if math.Abs(float64(s)) > 0.01 {
			t.Errorf("tail sample should be near zero, got %v", s)
		}
	}
}

func TestSynthChimeLengths(t *testing.T) {
	save := synthChime(ChimeSave)
	if want := samplesFor(150 * time.Millisecond); len(save) != want {
		t.Errorf("save chime: got %d samples, want %d", len(save), want)
	}

	// The ritual chime is two 200 ms notes, the second offset by 100 ms:
	// 300 ms total.
	ritual := synthChime(ChimeRitual)
	if want := samplesFor(300 * time.Millisecond); len(ritual) != want {
		t.Errorf("ritual chime: got %d samples, want %d", len(ritual), want)
	}
}

func TestSynthChimeOverlap(t *testing.T) {
	ritual := synthChime(ChimeRitual)

	// In the overlap window both notes sound; outside it only one does.
	// Summed peaks in the overlap may exceed a single note's envelope.
	overlapStart := samplesFor(100 * time.Millisecond)
	overlapEnd := samplesFor(200 * time.Millisecond)

	var peakOverlap float64
	for _, s := range ritual[overlapStart:overlapEnd] {
		if a := math.Abs(float64(s)); a > peakOverlap {
			peakOverlap = a
		}
	}
	if peakOverlap <= chimeGain {
		t.Errorf("overlap region should sum both notes, peak=%v", peakOverlap)
	}

	// The chime must stay within the mixing headroom of two notes.
	for i, s := range ritual {
		if math.Abs(float64(s)) > 2*chimeGain {
			t.Fatalf("sample %d out of range: %v", i, s)
		}
	}
}

func TestMixAt(t *testing.T) {
	a := []float32{1, 1, 1}
	b := []float32{0.5, 0.5}

	out := mixAt(a, b, 2)
	want := []float32{1, 1, 1.5, 0.5}
	if len(out) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(out))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("sample %d: got %v, want %v", i, out[i], want[i])
		}
	}
}
