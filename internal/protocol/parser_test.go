package protocol

import "testing"

func TestParseResponseStructured(t *testing.T) {
	content := "Tone: Hopeful\n\nTheme: Renewal\n\nReflection: Small lights gather.\n\nAction: Write one sentence of gratitude.\n\nMemory: Save"

	p := ParseResponse(content)

	if !p.HasTone || p.Tone != "Hopeful" {
		t.Errorf("tone: got %q (present=%v), want Hopeful", p.Tone, p.HasTone)
	}
	if !p.HasTheme || p.Theme != "Renewal" {
		t.Errorf("theme: got %q (present=%v), want Renewal", p.Theme, p.HasTheme)
	}
	if !p.HasReflection || p.Reflection != "Small lights gather." {
		t.Errorf("reflection: got %q, want %q", p.Reflection, "Small lights gather.")
	}
	if !p.HasAction || p.Action != "Write one sentence of gratitude." {
		t.Errorf("action: got %q, want %q", p.Action, "Write one sentence of gratitude.")
	}
	if p.Memory != Save {
		t.Errorf("memory: got %v, want Save", p.Memory)
	}
	if p.Raw != content {
		t.Errorf("raw not preserved")
	}
}

func TestParseResponseFallback(t *testing.T) {
	// Anything not starting with "Tone:" is an unstructured reflection.
	inputs := []string{
		"The tide answers questions you haven't asked yet.",
		"tone: lowercase label does not count\nReflection: x",
		"  \n\nIn the quiet space between thoughts, what waits?",
	}

	for _, in := range inputs {
		p := ParseResponse(in)
		if p.Reflection != in {
			t.Errorf("input %q: reflection should be the full text, got %q", in, p.Reflection)
		}
		if !p.HasReflection || !p.HasAction || p.Action != "" {
			t.Errorf("input %q: fallback should carry reflection and an empty action", in)
		}
		if p.Memory != NoSave {
			t.Errorf("input %q: memory should be NoSave", in)
		}
		if p.HasTone || p.HasTheme {
			t.Errorf("input %q: tone/theme should be absent", in)
		}
	}
}

func TestParseResponseLeadingWhitespace(t *testing.T) {
	// The prefix check runs on trimmed text, so indentation is fine.
	p := ParseResponse("  \nTone: Pensive\nReflection: Still water.\nAction: Pause.\nMemory: No Save")
	if !p.HasTone || p.Tone != "Pensive" {
		t.Errorf("tone: got %q, want Pensive", p.Tone)
	}
	if p.Memory != NoSave {
		t.Errorf("memory: got %v, want NoSave", p.Memory)
	}
}

func TestParseResponseMemoryVariants(t *testing.T) {
	tests := []struct {
		line string
		want MemorySuggestion
	}{
		{"Memory: Save", Save},
		{"Memory: save", Save},
		{"Memory: SAVE", Save},
		{"Memory:   save  ", Save},
		{"Memory: No Save", NoSave},
		{"Memory: save now", NoSave},
		{"Memory:", NoSave},
		{"", NoSave}, // absent line
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			content := "Tone: Calm\nReflection: R.\nAction: A."
			if tt.line != "" {
				content += "\n" + tt.line
			}
			if got := ParseResponse(content).Memory; got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseResponseUnknownKeysIgnored(t *testing.T) {
	p := ParseResponse("Tone: Calm\nAura: Violet\nReflection: R.\nAction: A.\nMemory: Save")
	if !p.HasTone || !p.HasReflection || !p.HasAction || p.Memory != Save {
		t.Errorf("known fields should survive unknown neighbours: %+v", p)
	}
}

func TestParseResponseLastWriteWins(t *testing.T) {
	p := ParseResponse("Tone: First\nTone: Second\nReflection: R.")
	if p.Tone != "Second" {
		t.Errorf("tone: got %q, want Second", p.Tone)
	}
}

func TestParseResponseColonsInValue(t *testing.T) {
	p := ParseResponse("Tone: Calm\nReflection: Note: breathe in, then out.\nAction: A.")
	if p.Reflection != "Note: breathe in, then out." {
		t.Errorf("reflection: got %q", p.Reflection)
	}
}

func TestParseResponseOmittedVsEmpty(t *testing.T) {
	p := ParseResponse("Tone: Calm\nTheme:\nReflection: R.\nAction: A.")
	if !p.HasTheme || p.Theme != "" {
		t.Errorf("theme present-but-empty should be distinguishable, got present=%v value=%q", p.HasTheme, p.Theme)
	}
	p = ParseResponse("Tone: Calm\nReflection: R.\nAction: A.")
	if p.HasTheme {
		t.Errorf("theme should be absent when no line is given")
	}
}

func TestParseRitual(t *testing.T) {
	content := "Intention: Today, I move like a river.\n\nVisualization: Picture a point of light expanding.\n\nResonance: Resonate with stillness."

	r := ParseRitual(content)

	if r.Intention != "Today, I move like a river." {
		t.Errorf("intention: got %q", r.Intention)
	}
	if r.Visualization != "Picture a point of light expanding." {
		t.Errorf("visualization: got %q", r.Visualization)
	}
	if r.Resonance != "Resonate with stillness." {
		t.Errorf("resonance: got %q", r.Resonance)
	}
}

func TestTone(t *testing.T) {
	if tone, ok := Tone("Tone: Joyful\nReflection: R."); !ok || tone != "Joyful" {
		t.Errorf("got %q/%v, want Joyful/true", tone, ok)
	}
	if _, ok := Tone("a plain spark message"); ok {
		t.Errorf("unstructured text should carry no tone")
	}
}

func TestSpeakable(t *testing.T) {
	p := ParseResponse("Tone: Hopeful\nReflection: Small lights gather.\nAction: Write one sentence.\nMemory: Save")
	want := "Hopeful. Small lights gather.. Write one sentence."
	if got := p.Speakable(); got != want {
		t.Errorf("speakable: got %q, want %q", got, want)
	}

	r := Ritual{Intention: "I", Visualization: "V", Resonance: "R"}
	if got := r.Speakable(); got != "Today's Ritual. I. V. R" {
		t.Errorf("ritual speakable: got %q", got)
	}
}
