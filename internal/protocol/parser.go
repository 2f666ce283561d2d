// Package protocol decodes the structured text the backend produces:
// the five-field response form (Tone/Theme/Reflection/Action/Memory)
// and the three-field ritual form (Intention/Visualization/Resonance).
//
// The grammar is a set of tagged lines: "Key: value", one field per
// line, blank lines ignored. Unknown keys are skipped so the backend
// can grow new fields without breaking older clients, and a repeated
// key overwrites the earlier value. Decoding never fails; free-form
// text degrades to an unstructured reflection.
package protocol

import "strings"

// MemorySuggestion is the backend's hint about promoting an exchange
// to memory.
type MemorySuggestion int

const (
	// NoSave is the default for anything but an exact "save".
	NoSave MemorySuggestion = iota
	// Save means the Memory field carried the literal "Save".
	Save
)

// String returns the wire spelling of the suggestion.
func (m MemorySuggestion) String() string {
	if m == Save {
		return "Save"
	}
	return "No Save"
}

// ParsedResponse is the structured view of a model reply. It is derived
// on demand from a message's content and never persisted. The Has*
// booleans distinguish a field that was omitted from one present with
// an empty value.
type ParsedResponse struct {
	Tone          string
	Theme         string
	Reflection    string
	Action        string
	HasTone       bool
	HasTheme      bool
	HasReflection bool
	HasAction     bool
	Memory        MemorySuggestion
	Raw           string
}

// Ritual is the structured view of a daily ritual message.
type Ritual struct {
	Intention     string
	Visualization string
	Resonance     string
}

// ParseResponse decodes backend text into a ParsedResponse.
//
// Text that does not begin with the literal label "Tone:" is treated as
// an unstructured reflection — the fallback for search-grounded or
// free-text replies: the whole text becomes the reflection, the action
// is present but empty, and the memory suggestion is NoSave.
func ParseResponse(content string) ParsedResponse {
	resp := ParsedResponse{Raw: content}

	if !strings.HasPrefix(strings.TrimSpace(content), "Tone:") {
		resp.Reflection = content
		resp.HasReflection = true
		resp.HasAction = true
		return resp
	}

	for key, value := range scanFields(content) {
		switch key {
		case "tone":
			resp.Tone = value
			resp.HasTone = true
		case "theme":
			resp.Theme = value
			resp.HasTheme = true
		case "reflection":
			resp.Reflection = value
			resp.HasReflection = true
		case "action":
			resp.Action = value
			resp.HasAction = true
		case "memory":
			if strings.EqualFold(value, "save") {
				resp.Memory = Save
			} else {
				resp.Memory = NoSave
			}
		}
	}

	return resp
}

// ParseRitual decodes a daily ritual message. Ritual messages are
// always produced in the structured form, so there is no fallback
// branch; unrecognised lines are simply ignored.
func ParseRitual(content string) Ritual {
	var r Ritual
	for key, value := range scanFields(content) {
		switch key {
		case "intention":
			r.Intention = value
		case "visualization":
			r.Visualization = value
		case "resonance":
			r.Resonance = value
		}
	}
	return r
}

// Tone extracts just the tone field from structured content, or
// ("", false) when absent. Used by the read-model that derives the
// current resonance tone from the message log.
func Tone(content string) (string, bool) {
	p := ParseResponse(content)
	return p.Tone, p.HasTone
}

// scanFields splits content into non-empty lines and maps each
// recognisable "key: value" line to a lower-cased trimmed key and a
// trimmed value. Values keep any colons after the first. Later lines
// overwrite earlier ones for the same key (last write wins). Lines
// without a colon are skipped.
func scanFields(content string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(rest)
	}
	return fields
}

// Speakable builds the text-to-speech script for a structured response:
// the present, non-empty fields joined in reading order.
func (p ParsedResponse) Speakable() string {
	return joinParts(p.Tone, p.Theme, p.Reflection, p.Action)
}

// Speakable builds the text-to-speech script for a ritual.
func (r Ritual) Speakable() string {
	return "Today's Ritual. " + joinParts(r.Intention, r.Visualization, r.Resonance)
}

func joinParts(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ". ")
}
