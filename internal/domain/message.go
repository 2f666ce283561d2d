// Package domain holds the core types shared across layers: messages,
// journal entries, and the ports the outer layers implement.
package domain

// Role constants for message authorship.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Source is a single web grounding reference attached to a model reply.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Message is one turn of the conversation. Content is immutable once
// created; only the image fields transition (absent -> generating ->
// populated, or back to absent on failure).
type Message struct {
	ID                string   `json:"id"`
	Role              string   `json:"role"`
	Content           string   `json:"content"`
	ImageURL          string   `json:"imageUrl,omitempty"`
	IsGeneratingImage bool     `json:"isGeneratingImage,omitempty"`
	IsRitual          bool     `json:"isRitual,omitempty"`
	MandalaThought    string   `json:"mandalaThought,omitempty"`
	Sources           []Source `json:"sources,omitempty"`
}

// JournalEntry is a durable distillation of a single exchange. Created
// only when the parsed model reply carries both a reflection and an
// action; immutable thereafter. ID equals the source message ID so a
// repeated commit can be detected and skipped.
type JournalEntry struct {
	ID         string `json:"id"`
	Date       string `json:"date"`
	Tone       string `json:"tone,omitempty"`
	Theme      string `json:"theme,omitempty"`
	Reflection string `json:"reflection"`
	Action     string `json:"action"`
}
