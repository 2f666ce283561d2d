package domain

import "context"

// Responder produces a model reply for the user's input, given the
// conversation history and the promoted memory/writings context.
// Implementations can be API-backed or canned (for tests).
type Responder interface {
	Respond(ctx context.Context, input string, history, memory []Message, writings string, useSearch bool) (text string, sources []Source, err error)
}

// SpeechSynthesizer turns text into a base64-encoded raw PCM payload
// (signed 16-bit little-endian, 24 kHz, mono). An empty payload with a
// nil error means the backend produced no audio for this text.
type SpeechSynthesizer interface {
	Speech(ctx context.Context, text string) (base64PCM string, err error)
}

// ImageGenerator renders a mandala image for a reflection and pairs it
// with a short inspiring thought.
type ImageGenerator interface {
	Mandala(ctx context.Context, reflection string) (jpeg []byte, thought string, err error)
}
