package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound = errors.New("not found")
	ErrNoAudio  = errors.New("no audio payload available")
)
