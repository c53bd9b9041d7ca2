package audio

import "errors"

// Error definitions for the audio package.
var (
	ErrEmptyAudio       = errors.New("audio tensor has no samples")
	ErrUnsupportedShape = errors.New("audio tensor has an unsupported shape")
)
