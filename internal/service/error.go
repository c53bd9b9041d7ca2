package service

import (
	"errors"
	"fmt"
)

// Error definitions for the service package.
var (
	ErrModelNotReady = errors.New("model not loaded")
	ErrTimeout       = errors.New("timed out waiting for the model")
)

// GenerationError is a failure raised by the model while generating.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
