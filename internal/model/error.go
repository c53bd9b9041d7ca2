package model

import (
	"errors"
	"fmt"
)

// Error definitions for the model package.
var (
	ErrAlreadyStored     = errors.New("model handle already stored")
	ErrNilHandle         = errors.New("model handle is nil")
	ErrInvalidTransition = errors.New("invalid registry status transition")
)

// LoadErrorKind classifies a failed load.
type LoadErrorKind string

const (
	// KindCheckpointMissing means the checkpoint directory or a required file is absent.
	KindCheckpointMissing LoadErrorKind = "checkpoint_missing"

	// KindCheckpointCorrupt means a checkpoint file exists but cannot be deserialized.
	KindCheckpointCorrupt LoadErrorKind = "checkpoint_corrupt"

	// KindIncompatibleArchitecture means the loaded model is not the expected architecture.
	KindIncompatibleArchitecture LoadErrorKind = "incompatible_architecture"

	// KindBackend means the runtime could not be started or never became ready.
	KindBackend LoadErrorKind = "backend"
)

// LoadError is returned when the model cannot be loaded. It is fatal to startup.
type LoadError struct {
	Err  error
	Kind LoadErrorKind
	Path string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("model load failed (%s) at %s: %v", e.Kind, e.Path, e.Err)
	}

	return fmt.Sprintf("model load failed (%s): %v", e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func loadError(kind LoadErrorKind, path string, err error) *LoadError {
	return &LoadError{Kind: kind, Path: path, Err: err}
}
