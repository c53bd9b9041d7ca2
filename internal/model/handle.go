package model

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ekisa-team/chatterbox-serve/internal/audio"
	"github.com/ekisa-team/chatterbox-serve/internal/backend"
	"github.com/ekisa-team/chatterbox-serve/internal/device"
)

// Handle is the loaded model. It is created once and never mutated.
type Handle struct {
	LoadedAt      time.Time
	generator     backend.Model
	ID            string
	Provider      backend.BackendProvider
	CheckpointDir string
	Architecture  string
	Device        device.Device
	Placement     backend.Placement
	Precision     backend.Precision
	SampleRate    int
}

// NewHandle wraps a loaded backend model.
func NewHandle(provider backend.BackendProvider, m backend.Model, opts *backend.LoadOptions) *Handle {
	info := m.Info()

	return &Handle{
		ID:            uuid.NewString(),
		Provider:      provider,
		CheckpointDir: opts.CheckpointDir,
		Architecture:  info.Architecture,
		Device:        opts.Device,
		Placement:     opts.Placement,
		Precision:     opts.Precision,
		SampleRate:    info.SampleRate,
		LoadedAt:      time.Now(),
		generator:     m,
	}
}

// Generate runs the model. Callers must serialize calls.
func (h *Handle) Generate(ctx context.Context, text string, guidanceWeight float64) (*audio.Tensor, error) {
	return h.generator.Generate(ctx, text, guidanceWeight)
}
