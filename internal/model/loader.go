package model

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ekisa-team/chatterbox-serve/internal/backend"
	"github.com/ekisa-team/chatterbox-serve/internal/device"
)

// PlacementFor returns the tensor placement policy for a device.
// Checkpoints serialized on an accelerator must be coerced to host memory on HostCPU.
func PlacementFor(d device.Device) backend.Placement {
	if d == device.HostCPU {
		return backend.PlacementHost
	}

	return backend.PlacementAsDeclared
}

// PrecisionFor returns the numeric precision for a device.
func PrecisionFor(d device.Device) backend.Precision {
	if d == device.Accelerator {
		return backend.PrecisionHalf
	}

	return backend.PrecisionFull
}

// Loader turns a checkpoint directory into a Handle.
type Loader struct {
	backend       backend.Backend
	architecture  string
	requiredFiles []string
}

// NewLoader creates a loader that expects architecture and the given checkpoint files.
func NewLoader(b backend.Backend, architecture string, requiredFiles []string) *Loader {
	return &Loader{
		backend:       b,
		architecture:  architecture,
		requiredFiles: requiredFiles,
	}
}

// Load verifies the checkpoint and loads it onto d. Every error is a *LoadError.
func (l *Loader) Load(ctx context.Context, d device.Device, checkpointDir string) (*Handle, error) {
	if err := VerifyCheckpoint(checkpointDir, l.requiredFiles); err != nil {
		return nil, err
	}

	opts := &backend.LoadOptions{
		CheckpointDir: checkpointDir,
		Device:        d,
		Placement:     PlacementFor(d),
		Precision:     PrecisionFor(d),
	}

	slog.Info("Loading model",
		"provider", l.backend.Provider(),
		"checkpoint", checkpointDir,
		"device", d,
		"placement", opts.Placement,
		"precision", opts.Precision)

	start := time.Now()
	m, err := l.backend.Load(ctx, opts)
	if err != nil {
		return nil, loadError(KindBackend, checkpointDir, err)
	}

	info := m.Info()
	if info.Architecture != l.architecture {
		l.closeBackend()
		return nil, loadError(KindIncompatibleArchitecture, checkpointDir,
			fmt.Errorf("expected %q, got %q", l.architecture, info.Architecture))
	}
	if info.SampleRate <= 0 {
		l.closeBackend()
		return nil, loadError(KindIncompatibleArchitecture, checkpointDir,
			fmt.Errorf("invalid sample rate %d", info.SampleRate))
	}

	h := NewHandle(l.backend.Provider(), m, opts)
	slog.Info("Model loaded", "device", h.Device, "sample_rate", h.SampleRate, "elapsed", time.Since(start).Round(time.Millisecond))

	return h, nil
}

func (l *Loader) closeBackend() {
	if err := l.backend.Close(); err != nil {
		slog.Warn("Failed to close backend", "provider", l.backend.Provider(), "error", err)
	}
}
