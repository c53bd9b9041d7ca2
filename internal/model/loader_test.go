package model

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/chatterbox-serve/internal/backend"
	"github.com/ekisa-team/chatterbox-serve/internal/device"
)

func TestPlacementAndPrecision(t *testing.T) {
	assert.Equal(t, backend.PlacementHost, PlacementFor(device.HostCPU))
	assert.Equal(t, backend.PlacementAsDeclared, PlacementFor(device.Accelerator))
	assert.Equal(t, backend.PrecisionFull, PrecisionFor(device.HostCPU))
	assert.Equal(t, backend.PrecisionHalf, PrecisionFor(device.Accelerator))
}

func TestLoader_Load(t *testing.T) {
	dir := writeCheckpoint(t, t.TempDir())

	tests := []struct {
		device    device.Device
		placement backend.Placement
		precision backend.Precision
	}{
		{device: device.HostCPU, placement: backend.PlacementHost, precision: backend.PrecisionFull},
		{device: device.Accelerator, placement: backend.PlacementAsDeclared, precision: backend.PrecisionHalf},
	}

	for _, tt := range tests {
		t.Run(tt.device.String(), func(t *testing.T) {
			b := &fakeBackend{info: backend.ModelInfo{Architecture: "chatterbox", SampleRate: 24000}}
			h, err := NewLoader(b, "chatterbox", testRequiredFiles).Load(context.Background(), tt.device, dir)
			require.NoError(t, err)

			assert.Equal(t, &backend.LoadOptions{
				CheckpointDir: dir,
				Device:        tt.device,
				Placement:     tt.placement,
				Precision:     tt.precision,
			}, b.lastOpts)

			assert.Equal(t, tt.device, h.Device)
			assert.Equal(t, tt.precision, h.Precision)
			assert.Equal(t, tt.placement, h.Placement)
			assert.Equal(t, 24000, h.SampleRate)
			assert.Equal(t, dir, h.CheckpointDir)
			assert.NotEmpty(t, h.ID)

			tensor, err := h.Generate(context.Background(), "abc", 0.5)
			require.NoError(t, err)
			assert.Equal(t, 3, tensor.Frames())
		})
	}
}

func TestLoader_Errors(t *testing.T) {
	arch := backend.ModelInfo{Architecture: "chatterbox", SampleRate: 24000}

	tests := []struct {
		name    string
		setup   func(t *testing.T, dir string)
		backend *fakeBackend
		kind    LoadErrorKind
		closed  int
	}{
		{
			name:    "directory missing",
			setup:   func(t *testing.T, dir string) { require.NoError(t, os.RemoveAll(dir)) },
			backend: &fakeBackend{info: arch},
			kind:    KindCheckpointMissing,
		},
		{
			name: "file missing",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.Remove(filepath.Join(dir, "tokenizer.json")))
			},
			backend: &fakeBackend{info: arch},
			kind:    KindCheckpointMissing,
		},
		{
			name: "empty file",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "tokenizer.json"), nil, 0o644))
			},
			backend: &fakeBackend{info: arch},
			kind:    KindCheckpointCorrupt,
		},
		{
			name: "bad safetensors header",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "t3_cfg.safetensors"), []byte("not a tensor file"), 0o644))
			},
			backend: &fakeBackend{info: arch},
			kind:    KindCheckpointCorrupt,
		},
		{
			name:    "backend failure",
			backend: &fakeBackend{err: errors.New("worker exited")},
			kind:    KindBackend,
		},
		{
			name:    "wrong architecture",
			backend: &fakeBackend{info: backend.ModelInfo{Architecture: "kokoro", SampleRate: 24000}},
			kind:    KindIncompatibleArchitecture,
			closed:  1,
		},
		{
			name:    "no sample rate",
			backend: &fakeBackend{info: backend.ModelInfo{Architecture: "chatterbox"}},
			kind:    KindIncompatibleArchitecture,
			closed:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeCheckpoint(t, filepath.Join(t.TempDir(), "ckpt"))
			if tt.setup != nil {
				tt.setup(t, dir)
			}

			h, err := NewLoader(tt.backend, "chatterbox", testRequiredFiles).Load(context.Background(), device.HostCPU, dir)
			assert.Nil(t, h)

			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, tt.kind, loadErr.Kind)
			assert.Equal(t, tt.closed, tt.backend.closed)
		})
	}
}

func TestLoadError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := error(loadError(KindBackend, "/ckpt", cause))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "model load failed (backend) at /ckpt: boom", err.Error())
}
