package model

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/chatterbox-serve/internal/backend"
	"github.com/ekisa-team/chatterbox-serve/internal/config"
	"github.com/ekisa-team/chatterbox-serve/internal/device"
)

func testConfig(t *testing.T, checkpointDir string) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Storage.ModelsDir = filepath.Join(t.TempDir(), "models")
	cfg.Model.Checkpoint.RequiredFiles = testRequiredFiles
	cfg.Model.SetLocalSource(config.LocalSource{Path: checkpointDir})

	return cfg
}

func TestManager_Load(t *testing.T) {
	dir := writeCheckpoint(t, filepath.Join(t.TempDir(), "ckpt"))
	cfg := testConfig(t, dir)

	b := &fakeBackend{info: backend.ModelInfo{Architecture: "chatterbox", SampleRate: 24000}}
	registry := NewRegistry()
	m := NewManager(registry, fixedSelector(device.Accelerator), NewLoader(b, "chatterbox", testRequiredFiles), nil)

	require.NoError(t, m.Load(context.Background(), cfg))

	h, ok := m.Registry().Get()
	require.True(t, ok)
	assert.Equal(t, device.Accelerator, h.Device)
	assert.Equal(t, backend.PrecisionHalf, h.Precision)
	assert.Equal(t, dir, h.CheckpointDir)
	assert.DirExists(t, cfg.Storage.ModelsDir)

	// Loading is once per process.
	assert.ErrorIs(t, m.Load(context.Background(), cfg), ErrInvalidTransition)
}

func TestManager_LoadFailureMarksRegistry(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "absent"))

	registry := NewRegistry()
	b := &fakeBackend{info: backend.ModelInfo{Architecture: "chatterbox", SampleRate: 24000}}
	m := NewManager(registry, fixedSelector(device.HostCPU), NewLoader(b, "chatterbox", testRequiredFiles), nil)

	err := m.Load(context.Background(), cfg)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, KindCheckpointMissing, loadErr.Kind)
	assert.Equal(t, StatusFailed, registry.Status())
	assert.ErrorIs(t, registry.Err(), err)
	assert.False(t, registry.IsReady())
	assert.Nil(t, b.lastOpts)
}
