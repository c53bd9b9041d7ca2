package model

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/chatterbox-serve/internal/audio"
	"github.com/ekisa-team/chatterbox-serve/internal/backend"
	"github.com/ekisa-team/chatterbox-serve/internal/device"
)

type fakeModel struct {
	info backend.ModelInfo
}

func (m *fakeModel) Generate(_ context.Context, text string, _ float64) (*audio.Tensor, error) {
	return audio.NewMono(make([]float32, len(text)), m.info.SampleRate), nil
}

func (m *fakeModel) Info() backend.ModelInfo {
	return m.info
}

type fakeBackend struct {
	err      error
	info     backend.ModelInfo
	lastOpts *backend.LoadOptions
	closed   int
}

func (b *fakeBackend) Provider() backend.BackendProvider {
	return backend.BackendProviderChatterbox
}

func (b *fakeBackend) Load(_ context.Context, opts *backend.LoadOptions) (backend.Model, error) {
	b.lastOpts = opts
	if b.err != nil {
		return nil, b.err
	}
	return &fakeModel{info: b.info}, nil
}

func (b *fakeBackend) Close() error {
	b.closed++
	return nil
}

type fixedSelector device.Device

func (s fixedSelector) Select(context.Context) device.Device {
	return device.Device(s)
}

var testRequiredFiles = []string{"t3_cfg.safetensors", "tokenizer.json"}

// writeSafetensors writes a minimal valid safetensors file.
func writeSafetensors(t *testing.T, path string) {
	t.Helper()

	header := []byte(`{"__metadata__":{"format":"pt"}}`)
	data := make([]byte, 8, 8+len(header))
	binary.LittleEndian.PutUint64(data, uint64(len(header)))
	data = append(data, header...)

	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// writeCheckpoint creates a complete checkpoint directory.
func writeCheckpoint(t *testing.T, dir string) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeSafetensors(t, filepath.Join(dir, "t3_cfg.safetensors"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tokenizer.json"), []byte(`{"version":"1.0"}`), 0o644))

	return dir
}
