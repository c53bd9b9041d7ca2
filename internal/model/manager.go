package model

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ekisa-team/chatterbox-serve/internal/backend"
	"github.com/ekisa-team/chatterbox-serve/internal/config"
	"github.com/ekisa-team/chatterbox-serve/internal/config/source"
	"github.com/ekisa-team/chatterbox-serve/internal/device"
)

// DeviceSelector picks the compute device.
type DeviceSelector interface {
	Select(ctx context.Context) device.Device
}

// Manager orchestrates the one-time model load at startup.
type Manager struct {
	registry *Registry
	selector DeviceSelector
	loader   *Loader
	runner   backend.CommandRunner
}

// NewManager creates a Manager. runner executes checkpoint download tools.
func NewManager(registry *Registry, selector DeviceSelector, loader *Loader, runner backend.CommandRunner) *Manager {
	return &Manager{
		registry: registry,
		selector: selector,
		loader:   loader,
		runner:   runner,
	}
}

// Registry returns the model registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Load selects a device, acquires the checkpoint and stores the loaded handle.
// On failure the registry is marked Failed and the error is returned.
func (m *Manager) Load(ctx context.Context, cfg *config.Config) error {
	if err := m.registry.MarkLoading(); err != nil {
		return err
	}

	h, err := m.load(ctx, cfg)
	if err != nil {
		slog.Error("Failed to load model", "error", err)
		_ = m.registry.MarkFailed(err)
		return err
	}

	if err := m.registry.Store(h); err != nil {
		return fmt.Errorf("failed to store model: %w", err)
	}

	return nil
}

func (m *Manager) load(ctx context.Context, cfg *config.Config) (*Handle, error) {
	d := m.selector.Select(ctx)

	modelSource, err := cfg.Model.GetSource()
	if err != nil {
		return nil, loadError(KindCheckpointMissing, "", err)
	}

	modelsPath := cfg.ModelsPath()
	if err := source.EnsureModelsDirectory(modelsPath); err != nil {
		return nil, loadError(KindCheckpointMissing, modelsPath, err)
	}

	downloader, err := source.GetDownloader(modelSource.Type(), m.runner)
	if err != nil {
		return nil, loadError(KindCheckpointMissing, "", err)
	}

	checkpointDir, cached, err := downloader.Download(ctx, &cfg.Model, modelsPath)
	if err != nil {
		return nil, loadError(KindCheckpointMissing, modelsPath, err)
	}

	slog.Debug("Checkpoint ready", "path", checkpointDir, "cached", cached)

	return m.loader.Load(ctx, d, checkpointDir)
}
