// Package chatterbox runs the Chatterbox TTS model inside a resident worker process
// and talks to it over loopback HTTP.
package chatterbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ekisa-team/chatterbox-serve/internal/backend"
	"github.com/ekisa-team/chatterbox-serve/internal/mapsafe"
)

const (
	// BackendName identifies the worker in the server manager.
	BackendName = "chatterbox-worker"

	// Architecture is the model architecture this backend serves.
	Architecture = "chatterbox"

	defaultCommand      = "python3"
	defaultPort         = 8891
	defaultReadyTimeout = 10 * time.Minute
	infoTimeout         = 10 * time.Second
)

var defaultArgs = []string{"-m", "chatterbox_worker"}

// Config describes how to launch the worker.
type Config struct {
	Env          map[string]string
	Command      string
	Host         string
	Args         []string
	Port         int
	ReadyTimeout time.Duration
}

// ConfigFromOptions reads a worker config from a loosely typed options map.
func ConfigFromOptions(opts map[string]any) Config {
	return Config{
		Command:      mapsafe.Get(opts, "command", defaultCommand),
		Args:         mapsafe.Get(opts, "args", defaultArgs),
		Host:         mapsafe.Get(opts, "host", "127.0.0.1"),
		Port:         mapsafe.Get(opts, "port", defaultPort),
		Env:          mapsafe.Get[map[string]string](opts, "env", nil),
		ReadyTimeout: time.Duration(mapsafe.Get(opts, "ready_timeout_seconds", int(defaultReadyTimeout/time.Second))) * time.Second,
	}
}

// Backend implements backend.Backend for Chatterbox.
type Backend struct {
	serverManager *backend.ServerManager
	client        *http.Client
	cfg           Config
}

// NewBackend creates a new Backend instance.
func NewBackend(cfg Config, serverManager *backend.ServerManager) *Backend {
	return &Backend{
		cfg:           cfg,
		serverManager: serverManager,
		// Generation is bounded by the caller's context.
		client: &http.Client{},
	}
}

// Provider implements backend.Backend.
func (b *Backend) Provider() backend.BackendProvider {
	return backend.BackendProviderChatterbox
}

// Close implements backend.Backend.
func (b *Backend) Close() error {
	if !b.serverManager.Running(BackendName, b.cfg.Port) {
		return nil
	}

	return b.serverManager.StopServer(BackendName, b.cfg.Port)
}

// Load implements backend.Backend. It starts the worker bound to the requested device,
// placement and precision, then asks it to describe the loaded model.
func (b *Backend) Load(ctx context.Context, opts *backend.LoadOptions) (backend.Model, error) {
	serverCfg := backend.ServerConfig{
		Name:         BackendName,
		BinPath:      b.cfg.Command,
		Host:         b.cfg.Host,
		Args:         b.buildArgs(opts),
		Env:          b.cfg.Env,
		Port:         b.cfg.Port,
		HealthPath:   "/health",
		ReadyTimeout: b.cfg.ReadyTimeout,
	}

	if err := b.serverManager.StartServer(ctx, serverCfg); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}

	model := newModel(serverCfg.BaseURL(), b.client)

	infoCtx, cancel := context.WithTimeout(ctx, infoTimeout)
	defer cancel()

	if err := model.fetchInfo(infoCtx); err != nil {
		if stopErr := b.serverManager.StopServer(BackendName, b.cfg.Port); stopErr != nil {
			return nil, fmt.Errorf("%w (stopping worker: %w)", err, stopErr)
		}
		return nil, err
	}

	return model, nil
}

// buildArgs builds worker command-line arguments.
func (b *Backend) buildArgs(opts *backend.LoadOptions) []string {
	args := append([]string{}, b.cfg.Args...)
	args = append(args,
		"--checkpoint", opts.CheckpointDir,
		"--device", opts.Device.WorkerName(),
		"--dtype", opts.Precision.DType(),
		"--host", b.cfg.Host,
		"--port", strconv.Itoa(b.cfg.Port),
	)

	if opts.Placement == backend.PlacementHost {
		args = append(args, "--map-location", "cpu")
	}

	return args
}

// fetchInfo reads the worker's model description.
func (m *Model) fetchInfo(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/info", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to query worker info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("worker info returned %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var info backend.ModelInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return fmt.Errorf("failed to decode worker info: %w", err)
	}
	if info.SampleRate <= 0 {
		return fmt.Errorf("worker reported invalid sample rate %d", info.SampleRate)
	}

	m.info = info
	return nil
}
