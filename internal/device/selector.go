package device

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ekisa-team/chatterbox-serve/internal/envvar"
)

const probeTimeout = 5 * time.Second

// Runner runs a command to completion.
type Runner interface {
	Run(ctx context.Context, name string, args []string, stdin io.Reader) (stdout, stderr []byte, err error)
}

// Selector picks the compute device once at startup.
type Selector struct {
	runner     Runner
	lookupEnv  func(string) (string, bool)
	preference Preference
}

// NewSelector creates a Selector that probes with runner.
func NewSelector(runner Runner, preference Preference) *Selector {
	return &Selector{
		runner:     runner,
		preference: preference,
		lookupEnv:  os.LookupEnv,
	}
}

// Select returns Accelerator when a usable accelerator is present, HostCPU otherwise.
// It never fails; probe errors degrade to HostCPU.
func (s *Selector) Select(ctx context.Context) Device {
	d := s.selectDevice(ctx)
	slog.Info("Using device", "device", d, "preference", s.preference)

	return d
}

func (s *Selector) selectDevice(ctx context.Context) Device {
	if s.preference == PreferenceCPU {
		return HostCPU
	}

	if v, ok := s.lookupEnv(envvar.CUDAVisibleDevices); ok {
		if v = strings.TrimSpace(v); v == "" || v == "-1" {
			slog.Debug("Accelerators hidden by environment", "variable", envvar.CUDAVisibleDevices, "value", v)
			return HostCPU
		}
	}

	if s.probe(ctx) {
		return Accelerator
	}

	if s.preference == PreferenceAccelerator {
		slog.Warn("Accelerator requested but none is usable, falling back to host CPU")
	}

	return HostCPU
}

// probe lists GPUs with nvidia-smi.
func (s *Selector) probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	stdout, stderr, err := s.runner.Run(ctx, "nvidia-smi", []string{"-L"}, nil)
	if err != nil {
		slog.Debug("Accelerator probe failed", "error", err, "stderr", string(bytes.TrimSpace(stderr)))
		return false
	}

	for line := range strings.SplitSeq(string(stdout), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "GPU ") {
			return true
		}
	}

	return false
}
