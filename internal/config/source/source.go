// Package source acquires checkpoints from their configured source.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ekisa-team/chatterbox-serve/internal/backend"
	"github.com/ekisa-team/chatterbox-serve/internal/config"
)

// ErrUnsupportedSource is returned for a source type with no downloader.
var ErrUnsupportedSource = errors.New("unsupported model source")

// Downloader makes a checkpoint available on local disk.
type Downloader interface {
	// Download returns the checkpoint directory and whether it was already present.
	Download(ctx context.Context, modelConfig *config.ModelConfig, targetDir string) (string, bool, error)
}

// GetDownloader returns the downloader for a source type. runner executes external tools.
func GetDownloader(sourceType config.SourceType, runner backend.CommandRunner) (Downloader, error) {
	switch sourceType {
	case config.SourceTypeHuggingFace:
		return NewHuggingFaceDownloader(runner), nil
	case config.SourceTypeLocal:
		return &LocalDownloader{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, sourceType)
	}
}

// EnsureModelsDirectory creates the models directory and checks that it is writable.
func EnsureModelsDirectory(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	probe, err := os.CreateTemp(path, ".write-test-*")
	if err != nil {
		return fmt.Errorf("models directory is not writable: %w", err)
	}
	name := probe.Name()
	probe.Close()

	return os.Remove(filepath.Clean(name))
}
