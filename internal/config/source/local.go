package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ekisa-team/chatterbox-serve/internal/config"
	"github.com/ekisa-team/chatterbox-serve/internal/xfs"
)

// LocalDownloader serves a checkpoint directory already on disk.
type LocalDownloader struct{}

// Download resolves the configured path. Relative paths are taken from targetDir.
func (d *LocalDownloader) Download(_ context.Context, modelConfig *config.ModelConfig, targetDir string) (string, bool, error) {
	src, err := modelConfig.GetSource()
	if err != nil {
		return "", false, fmt.Errorf("failed to get model source: %w", err)
	}

	local, ok := src.(config.LocalSource)
	if !ok {
		return "", false, fmt.Errorf("invalid source type: %T", src)
	}

	path := xfs.ExpandTilde(local.Path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(targetDir, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", false, fmt.Errorf("checkpoint directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return "", false, fmt.Errorf("checkpoint path %s is not a directory", path)
	}

	slog.Info("Using local checkpoint", "path", path)
	return path, true, nil
}
