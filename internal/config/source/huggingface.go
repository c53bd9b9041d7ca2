package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ekisa-team/chatterbox-serve/internal/backend"
	"github.com/ekisa-team/chatterbox-serve/internal/config"
)

const (
	defaultRetryDelay = 2 * time.Second
	defaultMaxRetries = 3
	defaultTimeout    = 30 * time.Minute
	markerFilename    = ".chatterbox-downloaded"
	hfBinary          = "hf"
)

// HuggingFaceDownloader downloads a checkpoint with the Hugging Face CLI.
type HuggingFaceDownloader struct {
	executor   *backend.Executor
	retryDelay time.Duration
}

// NewHuggingFaceDownloader creates a downloader that runs the hf CLI through runner.
func NewHuggingFaceDownloader(runner backend.CommandRunner) *HuggingFaceDownloader {
	return &HuggingFaceDownloader{
		executor:   backend.NewExecutorWithRunner(hfBinary, defaultTimeout, runner),
		retryDelay: defaultRetryDelay,
	}
}

// Download downloads the repository into targetDir/<repo> unless a matching marker is present.
func (d *HuggingFaceDownloader) Download(ctx context.Context, modelConfig *config.ModelConfig, targetDir string) (string, bool, error) {
	src, err := modelConfig.GetSource()
	if err != nil {
		return "", false, fmt.Errorf("failed to get model source: %w", err)
	}

	hfSource, ok := src.(config.HuggingFaceSource)
	if !ok {
		return "", false, fmt.Errorf("invalid source type: %T", src)
	}

	repo := strings.TrimSpace(hfSource.Repo)
	if repo == "" || strings.Contains(repo, "..") {
		return "", false, fmt.Errorf("invalid repo name: %q", hfSource.Repo)
	}

	fullPath := filepath.Join(targetDir, repo)
	markerPath := filepath.Join(fullPath, markerFilename)
	markerContent := d.markerContent(repo, hfSource.Revision)

	if !hfSource.ForceDownload && !d.shouldRedownload(markerPath, markerContent) {
		slog.Info("Checkpoint already downloaded, skipping", "repo", repo, "path", fullPath)
		return fullPath, true, nil
	}

	if err := os.MkdirAll(fullPath, 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create directory: %w", err)
	}

	args := d.buildArgs(hfSource, repo, fullPath)

	var lastErr error
	for attempt := range defaultMaxRetries {
		if attempt > 0 {
			slog.Info("Retrying download", "repo", repo, "attempt", attempt+1, "last_error", lastErr)
			select {
			case <-ctx.Done():
				return "", false, fmt.Errorf("download canceled: %w", ctx.Err())
			case <-time.After(d.retryDelay):
			}
		} else {
			slog.Info("Downloading checkpoint", "repo", repo, "path", fullPath)
		}

		_, stderr, err := d.executor.Execute(ctx, args, nil)
		if err == nil {
			if err := os.WriteFile(markerPath, []byte(markerContent), 0o644); err != nil {
				slog.Warn("Failed to write download marker", "path", markerPath, "error", err)
			}

			slog.Info("Checkpoint downloaded", "repo", repo, "path", fullPath, "attempt", attempt+1)
			return fullPath, false, nil
		}

		lastErr = err
		slog.Error("Failed to download checkpoint", "repo", repo, "attempt", attempt+1, "error", err, "output", strings.TrimSpace(string(stderr)))

		if errors.Is(ctx.Err(), context.Canceled) {
			return "", false, fmt.Errorf("download canceled: %w", err)
		}
	}

	return "", false, fmt.Errorf("failed to download %s after %d attempts: %w", repo, defaultMaxRetries, lastErr)
}

func (d *HuggingFaceDownloader) buildArgs(src config.HuggingFaceSource, repo, dir string) []string {
	args := []string{"download", repo, "--local-dir", dir}

	if src.Revision != "" {
		args = append(args, "--revision", src.Revision)
	}
	if src.RepoType != "" {
		args = append(args, "--repo-type", src.RepoType)
	}
	for _, inc := range src.Include {
		args = append(args, "--include", inc)
	}
	for _, exc := range src.Exclude {
		args = append(args, "--exclude", exc)
	}
	if src.ForceDownload {
		args = append(args, "--force-download")
	}
	if src.Token != "" {
		args = append(args, "--token", src.Token)
	}
	if src.MaxWorkers > 0 {
		args = append(args, "--max-workers", strconv.Itoa(src.MaxWorkers))
	}

	return args
}

// markerContent is compared on startup to detect a changed repo or revision.
func (d *HuggingFaceDownloader) markerContent(repo, revision string) string {
	return fmt.Sprintf("repo: %s\nrevision: %s\n", repo, revision)
}

func (d *HuggingFaceDownloader) shouldRedownload(markerPath, expectedContent string) bool {
	content, err := os.ReadFile(markerPath)
	if err != nil {
		slog.Debug("Marker file missing or unreadable", "path", markerPath, "error", err)
		return true
	}

	if string(content) != expectedContent {
		slog.Info("Checkpoint source changed, will redownload", "marker_path", markerPath)
		return true
	}

	return false
}
