package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	// DefaultHTTPPort is the port used when PORT is unset.
	DefaultHTTPPort = 8881

	// DefaultHuggingFaceRepo hosts the pretrained Chatterbox weights.
	DefaultHuggingFaceRepo = "ResembleAI/chatterbox"

	// DefaultMaxTextLength bounds the compute a single request can cause.
	DefaultMaxTextLength = 5000

	defaultQueueTimeoutSeconds      = 120
	defaultGenerationTimeoutSeconds = 300
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		Version: "1",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: DefaultHTTPPort,
		},
		Model: ModelConfig{
			Backend:      "chatterbox",
			Device:       "auto",
			Architecture: "chatterbox",
			Checkpoint: CheckpointConfig{
				RequiredFiles: []string{
					"ve.safetensors",
					"t3_cfg.safetensors",
					"s3gen.safetensors",
					"tokenizer.json",
					"conds.pt",
				},
			},
		},
		Limits: LimitsConfig{
			MaxTextLength:            DefaultMaxTextLength,
			QueueTimeoutSeconds:      defaultQueueTimeoutSeconds,
			GenerationTimeoutSeconds: defaultGenerationTimeoutSeconds,
		},
	}
	cfg.Model.SetHuggingFaceSource(HuggingFaceSource{Repo: DefaultHuggingFaceRepo})

	return cfg
}

// DefaultConfigPath returns the default path for the config directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "chatterbox-serve", "config")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "chatterbox-serve")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "chatterbox-serve")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "chatterbox-serve")
		}
		return filepath.Join(home, ".config", "chatterbox-serve")
	}
}

// DefaultModelsPath returns the default path for the models directory.
func DefaultModelsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "chatterbox-serve", "models")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "chatterbox-serve", "models")
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "chatterbox-serve", "models")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "chatterbox-serve", "models")
		}
		return filepath.Join(home, ".cache", "chatterbox-serve", "models")
	}
}
