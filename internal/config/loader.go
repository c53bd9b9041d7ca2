package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v3"

	"github.com/ekisa-team/chatterbox-serve/internal/xfs"
)

//go:embed config.schema.json
var schemaJSON string

const schemaURL = "config.v1.schema.json"

// envOverrides are read from the process environment after the file.
type envOverrides struct {
	Port       int    `env:"PORT"`
	GRPCPort   int    `env:"CHATTERBOX_GRPC_PORT"`
	Device     string `env:"CHATTERBOX_DEVICE"`
	ModelsPath string `env:"CHATTERBOX_MODELS_PATH"`
	LogFile    string `env:"CHATTERBOX_LOG_FILE"`
}

// Load builds the effective configuration: defaults, then the YAML file at path
// when it exists, then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if cfg, err = LoadAndValidate(path); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config: %w", err)
		}
	}

	if err := ApplyEnv(cfg, nil); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadAndValidate loads the YAML file at path over the defaults and validates it against the schema.
func LoadAndValidate(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data)
}

// Parse validates YAML data against the schema and decodes it over the defaults.
func Parse(data []byte) (*Config, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	schema, err := jsonschema.CompileString(schemaURL, schemaJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := Default()
	if declaresSource(raw) {
		cfg.Model.Source = SourceConfig{}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into Config struct: %w", err)
	}

	return cfg, nil
}

// declaresSource reports whether the document sets model.source, which replaces the default source.
func declaresSource(raw any) bool {
	root, ok := raw.(map[string]any)
	if !ok {
		return false
	}
	model, ok := root["model"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = model["source"]

	return ok
}

// ApplyEnv overlays environment overrides on cfg. A nil environ reads the process environment.
func ApplyEnv(cfg *Config, environ map[string]string) error {
	var o envOverrides
	if err := env.Parse(&o, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	if o.Port != 0 {
		cfg.Server.Port = o.Port
	}
	if o.GRPCPort != 0 {
		cfg.Server.GRPCPort = o.GRPCPort
	}
	if o.Device != "" {
		cfg.Model.Device = o.Device
	}
	if o.ModelsPath != "" {
		cfg.Storage.ModelsDir = o.ModelsPath
	}
	if o.LogFile != "" {
		cfg.Logging.File = o.LogFile
	}

	return nil
}

// ModelsPath returns the directory checkpoints are stored in.
func (c *Config) ModelsPath() string {
	if c.Storage.ModelsDir != "" {
		return xfs.ExpandTilde(c.Storage.ModelsDir)
	}

	return xfs.ExpandTilde(DefaultModelsPath())
}
