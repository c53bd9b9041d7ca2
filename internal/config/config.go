package config

import (
	"errors"
	"time"
)

// SourceType represents the type of checkpoint source.
type SourceType string

const (
	// SourceTypeHuggingFace represents a Hugging Face model repository source.
	SourceTypeHuggingFace SourceType = "huggingface"

	// SourceTypeLocal represents a checkpoint directory already on disk.
	SourceTypeLocal SourceType = "local"
)

// Config holds the main configuration for the application.
type Config struct {
	Version string        `json:"version"           yaml:"version"`
	Server  ServerConfig  `json:"server"            yaml:"server"`
	Storage StorageConfig `json:"storage,omitempty" yaml:"storage,omitempty"`
	Model   ModelConfig   `json:"model"             yaml:"model"`
	Limits  LimitsConfig  `json:"limits"            yaml:"limits"`
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// ServerConfig holds the listener configuration.
type ServerConfig struct {
	Host     string `json:"host"      yaml:"host"`
	Port     int    `json:"port"      yaml:"port"`
	GRPCPort int    `json:"grpc_port" yaml:"grpc_port"`
}

// StorageConfig holds configuration for caching and auto-download.
type StorageConfig struct {
	ModelsDir string `json:"models_dir,omitempty" yaml:"models_dir,omitempty"`
}

// ModelConfig holds configuration for the served model.
type ModelConfig struct {
	Options           map[string]any   `json:"options,omitempty"    yaml:"options,omitempty"`
	Source            SourceConfig     `json:"source"               yaml:"source"`
	Backend           string           `json:"backend"              yaml:"backend"`
	Device            string           `json:"device"               yaml:"device"`
	Architecture      string           `json:"architecture"         yaml:"architecture"`
	Checkpoint        CheckpointConfig `json:"checkpoint"           yaml:"checkpoint"`
	ExitOnLoadFailure bool             `json:"exit_on_load_failure" yaml:"exit_on_load_failure"`
}

// CheckpointConfig describes the files a checkpoint must contain.
type CheckpointConfig struct {
	RequiredFiles []string `json:"required_files" yaml:"required_files"`
}

// SourceConfig wraps optional sources (only one should be set).
type SourceConfig struct {
	HuggingFace *HuggingFaceSource `json:"huggingface,omitempty" yaml:"huggingface,omitempty"`
	Local       *LocalSource       `json:"local,omitempty"       yaml:"local,omitempty"`
}

// LimitsConfig bounds the work a single request may cause. It is hot-reloadable.
type LimitsConfig struct {
	MaxTextLength            int `json:"max_text_length"            yaml:"max_text_length"`
	QueueTimeoutSeconds      int `json:"queue_timeout_seconds"      yaml:"queue_timeout_seconds"`
	GenerationTimeoutSeconds int `json:"generation_timeout_seconds" yaml:"generation_timeout_seconds"`
}

// QueueTimeout is the longest a request may wait for the model.
func (l LimitsConfig) QueueTimeout() time.Duration {
	return time.Duration(l.QueueTimeoutSeconds) * time.Second
}

// GenerationTimeout is the longest a single generation call may run.
func (l LimitsConfig) GenerationTimeout() time.Duration {
	return time.Duration(l.GenerationTimeoutSeconds) * time.Second
}

// LoggingConfig holds logging sinks.
type LoggingConfig struct {
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// -------------------------
// Source definitions
// -------------------------

// ModelSource represents a source for a checkpoint.
type ModelSource interface {
	Type() SourceType
}

// HuggingFaceSource represents a Hugging Face model repository source.
type HuggingFaceSource struct {
	Repo          string   `json:"repo"                     yaml:"repo"`
	Revision      string   `json:"revision,omitempty"       yaml:"revision,omitempty"`
	RepoType      string   `json:"repo_type,omitempty"      yaml:"repo_type,omitempty"`
	Token         string   `json:"token,omitempty"          yaml:"token,omitempty"`
	Include       []string `json:"include,omitempty"        yaml:"include,omitempty"`
	Exclude       []string `json:"exclude,omitempty"        yaml:"exclude,omitempty"`
	MaxWorkers    int      `json:"max_workers,omitempty"    yaml:"max_workers,omitempty"`
	ForceDownload bool     `json:"force_download,omitempty" yaml:"force_download,omitempty"`
}

// Type returns the Hugging Face source type.
func (h HuggingFaceSource) Type() SourceType {
	return SourceTypeHuggingFace
}

// LocalSource represents a checkpoint directory already present on disk.
type LocalSource struct {
	Path string `json:"path" yaml:"path"`
}

// Type returns the local source type.
func (l LocalSource) Type() SourceType {
	return SourceTypeLocal
}

// GetSource returns the active source for the model. A local source wins over Hugging Face.
func (m *ModelConfig) GetSource() (ModelSource, error) {
	if m.Source.Local != nil {
		return *m.Source.Local, nil
	}
	if m.Source.HuggingFace != nil {
		return *m.Source.HuggingFace, nil
	}

	return nil, errors.New("no source configured for model")
}

// SetHuggingFaceSource sets the Hugging Face source.
func (m *ModelConfig) SetHuggingFaceSource(source HuggingFaceSource) {
	m.Source.HuggingFace = &source
	m.Source.Local = nil
}

// SetLocalSource sets the local source.
func (m *ModelConfig) SetLocalSource(source LocalSource) {
	m.Source.Local = &source
	m.Source.HuggingFace = nil
}
