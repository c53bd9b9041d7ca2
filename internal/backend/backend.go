package backend

import (
	"context"

	"github.com/ekisa-team/chatterbox-serve/internal/audio"
	"github.com/ekisa-team/chatterbox-serve/internal/device"
)

// BackendProvider is a string identifier for a backend provider.
type BackendProvider string

const (
	// BackendProviderChatterbox runs the Chatterbox model in a resident worker process.
	BackendProviderChatterbox BackendProvider = "chatterbox"
)

// Placement controls where serialized tensors are materialized during load.
type Placement string

const (
	// PlacementAsDeclared keeps the location recorded in the checkpoint.
	PlacementAsDeclared Placement = "as_declared"

	// PlacementHost coerces every tensor to host memory regardless of what the checkpoint declares.
	PlacementHost Placement = "host"
)

// Precision is the floating point width used for model computation.
type Precision string

const (
	// PrecisionFull is 32-bit floating point.
	PrecisionFull Precision = "full"

	// PrecisionHalf is 16-bit floating point.
	PrecisionHalf Precision = "half"
)

// DType returns the tensor dtype name understood by the model runtime.
func (p Precision) DType() string {
	if p == PrecisionHalf {
		return "float16"
	}

	return "float32"
}

// Backend defines the interface for model runtimes.
type Backend interface {
	// Provider returns the backend identifier.
	Provider() BackendProvider

	// Load materializes the model found in opts.CheckpointDir.
	Load(ctx context.Context, opts *LoadOptions) (Model, error)

	// Close cleans up resources.
	Close() error
}

// Model is a loaded model instance.
// Implementations are not required to be safe for concurrent Generate calls.
type Model interface {
	// Generate synthesizes speech for text with the given classifier-free guidance weight.
	Generate(ctx context.Context, text string, guidanceWeight float64) (*audio.Tensor, error)

	// Info describes the loaded model.
	Info() ModelInfo
}

// LoadOptions encapsulates all parameters for a load call.
type LoadOptions struct {
	// CheckpointDir is the directory holding the pretrained weights.
	CheckpointDir string

	// Device is the compute device the model is bound to.
	Device device.Device

	// Placement is the tensor placement policy applied while deserializing.
	Placement Placement

	// Precision is the numeric precision of the loaded model.
	Precision Precision
}

// ModelInfo is reported by a loaded model.
type ModelInfo struct {
	Architecture string `json:"architecture"`
	SampleRate   int    `json:"sample_rate"`
}
