// Package audio holds the waveform types produced by the model and their WAV encoding.
package audio

import "time"

// Tensor is a waveform produced by a single generation call.
// Samples are laid out as [channel][frame] with values nominally in [-1, 1].
type Tensor struct {
	Samples    [][]float32
	SampleRate int
}

// NewMono wraps a single-channel buffer.
func NewMono(samples []float32, sampleRate int) *Tensor {
	return &Tensor{
		Samples:    [][]float32{samples},
		SampleRate: sampleRate,
	}
}

// Channels returns the number of channels.
func (t *Tensor) Channels() int {
	return len(t.Samples)
}

// Frames returns the number of frames in the first channel.
func (t *Tensor) Frames() int {
	if len(t.Samples) == 0 {
		return 0
	}

	return len(t.Samples[0])
}

// Duration returns frames / sample rate.
func (t *Tensor) Duration() time.Duration {
	if t.SampleRate <= 0 {
		return 0
	}

	return time.Duration(t.Frames()) * time.Second / time.Duration(t.SampleRate)
}

// Encoded is a WAV container ready to be written to a client.
type Encoded struct {
	Data       []byte
	SampleRate int
	Channels   int
	Frames     int
}

// ContentType is the media type of Encoded data.
func (e *Encoded) ContentType() string {
	return ContentTypeWAV
}
