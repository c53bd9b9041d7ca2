package audio

import (
	"fmt"
	"math"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
)

const (
	// ContentTypeWAV is the media type of a RIFF/WAVE container.
	ContentTypeWAV = "audio/wav"

	// pcmPrecision is the sample width in bytes (16-bit PCM).
	pcmPrecision = 2

	maxChannels = 2
)

// EncodeWAV serializes a tensor into a 16-bit PCM WAV container at the tensor's sample rate.
func EncodeWAV(t *Tensor) (*Encoded, error) {
	if err := checkShape(t); err != nil {
		return nil, err
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(t.SampleRate),
		NumChannels: t.Channels(),
		Precision:   pcmPrecision,
	}

	buf := newSeekBuffer(44 + t.Frames()*format.Width())
	if err := wav.Encode(buf, tensorStreamer(t), format); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}

	return &Encoded{
		Data:       buf.Bytes(),
		SampleRate: t.SampleRate,
		Channels:   t.Channels(),
		Frames:     t.Frames(),
	}, nil
}

func checkShape(t *Tensor) error {
	if t == nil {
		return ErrEmptyAudio
	}
	if t.Channels() == 0 || t.Channels() > maxChannels {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedShape, t.Channels())
	}
	if t.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrUnsupportedShape, t.SampleRate)
	}

	frames := t.Frames()
	for ch, samples := range t.Samples {
		if len(samples) != frames {
			return fmt.Errorf("%w: channel %d has %d frames, want %d", ErrUnsupportedShape, ch, len(samples), frames)
		}
	}
	if frames == 0 {
		return ErrEmptyAudio
	}

	return nil
}

// tensorStreamer adapts a tensor to beep's stereo frame stream.
// Mono tensors are duplicated on both sides, which beep folds back into one channel.
func tensorStreamer(t *Tensor) beep.Streamer {
	pos := 0
	left := t.Samples[0]
	right := left
	if t.Channels() == maxChannels {
		right = t.Samples[1]
	}

	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= len(left) {
			return 0, false
		}

		n := min(len(samples), len(left)-pos)
		for i := range n {
			samples[i][0] = clip(left[pos+i])
			samples[i][1] = clip(right[pos+i])
		}
		pos += n

		return n, true
	})
}

func clip(v float32) float64 {
	f := float64(v)
	switch {
	case math.IsNaN(f), math.IsInf(f, 0):
		return 0
	case f > 1:
		return 1
	case f < -1:
		return -1
	default:
		return f
	}
}
