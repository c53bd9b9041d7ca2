package chatterbox

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/ekisa-team/chatterbox-serve/internal/audio"
	"github.com/ekisa-team/chatterbox-serve/internal/backend"
)

const (
	// HeaderSampleRate carries the sample rate of a generated waveform.
	HeaderSampleRate = "X-Sample-Rate"

	// HeaderChannels carries the channel count of a generated waveform.
	HeaderChannels = "X-Channels"

	maxErrorBody = 4 << 10
)

var errMalformedAudio = errors.New("malformed audio from worker")

// GenerateRequest is the body of a worker generation call.
type GenerateRequest struct {
	Text      string  `json:"text"`
	CFGWeight float64 `json:"cfg_weight"`
}

// Model is a handle on the model loaded inside the worker.
type Model struct {
	client  *http.Client
	baseURL string
	info    backend.ModelInfo
}

func newModel(baseURL string, client *http.Client) *Model {
	return &Model{
		baseURL: baseURL,
		client:  client,
	}
}

// Info implements backend.Model.
func (m *Model) Info() backend.ModelInfo {
	return m.info
}

// Generate implements backend.Model.
// The worker answers with little-endian float32 samples, interleaved when multi-channel.
func (m *Model) Generate(ctx context.Context, text string, guidanceWeight float64) (*audio.Tensor, error) {
	body, err := json.Marshal(GenerateRequest{Text: text, CFGWeight: guidanceWeight})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("worker request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("worker returned %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	sampleRate := m.info.SampleRate
	if v := resp.Header.Get(HeaderSampleRate); v != "" {
		if sampleRate, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("%w: bad %s %q", errMalformedAudio, HeaderSampleRate, v)
		}
	}

	channels := 1
	if v := resp.Header.Get(HeaderChannels); v != "" {
		if channels, err = strconv.Atoi(v); err != nil || channels < 1 {
			return nil, fmt.Errorf("%w: bad %s %q", errMalformedAudio, HeaderChannels, v)
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}

	return decodeFloat32(raw, channels, sampleRate)
}

// decodeFloat32 de-interleaves little-endian float32 frames into a tensor.
func decodeFloat32(raw []byte, channels, sampleRate int) (*audio.Tensor, error) {
	frameSize := 4 * channels
	if len(raw)%frameSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %d-channel frames", errMalformedAudio, len(raw), channels)
	}

	frames := len(raw) / frameSize
	samples := make([][]float32, channels)
	for ch := range samples {
		samples[ch] = make([]float32, frames)
	}

	for i := range frames {
		for ch := range channels {
			off := i*frameSize + ch*4
			samples[ch][i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[off : off+4]))
		}
	}

	return &audio.Tensor{Samples: samples, SampleRate: sampleRate}, nil
}

// readErrorBody returns the first line of a worker error body.
func readErrorBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	msg := strings.TrimSpace(string(data))

	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(data, &payload) == nil {
		switch {
		case payload.Error != "":
			msg = payload.Error
		case payload.Detail != "":
			msg = payload.Detail
		}
	}

	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	if msg == "" {
		return "empty response"
	}

	return msg
}
