package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/faiface/beep/wav"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/chatterbox-serve/internal/audio"
	"github.com/ekisa-team/chatterbox-serve/internal/backend"
	"github.com/ekisa-team/chatterbox-serve/internal/device"
	"github.com/ekisa-team/chatterbox-serve/internal/model"
	"github.com/ekisa-team/chatterbox-serve/internal/service"
)

const testSampleRate = 24000

type generateCall struct {
	text   string
	weight float64
}

// fakeModel records calls and returns a fixed waveform, or err when set.
type fakeModel struct {
	err   error
	calls []generateCall
	mu    sync.Mutex
}

func (m *fakeModel) Generate(_ context.Context, text string, weight float64) (*audio.Tensor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, generateCall{text: text, weight: weight})
	if m.err != nil {
		return nil, m.err
	}

	return audio.NewMono(make([]float32, testSampleRate/2), testSampleRate), nil
}

func (m *fakeModel) Info() backend.ModelInfo {
	return backend.ModelInfo{Architecture: "chatterbox", SampleRate: testSampleRate}
}

var testLimits = service.Limits{MaxTextLength: 100, QueueTimeout: time.Second, GenerationTimeout: time.Second}

func newTestServer(t *testing.T, m backend.Model) (*Server, *model.Registry) {
	t.Helper()

	registry := model.NewRegistry()
	if m != nil {
		h := model.NewHandle(backend.BackendProviderChatterbox, m, &backend.LoadOptions{Device: device.HostCPU})
		require.NoError(t, registry.Store(h))
	}

	return New(":0", "test", service.NewTTS(registry, testLimits), registry), registry
}

func do(t *testing.T, s *Server, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	decodeJSON(t, rec, &body)
	assert.Equal(t, map[string]any{"status": "healthy", "model_loaded": false}, body)

	s, _ = newTestServer(t, &fakeModel{})
	rec = do(t, s, http.MethodGet, "/health", "")
	decodeJSON(t, rec, &body)
	assert.Equal(t, true, body["model_loaded"])
}

func TestVoices(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/voices", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body VoicesResponseDTO
	decodeJSON(t, rec, &body)
	assert.Equal(t, service.Voices(), body.Voices)
	assert.Equal(t, service.Emotions(), body.Emotions)
}

func TestReady(t *testing.T) {
	s, registry := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body ReadyResponseDTO
	decodeJSON(t, rec, &body)
	assert.Equal(t, "unloaded", body.Status)

	require.NoError(t, registry.MarkLoading())
	require.NoError(t, registry.MarkFailed(errors.New("checkpoint missing\nstack trace")))

	rec = do(t, s, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	decodeJSON(t, rec, &body)
	assert.Equal(t, ReadyResponseDTO{Status: "failed", Error: "checkpoint missing"}, body)

	s, _ = newTestServer(t, &fakeModel{})
	rec = do(t, s, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSpeech_Success(t *testing.T) {
	m := &fakeModel{}
	s, _ := newTestServer(t, m)

	rec := do(t, s, http.MethodPost, "/v1/audio/speech", `{"text":"Hello world","exaggeration":0.25,"voice":"female"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "audio/wav", rec.Header().Get("Content-Type"))
	assert.Equal(t, strconv.Itoa(rec.Body.Len()), rec.Header().Get("Content-Length"))
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))

	stream, format, err := wav.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer stream.Close()
	assert.Equal(t, testSampleRate, int(format.SampleRate))
	assert.Equal(t, testSampleRate/2, stream.Len())

	assert.Equal(t, []generateCall{{text: "Hello world", weight: 0.75}}, m.calls)
}

func TestSpeech_Defaults(t *testing.T) {
	m := &fakeModel{}
	s, _ := newTestServer(t, m)

	rec := do(t, s, http.MethodPost, "/v1/audio/speech", `{"text":"Hi","speed":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []generateCall{{text: "Hi", weight: 0.5}}, m.calls)
}

func TestSpeech_Errors(t *testing.T) {
	tests := []struct {
		name   string
		model  backend.Model
		body   string
		status int
		prefix string
	}{
		{
			name:   "empty text",
			model:  &fakeModel{},
			body:   `{"text":"   "}`,
			status: http.StatusBadRequest,
			prefix: "Error generating speech: invalid text",
		},
		{
			name:   "text too long",
			model:  &fakeModel{},
			body:   `{"text":"` + strings.Repeat("a", 101) + `"}`,
			status: http.StatusBadRequest,
			prefix: "Error generating speech: invalid text",
		},
		{
			name:   "exaggeration out of range",
			model:  &fakeModel{},
			body:   `{"text":"hi","exaggeration":1.5}`,
			status: http.StatusBadRequest,
			prefix: "Error generating speech: invalid exaggeration",
		},
		{
			name:   "model not loaded",
			body:   `{"text":"hi"}`,
			status: http.StatusServiceUnavailable,
			prefix: "Error generating speech: model not loaded",
		},
		{
			name:   "generation failed",
			model:  &fakeModel{err: errors.New("CUDA out of memory\nTraceback (most recent call last)")},
			body:   `{"text":"hi"}`,
			status: http.StatusInternalServerError,
			prefix: "Error generating speech: generation failed: CUDA out of memory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, tt.model)
			rec := do(t, s, http.MethodPost, "/v1/audio/speech", tt.body)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.True(t, strings.HasPrefix(rec.Body.String(), tt.prefix), rec.Body.String())
			assert.NotContains(t, rec.Body.String(), "\n")
		})
	}
}

func TestSpeech_SchemaErrors(t *testing.T) {
	m := &fakeModel{}
	s, _ := newTestServer(t, m)

	for _, body := range []string{`{}`, `{"text":42}`, `{"text":"hi","exaggeration":"high"}`, `{"text":`} {
		rec := do(t, s, http.MethodPost, "/v1/audio/speech", body)
		assert.Contains(t, []int{http.StatusBadRequest, http.StatusUnprocessableEntity}, rec.Code, body)
	}

	assert.Empty(t, m.calls)
}

func TestRequestID(t *testing.T) {
	s, _ := newTestServer(t, nil)

	id := uuid.NewString()
	rec := do(t, s, http.MethodGet, "/health", "", HeaderRequestID, id)
	assert.Equal(t, id, rec.Header().Get(HeaderRequestID))

	rec = do(t, s, http.MethodGet, "/health", "", HeaderRequestID, "not-a-uuid")
	_, err := uuid.Parse(rec.Header().Get(HeaderRequestID))
	assert.NoError(t, err)
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t, &fakeModel{})

	rec := do(t, s, http.MethodOptions, "/v1/audio/speech", "",
		"Origin", "https://app.example.com",
		"Access-Control-Request-Method", http.MethodPost,
		"Access-Control-Request-Headers", "Content-Type")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.MethodPost, rec.Header().Get("Access-Control-Allow-Methods"))

	rec = do(t, s, http.MethodGet, "/health", "", "Origin", "http://localhost:3000")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestOpenAPI(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/openapi.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/v1/audio/speech")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: &service.ValidationError{Field: "text", Reason: "empty"}, want: http.StatusBadRequest},
		{err: service.ErrModelNotReady, want: http.StatusServiceUnavailable},
		{err: service.ErrTimeout, want: http.StatusServiceUnavailable},
		{err: &service.GenerationError{Err: errors.New("boom")}, want: http.StatusInternalServerError},
		{err: audio.ErrEmptyAudio, want: http.StatusInternalServerError},
		{err: errors.New("unexpected"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "first line", summarize(errors.New("first line\nsecond line")))
	assert.Equal(t, 200, len([]rune(summarize(errors.New(strings.Repeat("é", 500))))))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short"))
	assert.Equal(t, strings.Repeat("x", 50)+"...", preview(strings.Repeat("x", 80)))
}
