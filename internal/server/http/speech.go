package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ekisa-team/chatterbox-serve/internal/audio"
	"github.com/ekisa-team/chatterbox-serve/internal/service"
)

const textPreviewRunes = 50

type (
	SpeechRequestDTO struct {
		_                 struct{} `json:"-" additionalProperties:"true"`
		Voice             *string  `json:"voice,omitempty"               doc:"Advisory voice name" example:"neutral"`
		Emotion           *string  `json:"emotion,omitempty"             doc:"Advisory emotion name" example:"professional"`
		Exaggeration      *float64 `json:"exaggeration,omitempty"        doc:"Expressiveness in [0, 1]" example:"0.5"`
		NumInferenceSteps *int     `json:"num_inference_steps,omitempty" doc:"Advisory step count" example:"400"`
		Text              string   `json:"text"                          doc:"Text to synthesize" example:"Hello from Chatterbox."`
	}
)

type (
	SpeechInput struct {
		Body SpeechRequestDTO
	}

	SpeechOutput struct {
		ContentType   string `header:"Content-Type"`
		Status        int
		ContentLength int `header:"Content-Length"`
		Body          []byte
	}
)

// SpeechHandler handles speech synthesis requests.
type SpeechHandler struct {
	service *service.TTS
}

// NewSpeechHandler registers the speech route.
func NewSpeechHandler(api huma.API, service *service.TTS) *SpeechHandler {
	h := &SpeechHandler{service: service}

	huma.Register(api, huma.Operation{
		OperationID:   "create-speech",
		Method:        http.MethodPost,
		Path:          "/v1/audio/speech",
		Summary:       "Synthesize speech from text",
		Description:   "Returns a 16-bit PCM WAV file. Errors are returned as plain text.",
		Tags:          []string{"tts"},
		DefaultStatus: http.StatusOK,
		Responses: map[string]*huma.Response{
			"200": {
				Description: "WAV audio",
				Content:     map[string]*huma.MediaType{audio.ContentTypeWAV: {}},
			},
			"400": {Description: "Invalid request", Content: map[string]*huma.MediaType{contentTypeText: {}}},
			"500": {Description: "Generation failed", Content: map[string]*huma.MediaType{contentTypeText: {}}},
			"503": {Description: "Model not loaded or busy", Content: map[string]*huma.MediaType{contentTypeText: {}}},
		},
	}, h.handleSpeech)

	return h
}

func (h *SpeechHandler) handleSpeech(ctx context.Context, input *SpeechInput) (*SpeechOutput, error) {
	start := time.Now()
	body := input.Body

	req, err := service.Validate(service.RawRequest{
		Text:              body.Text,
		Voice:             body.Voice,
		Emotion:           body.Emotion,
		Exaggeration:      body.Exaggeration,
		NumInferenceSteps: body.NumInferenceSteps,
	}, h.service.Limits())
	if err != nil {
		return errorOutput(ctx, err), nil
	}

	slog.Info("Generating speech",
		"request_id", RequestID(ctx),
		"text", preview(req.Text),
		"voice", req.Voice,
		"emotion", req.Emotion,
		"exaggeration", req.Exaggeration,
		"guidance_weight", service.GuidanceWeight(req.Exaggeration))

	tensor, err := h.service.Synthesize(ctx, req)
	if err != nil {
		return errorOutput(ctx, err), nil
	}

	encoded, err := audio.EncodeWAV(tensor)
	if err != nil {
		return errorOutput(ctx, err), nil
	}

	slog.Info("Speech generated",
		"request_id", RequestID(ctx),
		"frames", encoded.Frames,
		"sample_rate", encoded.SampleRate,
		"bytes", len(encoded.Data),
		"elapsed", time.Since(start).Round(time.Millisecond))

	return &SpeechOutput{
		Status:        http.StatusOK,
		ContentType:   encoded.ContentType(),
		ContentLength: len(encoded.Data),
		Body:          encoded.Data,
	}, nil
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= textPreviewRunes {
		return text
	}

	return string([]rune(text)[:textPreviewRunes]) + "..."
}
