package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ekisa-team/chatterbox-serve/internal/model"
	"github.com/ekisa-team/chatterbox-serve/internal/service"
)

type (
	HealthResponseDTO struct {
		Status      string `json:"status"       example:"healthy"`
		ModelLoaded bool   `json:"model_loaded" doc:"Whether the model is loaded and serving"`
	}

	ReadyResponseDTO struct {
		Status string `json:"status"          example:"ready" enum:"unloaded,loading,ready,failed"`
		Error  string `json:"error,omitempty" doc:"Load failure, when status is failed"`
	}

	VoicesResponseDTO struct {
		Voices   []string `json:"voices"`
		Emotions []string `json:"emotions"`
	}
)

type (
	HealthOutput struct {
		Body HealthResponseDTO
	}

	ReadyOutput struct {
		Status int
		Body   ReadyResponseDTO
	}

	VoicesOutput struct {
		Body VoicesResponseDTO
	}
)

// HealthHandler reports liveness, readiness and the voice catalog.
type HealthHandler struct {
	models *model.Registry
}

// NewHealthHandler registers the health routes.
func NewHealthHandler(api huma.API, models *model.Registry) *HealthHandler {
	h := &HealthHandler{models: models}

	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"health"},
	}, h.handleHealth)

	huma.Register(api, huma.Operation{
		OperationID: "ready",
		Method:      http.MethodGet,
		Path:        "/ready",
		Summary:     "Readiness check",
		Tags:        []string{"health"},
		Responses: map[string]*huma.Response{
			"503": {Description: "Model is not loaded"},
		},
	}, h.handleReady)

	huma.Register(api, huma.Operation{
		OperationID: "list-voices",
		Method:      http.MethodGet,
		Path:        "/voices",
		Summary:     "List available voices and emotions",
		Tags:        []string{"tts"},
	}, h.handleVoices)

	return h
}

func (h *HealthHandler) handleHealth(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	return &HealthOutput{
		Body: HealthResponseDTO{
			Status:      "healthy",
			ModelLoaded: h.models.IsReady(),
		},
	}, nil
}

func (h *HealthHandler) handleReady(_ context.Context, _ *struct{}) (*ReadyOutput, error) {
	out := &ReadyOutput{
		Status: http.StatusOK,
		Body:   ReadyResponseDTO{Status: h.models.Status().String()},
	}

	if !h.models.IsReady() {
		out.Status = http.StatusServiceUnavailable
		if err := h.models.Err(); err != nil {
			out.Body.Error = summarize(err)
		}
	}

	return out, nil
}

func (h *HealthHandler) handleVoices(_ context.Context, _ *struct{}) (*VoicesOutput, error) {
	return &VoicesOutput{
		Body: VoicesResponseDTO{
			Voices:   service.Voices(),
			Emotions: service.Emotions(),
		},
	}, nil
}
