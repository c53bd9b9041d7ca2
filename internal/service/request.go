package service

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ekisa-team/chatterbox-serve/internal/config"
)

// Request defaults applied when a field is absent.
const (
	DefaultVoice             = "neutral"
	DefaultEmotion           = "professional"
	DefaultExaggeration      = 0.5
	DefaultNumInferenceSteps = 400
)

// RawRequest is a speech request as decoded from the wire. Nil fields were absent.
type RawRequest struct {
	Voice             *string
	Emotion           *string
	Exaggeration      *float64
	NumInferenceSteps *int
	Text              string
}

// Request is a validated speech request.
// Voice, Emotion and NumInferenceSteps are kept for API compatibility and never reach the model.
type Request struct {
	Text              string
	Voice             string
	Emotion           string
	Exaggeration      float64
	NumInferenceSteps int
}

// Limits bounds the work a request may cause.
type Limits struct {
	MaxTextLength     int
	QueueTimeout      time.Duration
	GenerationTimeout time.Duration
}

// LimitsFromConfig converts configured limits.
func LimitsFromConfig(c config.LimitsConfig) Limits {
	return Limits{
		MaxTextLength:     c.MaxTextLength,
		QueueTimeout:      c.QueueTimeout(),
		GenerationTimeout: c.GenerationTimeout(),
	}
}

// ValidationError is a request the caller must fix.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks raw against limits and fills defaults.
func Validate(raw RawRequest, limits Limits) (Request, error) {
	if strings.TrimSpace(raw.Text) == "" {
		return Request{}, &ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if limits.MaxTextLength > 0 {
		if n := utf8.RuneCountInString(raw.Text); n > limits.MaxTextLength {
			return Request{}, &ValidationError{
				Field:  "text",
				Reason: fmt.Sprintf("length %d exceeds maximum of %d characters", n, limits.MaxTextLength),
			}
		}
	}

	req := Request{
		Text:              raw.Text,
		Voice:             valueOr(raw.Voice, DefaultVoice),
		Emotion:           valueOr(raw.Emotion, DefaultEmotion),
		Exaggeration:      valueOr(raw.Exaggeration, DefaultExaggeration),
		NumInferenceSteps: valueOr(raw.NumInferenceSteps, DefaultNumInferenceSteps),
	}

	if math.IsNaN(req.Exaggeration) || math.IsInf(req.Exaggeration, 0) {
		return Request{}, &ValidationError{Field: "exaggeration", Reason: "must be a finite number"}
	}
	if req.Exaggeration < 0 || req.Exaggeration > 1 {
		return Request{}, &ValidationError{
			Field:  "exaggeration",
			Reason: fmt.Sprintf("%g is outside [0, 1]", req.Exaggeration),
		}
	}

	return req, nil
}

// GuidanceWeight maps exaggeration to the classifier-free guidance weight passed to the model.
func GuidanceWeight(exaggeration float64) float64 {
	return 1.0 - exaggeration
}

func valueOr[T any](v *T, def T) T {
	if v == nil {
		return def
	}

	return *v
}
