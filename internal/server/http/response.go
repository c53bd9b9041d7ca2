package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/ekisa-team/chatterbox-serve/internal/service"
)

const (
	contentTypeText = "text/plain; charset=utf-8"
	errorPrefix     = "Error generating speech: "
	maxSummaryRunes = 200
)

// StatusFor maps a request failure to an HTTP status.
// Generation and encoding failures, and anything unclassified, are server faults.
func StatusFor(err error) int {
	var (
		validationErr *service.ValidationError
		generationErr *service.GenerationError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrModelNotReady), errors.Is(err, service.ErrTimeout):
		return http.StatusServiceUnavailable
	case errors.As(err, &generationErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// errorOutput builds the plain-text failure response and logs the full error.
func errorOutput(ctx context.Context, err error) *SpeechOutput {
	status := StatusFor(err)

	log := slog.Error
	if status < http.StatusInternalServerError {
		log = slog.Warn
	}
	log("Error generating speech", "request_id", RequestID(ctx), "status", status, "error", err)

	body := []byte(errorPrefix + summarize(err))

	return &SpeechOutput{
		Status:        status,
		ContentType:   contentTypeText,
		ContentLength: len(body),
		Body:          body,
	}
}

// summarize reduces err to a single line of at most maxSummaryRunes.
func summarize(err error) string {
	msg := strings.TrimSpace(err.Error())
	if i := strings.IndexAny(msg, "\r\n"); i >= 0 {
		msg = strings.TrimSpace(msg[:i])
	}

	if utf8.RuneCountInString(msg) > maxSummaryRunes {
		msg = string([]rune(msg)[:maxSummaryRunes])
	}

	return msg
}
