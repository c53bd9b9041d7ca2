package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ekisa-team/chatterbox-serve/internal/audio"
	"github.com/ekisa-team/chatterbox-serve/internal/model"
)

// TTS runs speech synthesis against the single loaded model.
type TTS struct {
	models *model.Registry
	sem    *semaphore.Weighted
	limits atomic.Pointer[Limits]
}

// NewTTS creates a new TTS service.
func NewTTS(models *model.Registry, limits Limits) *TTS {
	s := &TTS{
		models: models,
		sem:    semaphore.NewWeighted(1),
	}
	s.limits.Store(&limits)

	return s
}

// Limits returns the limits in effect.
func (s *TTS) Limits() Limits {
	return *s.limits.Load()
}

// SetLimits replaces the limits for subsequent requests.
func (s *TTS) SetLimits(l Limits) {
	s.limits.Store(&l)
	slog.Info("Request limits updated",
		"max_text_length", l.MaxTextLength,
		"queue_timeout", l.QueueTimeout,
		"generation_timeout", l.GenerationTimeout)
}

// Synthesize generates speech for req. Calls into the model never overlap.
func (s *TTS) Synthesize(ctx context.Context, req Request) (*audio.Tensor, error) {
	h, ok := s.models.Get()
	if !ok {
		return nil, ErrModelNotReady
	}

	weight := GuidanceWeight(req.Exaggeration)
	limits := s.Limits()

	waitStart := time.Now()
	if err := s.acquire(ctx, limits.QueueTimeout); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	slog.Debug("Acquired model", "waited", time.Since(waitStart).Round(time.Millisecond))

	genCtx := ctx
	if limits.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, limits.GenerationTimeout)
		defer cancel()
	}

	tensor, err := generate(genCtx, h, req.Text, weight)
	switch {
	case err == nil && tensor == nil:
		return nil, &GenerationError{Err: errors.New("model returned no audio")}
	case err == nil:
		return tensor, nil
	case ctx.Err() != nil:
		return nil, fmt.Errorf("request canceled: %w", ctx.Err())
	case errors.Is(genCtx.Err(), context.DeadlineExceeded):
		return nil, fmt.Errorf("%w: generation exceeded %s", ErrTimeout, limits.GenerationTimeout)
	default:
		return nil, &GenerationError{Err: err}
	}
}

// acquire waits at most timeout for the model.
func (s *TTS) acquire(ctx context.Context, timeout time.Duration) error {
	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := s.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("request canceled: %w", ctx.Err())
		}
		return fmt.Errorf("%w: waited %s in queue", ErrTimeout, timeout)
	}

	return nil
}

// generate calls the model, turning a panic into an error.
func generate(ctx context.Context, h *model.Handle, text string, weight float64) (tensor *audio.Tensor, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model panicked: %v", r)
		}
	}()

	return h.Generate(ctx, text, weight)
}
