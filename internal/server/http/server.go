// Package http exposes the speech API over HTTP.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/rs/cors"

	"github.com/ekisa-team/chatterbox-serve/internal/model"
	"github.com/ekisa-team/chatterbox-serve/internal/service"
)

const (
	apiTitle          = "Chatterbox TTS API"
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
)

// Server is the HTTP front end.
type Server struct {
	httpServer *http.Server
	api        huma.API
}

// New creates a server listening on addr.
func New(addr, version string, tts *service.TTS, models *model.Registry) *Server {
	mux := http.NewServeMux()

	cfg := huma.DefaultConfig(apiTitle, version)
	cfg.Info.Description = "Text-to-speech using the Chatterbox model."
	cfg.CreateHooks = nil

	api := humago.New(mux, cfg)

	NewHealthHandler(api, models)
	NewSpeechHandler(api, tts)

	handler := cors.AllowAll().Handler(withRequestID(withAccessLog(mux)))

	return &Server{
		api: api,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			IdleTimeout:       idleTimeout,
		},
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// API returns the huma API.
func (s *Server) API() huma.API {
	return s.api
}

// Serve accepts connections on l until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	slog.Info("HTTP server listening", "addr", l.Addr().String())

	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
