package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"telegram-game-bot/internal/config"
	"telegram-game-bot/internal/infra/metrics"
)

// Banner is served on GET / so uptime probes get a plain answer.
const Banner = "Telegram game bot is running."

// Registrar mounts versioned routes under the root router.
type Registrar interface {
	Register(r chi.Router)
}

// Server is the process HTTP surface: banner, health, metrics and the admin
// API.
type Server struct {
	cfg        config.HTTPConfig
	botRunning func() bool
	v1         Registrar
	server     *http.Server
	log        *zerolog.Logger
}

func NewServer(cfg config.HTTPConfig, botRunning func() bool, v1 Registrar, logger *zerolog.Logger) *Server {
	if botRunning == nil {
		botRunning = func() bool { return false }
	}
	s := &Server{cfg: cfg, botRunning: botRunning, v1: v1, log: logger}
	// Shutdown may be called concurrently with Start.
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the handler tree; exposed for tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID, Recover(s.log), RequestLog(s.log))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(Banner))
	})
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	if s.v1 != nil {
		r.Route("/api/v1", func(r chi.Router) {
			r.Use(Timeout(30 * time.Second))
			s.v1.Register(r)
		})
	}
	return r
}

type healthResponse struct {
	Status     string `json:"status"`
	BotRunning bool   `json:"bot_running"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{Status: "healthy", BotRunning: s.botRunning()})
}

// Start blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
