package apiv1

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"telegram-game-bot/internal/domain"
	"telegram-game-bot/internal/infra/logging"
	"telegram-game-bot/internal/infra/metrics"
	"telegram-game-bot/internal/usecase"
)

// Server is the admin API. Every route except POST /token needs a bearer
// token from AuthManager.
type Server struct {
	GameUC  usecase.GameUseCase
	StatsUC usecase.StatsUseCase
	GroupUC usecase.GroupUseCase

	auth *AuthManager
	log  *zerolog.Logger
}

func NewServer(gameUC usecase.GameUseCase, statsUC usecase.StatsUseCase, groupUC usecase.GroupUseCase, auth *AuthManager, logger *zerolog.Logger) *Server {
	return &Server{GameUC: gameUC, StatsUC: statsUC, GroupUC: groupUC, auth: auth, log: logger}
}

// Register mounts the routes on r, which is expected to sit at /api/v1.
func (s *Server) Register(r chi.Router) {
	r.Post("/token", s.handleToken)
	r.Group(func(r chi.Router) {
		r.Use(s.auth.Guard)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/games", s.handleGames)
		r.Get("/stats", s.handleStats)
		r.Post("/broadcast", s.handleBroadcast)
	})
}

// ===== DTOs =====

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type LeaderboardItem struct {
	Rank     int    `json:"rank"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Score    int64  `json:"score"`
}

type LeaderboardResponse struct {
	Scope  string            `json:"scope"` // world|group
	ChatID int64             `json:"chat_id,omitempty"`
	Items  []LeaderboardItem `json:"items"`
}

type GameItem struct {
	ID           string    `json:"id"`
	ChatID       int64     `json:"chat_id"`
	Type         string    `json:"game_type"`
	Status       string    `json:"status"`
	Players      int       `json:"players"`
	Round        int       `json:"current_round"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity_time"`
}

type BroadcastRequest struct {
	Message string `json:"message"`
}

type BroadcastResponse struct {
	Sent        int `json:"sent"`
	Failed      int `json:"failed"`
	Deactivated int `json:"deactivated"`
}

type StatsResponse struct {
	ActiveGroups int            `json:"active_groups"`
	ActiveGames  int            `json:"active_games"`
	Content      map[string]int `json:"content"`
}

// ===== handlers =====

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if !s.auth.Enabled() {
		logging.With(r.Context(), s.log).Error().Msg("admin API key or JWT secret is not configured")
		writeError(w, http.StatusForbidden, "admin api disabled")
		return
	}
	key := r.Header.Get("X-Admin-Key")
	if key == "" {
		key, _ = bearer(r)
	}
	if key == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !s.auth.CheckAPIKey(key) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	tok, exp, err := s.auth.Mint("admin-api")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, TokenResponse{Token: tok, ExpiresAt: exp})
}

// handleLeaderboard serves the worldwide board, or one group's with ?chat_id=.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := LeaderboardResponse{Scope: "world", Items: []LeaderboardItem{}}

	raw := strings.TrimSpace(r.URL.Query().Get("chat_id"))
	var err error
	if raw != "" {
		chatID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "chat_id must be an integer")
			return
		}
		resp.Scope, resp.ChatID = "group", chatID
		entries, gerr := s.StatsUC.GroupLeaderboard(ctx, chatID)
		for i, e := range entries {
			resp.Items = append(resp.Items, LeaderboardItem{Rank: i + 1, UserID: e.UserID, Username: e.Username, Score: e.Score})
		}
		err = gerr
	} else {
		entries, werr := s.StatsUC.WorldLeaderboard(ctx)
		for i, e := range entries {
			resp.Items = append(resp.Items, LeaderboardItem{Rank: i + 1, UserID: e.UserID, Username: e.Username, Score: e.Score})
		}
		err = werr
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.GameUC.ActiveGames(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items := make([]GameItem, 0, len(games))
	for _, g := range games {
		items = append(items, GameItem{
			ID:           g.ID,
			ChatID:       g.ChatID,
			Type:         string(g.Type),
			Status:       string(g.Status),
			Players:      len(g.Players),
			Round:        g.Round,
			CreatedAt:    g.CreatedAt,
			LastActivity: g.LastActivity,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	totals, err := s.StatsUC.Totals(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	games, err := s.GameUC.ActiveGames(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := StatsResponse{ActiveGroups: totals.ActiveGroups, ActiveGames: len(games), Content: map[string]int{}}
	for t, n := range totals.Content {
		resp.Content[string(t)] = n
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	metrics.IncAdminCommand("api:broadcast", "authorized")
	res, err := s.GroupUC.Broadcast(r.Context(), msg)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BroadcastResponse{Sent: res.Sent, Failed: res.Failed, Deactivated: res.Deactivated})
}

// ===== helpers =====

// fail maps domain errors to status codes and logs the unexpected ones.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrUnknownGameType):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNoGame):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logging.With(r.Context(), s.log).Error().Err(err).Str("path", r.URL.Path).Msg("admin api request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
