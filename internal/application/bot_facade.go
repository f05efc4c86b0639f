package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"telegram-game-bot/internal/domain"
	"telegram-game-bot/internal/domain/model"
	"telegram-game-bot/internal/infra/i18n"
	"telegram-game-bot/internal/usecase"
)

// BotFacade composes use cases into chat-level commands. Methods return the
// localized text to send, so adapters only forward it.
type BotFacade struct {
	GameUC  usecase.GameUseCase
	StatsUC usecase.StatsUseCase
	GroupUC usecase.GroupUseCase

	tr *i18n.Translator
}

func NewBotFacade(gameUC usecase.GameUseCase, statsUC usecase.StatsUseCase, groupUC usecase.GroupUseCase, tr *i18n.Translator) *BotFacade {
	return &BotFacade{GameUC: gameUC, StatsUC: statsUC, GroupUC: groupUC, tr: tr}
}

func (b *BotFacade) T(key string, args ...interface{}) string { return b.tr.T(key, args...) }

// HandleStart records where /start came from and returns the greeting.
func (b *BotFacade) HandleStart(ctx context.Context, in usecase.StartInfo) (string, error) {
	if err := b.GroupUC.RegisterStart(ctx, in); err != nil {
		return "", fmt.Errorf("register start: %w", err)
	}
	return b.tr.T("welcome", displayName(in.FullName, in.Username, in.UserID)), nil
}

func (b *BotFacade) HandleGroupLeaderboard(ctx context.Context, chatID int64) (string, error) {
	entries, err := b.StatsUC.GroupLeaderboard(ctx, chatID)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return b.tr.T("lb_group_empty"), nil
	}
	return b.formatBoard("lb_group_header", entries), nil
}

func (b *BotFacade) HandleWorldLeaderboard(ctx context.Context) (string, error) {
	entries, err := b.StatsUC.WorldLeaderboard(ctx)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return b.tr.T("lb_world_empty"), nil
	}
	return b.formatBoard("lb_world_header", entries), nil
}

func (b *BotFacade) formatBoard(headerKey string, entries []model.LeaderboardEntry) string {
	var sb strings.Builder
	sb.WriteString(b.tr.T(headerKey))
	for i, e := range entries {
		sb.WriteString("\n")
		sb.WriteString(b.tr.T("lb_line", i+1, displayName("", e.Username, e.UserID), e.Score))
	}
	return sb.String()
}

func (b *BotFacade) HandleMyStats(ctx context.Context, userID int64, name string) (string, error) {
	st, err := b.StatsUC.MyStats(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return b.tr.T("stats_none"), nil
	}
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(b.tr.T("stats_header", displayName(name, st.Stats.Username, userID), st.Stats.TotalScore, st.Stats.GamesPlayed))
	if len(st.Groups) > 0 {
		sb.WriteString("\n\n" + b.tr.T("stats_groups_header"))
		for _, g := range st.Groups {
			title := g.Title
			if title == "" {
				title = b.tr.T("stats_group_fallback", g.ChatID)
			}
			sb.WriteString("\n" + b.tr.T("stats_group_line", title, g.Score))
		}
	}
	return sb.String(), nil
}

// HandleEndGame returns an empty string on success; the game itself announces
// the end.
func (b *BotFacade) HandleEndGame(ctx context.Context, chatID, userID int64) (string, error) {
	err := b.GameUC.EndGame(ctx, chatID, userID)
	switch {
	case err == nil:
		return "", nil
	case errors.Is(err, domain.ErrNotAdmin):
		return b.tr.T("endgame_not_admin"), nil
	case errors.Is(err, domain.ErrNoGame):
		return b.tr.T("no_active_game"), nil
	case errors.Is(err, domain.ErrBusy):
		return b.tr.T("busy"), nil
	}
	return "", err
}

func (b *BotFacade) HandleBroadcast(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return b.tr.T("broadcast_usage"), nil
	}
	res, err := b.GroupUC.Broadcast(ctx, message)
	if err != nil {
		return "", err
	}
	return b.tr.T("broadcast_done", res.Sent, res.Failed), nil
}

// displayName prefers the full name, then @username, then the numeric id.
func displayName(full, username string, id int64) string {
	if s := strings.TrimSpace(full); s != "" {
		return s
	}
	if s := strings.TrimSpace(username); s != "" {
		return s
	}
	return fmt.Sprintf("User %d", id)
}
