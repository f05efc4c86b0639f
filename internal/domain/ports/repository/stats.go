package repository

import (
	"context"

	"telegram-game-bot/internal/domain/model"
)

// -----------------------------
// Scores
// -----------------------------

type UserStatsRepository interface {
	// AddScore increments the user's total and per-group score, creating the
	// row on first use and refreshing the stored username.
	AddScore(ctx context.Context, tx Tx, userID int64, username string, chatID int64, points int64) error
	// IncGamesPlayed bumps games_played for every listed player.
	IncGamesPlayed(ctx context.Context, tx Tx, players []model.Player) error
	FindByUserID(ctx context.Context, tx Tx, userID int64) (*model.UserStats, error)
	TopWorldwide(ctx context.Context, tx Tx, limit int) ([]model.LeaderboardEntry, error)
	TopInGroup(ctx context.Context, tx Tx, chatID int64, limit int) ([]model.LeaderboardEntry, error)
}

// -----------------------------
// Groups
// -----------------------------

type GroupRepository interface {
	// Upsert stores the group as active and reports whether it was new.
	Upsert(ctx context.Context, tx Tx, g *model.Group) (created bool, err error)
	FindByChatID(ctx context.Context, tx Tx, chatID int64) (*model.Group, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Group, error)
	Deactivate(ctx context.Context, tx Tx, chatID int64) error
	CountActive(ctx context.Context, tx Tx) (int, error)
}

// -----------------------------
// Content
// -----------------------------

type ContentRepository interface {
	ListByType(ctx context.Context, tx Tx, t model.GameType) ([]model.ContentItem, error)
	Save(ctx context.Context, tx Tx, item *model.ContentItem) error
	CountByType(ctx context.Context, tx Tx) (map[model.GameType]int, error)
}
