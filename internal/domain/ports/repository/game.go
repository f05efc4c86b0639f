package repository

import (
	"context"
	"time"

	"telegram-game-bot/internal/domain/model"
)

// GameRepository stores the single active game of each chat. Implementations
// also keep an index of chats with a stored game so timers can be resumed.
type GameRepository interface {
	Save(ctx context.Context, g *model.Game) error
	// Get returns domain.ErrNotFound when the chat has no stored game.
	Get(ctx context.Context, chatID int64) (*model.Game, error)
	Delete(ctx context.Context, chatID int64) error
	ActiveChats(ctx context.Context) ([]int64, error)

	// BindPoll remembers which chat a quiz poll belongs to; poll answers do
	// not carry a chat id.
	BindPoll(ctx context.Context, pollID string, chatID int64, ttl time.Duration) error
	ChatByPoll(ctx context.Context, pollID string) (int64, error)
}

// Locker serialises mutations of one chat's game across workers and replicas.
type Locker interface {
	// TryLock returns domain.ErrBusy when the key is held by someone else.
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	// Extend refreshes the TTL of a lock still held under token.
	Extend(ctx context.Context, key, token string, ttl time.Duration) error
	Unlock(ctx context.Context, key, token string) error
}

// RateLimiter counts events per key inside a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
