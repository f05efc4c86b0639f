package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"telegram-game-bot/internal/domain/ports/repository"
)

var _ repository.RateLimiter = (*RateLimiter)(nil)

// RateLimiter is a fixed-window counter per key.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return false, errors.New("rate limit: limit and window must be positive")
	}
	n, err := r.client.IncrWindow(ctx, key, window)
	if err != nil {
		return false, err
	}
	return n <= int64(limit), nil
}

// UserCommandKey is rate_limit:<uid>:<command>.
func UserCommandKey(userID int64, command string) string {
	return "rate_limit:" + strconv.FormatInt(userID, 10) + ":" + command
}
