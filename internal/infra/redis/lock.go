package redis

import (
	"context"
	"time"

	"telegram-game-bot/internal/domain"
	"telegram-game-bot/internal/domain/ports/repository"

	"github.com/google/uuid"
)

var _ repository.Locker = (*RedisLocker)(nil)

const (
	lockAttempts = 5
	lockBackoff  = 50 * time.Millisecond
)

type RedisLocker struct {
	client RedisClient
}

func NewLocker(c RedisClient) *RedisLocker {
	return &RedisLocker{client: c}
}

// TryLock retries briefly and gives up with domain.ErrBusy.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	var lastErr error
	for i := 0; i < lockAttempts; i++ {
		ok, err := l.client.SetNX(ctx, key, token, ttl)
		if err == nil && ok {
			return token, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(lockBackoff):
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", domain.ErrBusy
}

// Extend pushes the expiry of a held lock forward. It fails with
// domain.ErrBusy once the lock has expired or changed hands.
func (l *RedisLocker) Extend(ctx context.Context, key, token string, ttl time.Duration) error {
	ok, err := l.client.CompareAndExpire(ctx, key, token, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrBusy
	}
	return nil
}

func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	_, err := l.client.CompareAndDelete(ctx, key, token)
	return err
}
