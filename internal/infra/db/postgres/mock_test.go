//go:build !integration

package postgres

import (
	"context"
	"time"

	"telegram-game-bot/internal/domain/model"
	"telegram-game-bot/internal/domain/ports/repository"
	red "telegram-game-bot/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerStatsRepo mocks the database repository that the stats decorator wraps.
type mockInnerStatsRepo struct {
	AddScoreFunc       func(ctx context.Context, tx repository.Tx, userID int64, username string, chatID int64, points int64) error
	IncGamesPlayedFunc func(ctx context.Context, tx repository.Tx, players []model.Player) error
	FindByUserIDFunc   func(ctx context.Context, tx repository.Tx, userID int64) (*model.UserStats, error)
	TopWorldwideFunc   func(ctx context.Context, tx repository.Tx, limit int) ([]model.LeaderboardEntry, error)
	TopInGroupFunc     func(ctx context.Context, tx repository.Tx, chatID int64, limit int) ([]model.LeaderboardEntry, error)
}

func (m *mockInnerStatsRepo) AddScore(ctx context.Context, tx repository.Tx, userID int64, username string, chatID int64, points int64) error {
	return m.AddScoreFunc(ctx, tx, userID, username, chatID, points)
}
func (m *mockInnerStatsRepo) IncGamesPlayed(ctx context.Context, tx repository.Tx, players []model.Player) error {
	return m.IncGamesPlayedFunc(ctx, tx, players)
}
func (m *mockInnerStatsRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID int64) (*model.UserStats, error) {
	return m.FindByUserIDFunc(ctx, tx, userID)
}
func (m *mockInnerStatsRepo) TopWorldwide(ctx context.Context, tx repository.Tx, limit int) ([]model.LeaderboardEntry, error) {
	return m.TopWorldwideFunc(ctx, tx, limit)
}
func (m *mockInnerStatsRepo) TopInGroup(ctx context.Context, tx repository.Tx, chatID int64, limit int) ([]model.LeaderboardEntry, error) {
	return m.TopInGroupFunc(ctx, tx, chatID, limit)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc   func(ctx context.Context, key string) (string, error)
	SetFunc   func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc   func(ctx context.Context, keys ...string) error
	PingFunc  func(ctx context.Context) error
	CloseFunc func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return false, nil
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	return 0, nil
}
func (m *mockRedisClient) SAdd(ctx context.Context, key string, members ...interface{}) error {
	return nil
}
func (m *mockRedisClient) SRem(ctx context.Context, key string, members ...interface{}) error {
	return nil
}
func (m *mockRedisClient) SMembers(ctx context.Context, key string) ([]string, error) {
	return nil, nil
}
func (m *mockRedisClient) CompareAndDelete(ctx context.Context, key, value string) (bool, error) {
	return false, nil
}
func (m *mockRedisClient) CompareAndExpire(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return false, nil
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
