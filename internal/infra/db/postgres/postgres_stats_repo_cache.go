package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-game-bot/internal/domain/model"
	"telegram-game-bot/internal/domain/ports/repository"
	"telegram-game-bot/internal/infra/metrics"
	red "telegram-game-bot/internal/infra/redis"
)

var _ repository.UserStatsRepository = (*statsRepoCacheDecorator)(nil)

const (
	worldBoardKey = "leaderboard:world"
	groupBoardFmt = "leaderboard:group:%d"
)

// cachedBoard remembers the limit it was read with so a different page size
// never sees a truncated list.
type cachedBoard struct {
	Limit   int                      `json:"limit"`
	Entries []model.LeaderboardEntry `json:"entries"`
}

// statsRepoCacheDecorator caches leaderboards in Redis. Any score change drops
// the world board and the board of the group it happened in.
type statsRepoCacheDecorator struct {
	inner repository.UserStatsRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewStatsRepoCacheDecorator(inner repository.UserStatsRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.UserStatsRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &statsRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: logger}
}

func (d *statsRepoCacheDecorator) AddScore(ctx context.Context, tx repository.Tx, userID int64, username string, chatID int64, points int64) error {
	if err := d.inner.AddScore(ctx, tx, userID, username, chatID, points); err != nil {
		return err
	}
	if err := d.cache.Del(ctx, worldBoardKey, fmt.Sprintf(groupBoardFmt, chatID)); err != nil {
		d.log.Warn().Err(err).Int64("chat_id", chatID).Msg("leaderboard invalidation failed")
	}
	return nil
}

func (d *statsRepoCacheDecorator) IncGamesPlayed(ctx context.Context, tx repository.Tx, players []model.Player) error {
	return d.inner.IncGamesPlayed(ctx, tx, players)
}

func (d *statsRepoCacheDecorator) FindByUserID(ctx context.Context, tx repository.Tx, userID int64) (*model.UserStats, error) {
	return d.inner.FindByUserID(ctx, tx, userID)
}

func (d *statsRepoCacheDecorator) TopWorldwide(ctx context.Context, tx repository.Tx, limit int) ([]model.LeaderboardEntry, error) {
	return d.cached(ctx, "world", worldBoardKey, limit, func() ([]model.LeaderboardEntry, error) {
		return d.inner.TopWorldwide(ctx, tx, limit)
	})
}

func (d *statsRepoCacheDecorator) TopInGroup(ctx context.Context, tx repository.Tx, chatID int64, limit int) ([]model.LeaderboardEntry, error) {
	return d.cached(ctx, "group", fmt.Sprintf(groupBoardFmt, chatID), limit, func() ([]model.LeaderboardEntry, error) {
		return d.inner.TopInGroup(ctx, tx, chatID, limit)
	})
}

func (d *statsRepoCacheDecorator) cached(ctx context.Context, scope, key string, limit int, load func() ([]model.LeaderboardEntry, error)) ([]model.LeaderboardEntry, error) {
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var b cachedBoard
		if json.Unmarshal([]byte(val), &b) == nil && b.Limit == limit {
			metrics.IncLeaderboardCache(scope, true)
			return b.Entries, nil
		}
	} else if !errors.Is(err, red.Nil) {
		d.log.Warn().Err(err).Str("key", key).Msg("leaderboard cache read failed")
	}

	metrics.IncLeaderboardCache(scope, false)
	entries, err := load()
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(cachedBoard{Limit: limit, Entries: entries}); err == nil {
		_ = d.cache.Set(ctx, key, data, d.ttl)
	}
	return entries, nil
}
