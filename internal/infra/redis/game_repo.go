package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"telegram-game-bot/internal/domain"
	"telegram-game-bot/internal/domain/model"
	"telegram-game-bot/internal/domain/ports/repository"
)

var _ repository.GameRepository = (*GameRepo)(nil)

const activeGamesKey = "games:active"

// GameRepo keeps each chat's game as one JSON document plus a set of chat ids
// with a stored game.
type GameRepo struct {
	client RedisClient
	ttl    time.Duration
}

// NewGameRepo stores games with ttl as a safety net for abandoned entries;
// the inactivity timer normally removes them much sooner.
func NewGameRepo(client RedisClient, ttl time.Duration) *GameRepo {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &GameRepo{client: client, ttl: ttl}
}

func gameKey(chatID int64) string { return fmt.Sprintf("game:%d", chatID) }

func pollKey(pollID string) string { return "poll:" + pollID }

func (r *GameRepo) Save(ctx context.Context, g *model.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, gameKey(g.ChatID), data, r.ttl); err != nil {
		return err
	}
	return r.client.SAdd(ctx, activeGamesKey, g.ChatID)
}

func (r *GameRepo) Get(ctx context.Context, chatID int64) (*model.Game, error) {
	data, err := r.client.Get(ctx, gameKey(chatID))
	if errors.Is(err, Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var g model.Game
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		return nil, fmt.Errorf("decode game %d: %w", chatID, err)
	}
	return &g, nil
}

func (r *GameRepo) Delete(ctx context.Context, chatID int64) error {
	if err := r.client.Del(ctx, gameKey(chatID)); err != nil {
		return err
	}
	return r.client.SRem(ctx, activeGamesKey, chatID)
}

func (r *GameRepo) ActiveChats(ctx context.Context) ([]int64, error) {
	members, err := r.client.SMembers(ctx, activeGamesKey)
	if err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

func (r *GameRepo) BindPoll(ctx context.Context, pollID string, chatID int64, ttl time.Duration) error {
	return r.client.Set(ctx, pollKey(pollID), chatID, ttl)
}

func (r *GameRepo) ChatByPoll(ctx context.Context, pollID string) (int64, error) {
	v, err := r.client.Get(ctx, pollKey(pollID))
	if errors.Is(err, Nil) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}
