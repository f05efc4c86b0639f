package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-game-bot/internal/domain"
	"telegram-game-bot/internal/domain/model"
	"telegram-game-bot/internal/domain/ports/repository"
)

var _ repository.UserStatsRepository = (*PostgresStatsRepo)(nil)

type PostgresStatsRepo struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) *PostgresStatsRepo {
	return &PostgresStatsRepo{pool: pool}
}

func (r *PostgresStatsRepo) AddScore(ctx context.Context, tx repository.Tx, userID int64, username string, chatID int64, points int64) error {
	const upsertUser = `
INSERT INTO user_stats (user_id, username, total_score, games_played, last_updated)
VALUES ($1, $2, $3, 0, NOW())
ON CONFLICT (user_id) DO UPDATE SET
  username = COALESCE(NULLIF(EXCLUDED.username, ''), user_stats.username),
  total_score = user_stats.total_score + EXCLUDED.total_score,
  last_updated = NOW();`
	const upsertGroup = `
INSERT INTO user_group_scores (user_id, chat_id, score)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, chat_id) DO UPDATE SET
  score = user_group_scores.score + EXCLUDED.score;`

	if _, err := pickExec(ctx, r.pool, tx, upsertUser, userID, username, points); err != nil {
		return fmt.Errorf("add score for %d: %w", userID, err)
	}
	if _, err := pickExec(ctx, r.pool, tx, upsertGroup, userID, chatID, points); err != nil {
		return fmt.Errorf("add group score for %d in %d: %w", userID, chatID, err)
	}
	return nil
}

func (r *PostgresStatsRepo) IncGamesPlayed(ctx context.Context, tx repository.Tx, players []model.Player) error {
	const q = `
INSERT INTO user_stats (user_id, username, total_score, games_played, last_updated)
VALUES ($1, $2, 0, 1, NOW())
ON CONFLICT (user_id) DO UPDATE SET
  username = COALESCE(NULLIF(EXCLUDED.username, ''), user_stats.username),
  games_played = user_stats.games_played + 1,
  last_updated = NOW();`
	for _, p := range players {
		if _, err := pickExec(ctx, r.pool, tx, q, p.UserID, p.Username); err != nil {
			return fmt.Errorf("count game for %d: %w", p.UserID, err)
		}
	}
	return nil
}

func (r *PostgresStatsRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID int64) (*model.UserStats, error) {
	const q = `
SELECT user_id, username, total_score, games_played, last_updated
  FROM user_stats WHERE user_id = $1;`
	var s model.UserStats
	err := pickRow(ctx, r.pool, tx, q, userID).Scan(&s.UserID, &s.Username, &s.TotalScore, &s.GamesPlayed, &s.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := pickQuery(ctx, r.pool, tx, `SELECT chat_id, score FROM user_group_scores WHERE user_id = $1;`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	s.GroupScores = map[int64]int64{}
	for rows.Next() {
		var chatID, score int64
		if err := rows.Scan(&chatID, &score); err != nil {
			return nil, err
		}
		s.GroupScores[chatID] = score
	}
	return &s, rows.Err()
}

func (r *PostgresStatsRepo) TopWorldwide(ctx context.Context, tx repository.Tx, limit int) ([]model.LeaderboardEntry, error) {
	const q = `
SELECT user_id, username, total_score
  FROM user_stats
 WHERE total_score > 0
 ORDER BY total_score DESC, user_id
 LIMIT $1;`
	return r.leaderboard(ctx, tx, q, limit)
}

func (r *PostgresStatsRepo) TopInGroup(ctx context.Context, tx repository.Tx, chatID int64, limit int) ([]model.LeaderboardEntry, error) {
	const q = `
SELECT g.user_id, s.username, g.score
  FROM user_group_scores g
  JOIN user_stats s ON s.user_id = g.user_id
 WHERE g.chat_id = $2 AND g.score > 0
 ORDER BY g.score DESC, g.user_id
 LIMIT $1;`
	return r.leaderboard(ctx, tx, q, limit, chatID)
}

func (r *PostgresStatsRepo) leaderboard(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]model.LeaderboardEntry, error) {
	rows, err := pickQuery(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Score); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
