package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-game-bot/internal/domain/model"
	"telegram-game-bot/internal/domain/ports/repository"
)

var _ repository.ContentRepository = (*PostgresContentRepo)(nil)

type PostgresContentRepo struct {
	pool *pgxpool.Pool
}

func NewContentRepo(pool *pgxpool.Pool) *PostgresContentRepo {
	return &PostgresContentRepo{pool: pool}
}

func (r *PostgresContentRepo) ListByType(ctx context.Context, tx repository.Tx, t model.GameType) ([]model.ContentItem, error) {
	const q = `
SELECT id, game_type, question, answer, options, correct_option_id, explanation, created_at
  FROM content_items
 WHERE game_type = $1
 ORDER BY id;`
	rows, err := pickQuery(ctx, r.pool, tx, q, string(t))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ContentItem
	for rows.Next() {
		var c model.ContentItem
		var gt string
		if err := rows.Scan(&c.ID, &gt, &c.Question, &c.Answer, &c.Options, &c.CorrectOption, &c.Explanation, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.GameType = model.GameType(gt)
		if len(c.Options) == 0 {
			c.Options = nil
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Save inserts item and fills its ID and CreatedAt.
func (r *PostgresContentRepo) Save(ctx context.Context, tx repository.Tx, item *model.ContentItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	options := item.Options
	if options == nil {
		options = []string{}
	}
	const q = `
INSERT INTO content_items (game_type, question, answer, options, correct_option_id, explanation)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at;`
	return pickRow(ctx, r.pool, tx, q,
		string(item.GameType), item.Question, item.Answer, options, item.CorrectOption, item.Explanation,
	).Scan(&item.ID, &item.CreatedAt)
}

func (r *PostgresContentRepo) CountByType(ctx context.Context, tx repository.Tx) (map[model.GameType]int, error) {
	rows, err := pickQuery(ctx, r.pool, tx, `SELECT game_type, COUNT(*) FROM content_items GROUP BY game_type;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[model.GameType]int{}
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		out[model.GameType(t)] = n
	}
	return out, rows.Err()
}
