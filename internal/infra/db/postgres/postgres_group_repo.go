package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-game-bot/internal/domain"
	"telegram-game-bot/internal/domain/model"
	"telegram-game-bot/internal/domain/ports/repository"
)

var _ repository.GroupRepository = (*PostgresGroupRepo)(nil)

type PostgresGroupRepo struct {
	pool *pgxpool.Pool
}

func NewGroupRepo(pool *pgxpool.Pool) *PostgresGroupRepo {
	return &PostgresGroupRepo{pool: pool}
}

// Upsert relies on xmax being zero only for freshly inserted rows.
func (r *PostgresGroupRepo) Upsert(ctx context.Context, tx repository.Tx, g *model.Group) (bool, error) {
	const q = `
INSERT INTO groups (chat_id, title, active, added_at)
VALUES ($1, $2, TRUE, $3)
ON CONFLICT (chat_id) DO UPDATE SET
  title = EXCLUDED.title,
  active = TRUE
RETURNING (xmax = 0);`
	var created bool
	if err := pickRow(ctx, r.pool, tx, q, g.ChatID, g.Title, g.AddedAt).Scan(&created); err != nil {
		return false, err
	}
	return created, nil
}

func (r *PostgresGroupRepo) FindByChatID(ctx context.Context, tx repository.Tx, chatID int64) (*model.Group, error) {
	const q = `SELECT chat_id, title, active, added_at FROM groups WHERE chat_id = $1;`
	var g model.Group
	err := pickRow(ctx, r.pool, tx, q, chatID).Scan(&g.ChatID, &g.Title, &g.Active, &g.AddedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *PostgresGroupRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Group, error) {
	const q = `SELECT chat_id, title, active, added_at FROM groups WHERE active ORDER BY added_at, chat_id;`
	rows, err := pickQuery(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Group
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ChatID, &g.Title, &g.Active, &g.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, &g)
	}
	return out, rows.Err()
}

func (r *PostgresGroupRepo) Deactivate(ctx context.Context, tx repository.Tx, chatID int64) error {
	tag, err := pickExec(ctx, r.pool, tx, `UPDATE groups SET active = FALSE WHERE chat_id = $1;`, chatID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresGroupRepo) CountActive(ctx context.Context, tx repository.Tx) (int, error) {
	var n int
	err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM groups WHERE active;`).Scan(&n)
	return n, err
}
