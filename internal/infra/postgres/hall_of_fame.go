package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-chat-service/internal/domain"
)

// HallOfFame persists finished-game scores in the hall_of_fame table.
type HallOfFame struct {
	pool *pgxpool.Pool
}

func NewHallOfFame(pool *pgxpool.Pool) *HallOfFame {
	return &HallOfFame{pool: pool}
}

func (h *HallOfFame) Record(ctx context.Context, entry domain.ScoreEntry) error {
	_, err := h.pool.Exec(ctx,
		`INSERT INTO hall_of_fame (id, name, score, mode, recorded_at) VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.Name, entry.Score, string(entry.Mode), entry.RecordedAt)
	if err != nil {
		return fmt.Errorf("record score: %w", err)
	}
	return nil
}

// Top returns the best entries; a non-positive limit returns all of them.
func (h *HallOfFame) Top(ctx context.Context, limit int) ([]domain.ScoreEntry, error) {
	query := `SELECT id, name, score, mode, recorded_at FROM hall_of_fame ORDER BY score DESC, recorded_at ASC, name ASC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := h.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("rank scores: %w", err)
	}
	defer rows.Close()

	out := []domain.ScoreEntry{}
	for rows.Next() {
		var e domain.ScoreEntry
		var mode string
		if err := rows.Scan(&e.ID, &e.Name, &e.Score, &mode, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		e.Mode = domain.Mode(mode)
		out = append(out, e)
	}
	return out, rows.Err()
}
