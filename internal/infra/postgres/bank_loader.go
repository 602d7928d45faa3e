package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-chat-service/internal/domain"
)

// BankLoader loads the question bank from the questions table.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadBank(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, prompt, correct, wrong1, wrong2, wrong3, category FROM questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var id, prompt, correct, category string
		var wrong [3]string
		if err := rows.Scan(&id, &prompt, &correct, &wrong[0], &wrong[1], &wrong[2], &category); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, domain.NewBankQuestion(id, prompt, correct, wrong, category))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return out, nil
}

// Import upserts questions in one batch. Options are stored in bank order,
// so the correct answer must sit at index 0.
func Import(ctx context.Context, pool *pgxpool.Pool, questions []domain.Question) (int, error) {
	batch := &pgx.Batch{}
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return 0, fmt.Errorf("question %s: %w", q.ID, err)
		}
		if q.Correct != 0 {
			return 0, fmt.Errorf("%w: question %s has its correct answer at %s", domain.ErrSchema, q.ID, q.CorrectLetter())
		}
		batch.Queue(`INSERT INTO questions (id, prompt, correct, wrong1, wrong2, wrong3, category)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET prompt = EXCLUDED.prompt, correct = EXCLUDED.correct,
  wrong1 = EXCLUDED.wrong1, wrong2 = EXCLUDED.wrong2, wrong3 = EXCLUDED.wrong3, category = EXCLUDED.category`,
			q.ID, q.Prompt, q.Options[0], q.Options[1], q.Options[2], q.Options[3], q.Category)
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()
	for range questions {
		if _, err := results.Exec(); err != nil {
			return 0, fmt.Errorf("import questions: %w", err)
		}
	}
	return len(questions), nil
}
