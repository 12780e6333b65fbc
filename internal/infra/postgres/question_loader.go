package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"daily-trivia-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionLoader reads question rows straight from Postgres with pgx. The
// cache layers use it for hot reads so they bypass the bun store.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context, ids []string) ([]domain.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := l.pool.Query(ctx, `SELECT id, date, question, options, correct_answer, category, points, generated_at
FROM questions WHERE id = ANY($1) ORDER BY generated_at ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var (
			q   domain.Question
			raw []byte
		)
		if err := rows.Scan(&q.ID, &q.Date, &q.Text, &raw, &q.CorrectAnswer, &q.Category, &q.Points, &q.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(raw, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options for %s: %w", q.ID, err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return out, nil
}
