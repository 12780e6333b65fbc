package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"daily-trivia-service/internal/domain"
	"github.com/uptrace/bun"
)

// Store is a bun-backed implementation of app.Store. It runs unchanged on
// Postgres and SQLite; uniqueness comes from the indexes created by migrations.
type Store struct {
	db *bun.DB
}

func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for migrations and health checks.
func (s *Store) DB() *bun.DB { return s.db }

func (s *Store) SessionByDate(ctx context.Context, date string) (domain.Session, error) {
	var m SessionModel
	err := s.db.NewSelect().Model(&m).Where("date = ?", date).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("select session by date: %w", err)
	}
	return sessionFromModel(m), nil
}

func (s *Store) SessionByID(ctx context.Context, id string) (domain.Session, error) {
	var m SessionModel
	err := s.db.NewSelect().Model(&m).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("select session: %w", err)
	}
	return sessionFromModel(m), nil
}

func (s *Store) CreateSession(ctx context.Context, session domain.Session, questions []domain.Question) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if len(questions) > 0 {
			rows := make([]QuestionModel, len(questions))
			for i, q := range questions {
				rows[i] = questionToModel(q)
			}
			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return fmt.Errorf("insert questions: %w", err)
			}
		}
		m := sessionToModel(session)
		if _, err := tx.NewInsert().Model(&m).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrSessionExists
			}
			return fmt.Errorf("insert session: %w", err)
		}
		return nil
	})
}

func (s *Store) UpdateSessionStats(ctx context.Context, stats domain.SessionStats, at time.Time) error {
	winners := stats.WinnerUserIDs
	if winners == nil {
		winners = []string{}
	}
	m := SessionModel{
		ID:                stats.SessionID,
		TotalParticipants: stats.TotalParticipants,
		HighestScore:      stats.HighestScore,
		WinnerUserIDs:     winners,
		UpdatedAt:         at,
	}
	res, err := s.db.NewUpdate().Model(&m).
		Column("total_participants", "highest_score", "winner_user_ids", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update session stats: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *Store) LoadQuestions(ctx context.Context, ids []string) ([]domain.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []QuestionModel
	err := s.db.NewSelect().Model(&rows).
		Where("id IN (?)", bun.In(ids)).
		Order("generated_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questionsFromModels(rows), nil
}

func (s *Store) QuestionsByDate(ctx context.Context, date string) ([]domain.Question, error) {
	var rows []QuestionModel
	err := s.db.NewSelect().Model(&rows).Where("date = ?", date).Order("generated_at ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("questions by date: %w", err)
	}
	return questionsFromModels(rows), nil
}

func (s *Store) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	var rows []QuestionModel
	if err := s.db.NewSelect().Model(&rows).Order("generated_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questionsFromModels(rows), nil
}

func (s *Store) Participation(ctx context.Context, userID, sessionID string) (domain.Participation, error) {
	return participation(ctx, s.db, userID, sessionID)
}

func (s *Store) StartParticipation(ctx context.Context, p domain.Participation) (domain.Participation, error) {
	m := participationToModel(p)
	if _, err := s.db.NewInsert().Model(&m).On("CONFLICT (user_id, session_id) DO NOTHING").Exec(ctx); err != nil {
		return domain.Participation{}, fmt.Errorf("insert participation: %w", err)
	}
	return participation(ctx, s.db, p.UserID, p.SessionID)
}

// CompleteParticipation moves the (user, session) row to completed and stores
// the responses. The update only applies to rows that are not completed yet,
// so of two racing completions exactly one wins; the other gets
// domain.ErrAlreadyCompleted and its transaction is rolled back.
func (s *Store) CompleteParticipation(ctx context.Context, p domain.Participation, responses []domain.Response) (domain.Participation, error) {
	var out domain.Participation
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		m := participationToModel(p)
		res, err := tx.NewInsert().Model(&m).
			On("CONFLICT (user_id, session_id) DO UPDATE").
			Set("status = EXCLUDED.status").
			Set("score = EXCLUDED.score").
			Set("total_questions = EXCLUDED.total_questions").
			Set("correct_answers = EXCLUDED.correct_answers").
			Set("time_taken = EXCLUDED.time_taken").
			Set("completed_at = EXCLUDED.completed_at").
			Where("usp.status <> ?", string(domain.StatusCompleted)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert participation: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("upsert participation: %w", err)
		}
		if n == 0 {
			return domain.ErrAlreadyCompleted
		}

		if len(responses) > 0 {
			rows := make([]ResponseModel, len(responses))
			for i, r := range responses {
				rows[i] = responseToModel(r)
			}
			_, err := tx.NewInsert().Model(&rows).
				On("CONFLICT (user_id, session_id, question_id) DO UPDATE").
				Set("user_answer = EXCLUDED.user_answer").
				Set("is_correct = EXCLUDED.is_correct").
				Set("answered_at = EXCLUDED.answered_at").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("upsert responses: %w", err)
			}
		}

		out, err = participation(ctx, tx, p.UserID, p.SessionID)
		return err
	})
	if err != nil {
		return domain.Participation{}, err
	}
	return out, nil
}

func (s *Store) CompletedParticipations(ctx context.Context, sessionID string) ([]domain.Participation, error) {
	return s.participations(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("session_id = ?", sessionID).Where("status = ?", string(domain.StatusCompleted)).Order("user_id ASC")
	})
}

func (s *Store) SessionParticipations(ctx context.Context, sessionID string) ([]domain.Participation, error) {
	return s.participations(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("session_id = ?", sessionID).Order("score DESC", "time_taken ASC")
	})
}

func (s *Store) UserParticipations(ctx context.Context, userID string) ([]domain.Participation, error) {
	return s.participations(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID).Order("started_at DESC")
	})
}

func (s *Store) UserResponses(ctx context.Context, userID, sessionID string) ([]domain.Response, error) {
	var rows []ResponseModel
	err := s.db.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		Where("session_id = ?", sessionID).
		Order("answered_at ASC", "question_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select responses: %w", err)
	}
	out := make([]domain.Response, len(rows))
	for i, r := range rows {
		out[i] = responseFromModel(r)
	}
	return out, nil
}

func (s *Store) ResponseCounts(ctx context.Context, sessionID string) (map[string]int, error) {
	var rows []struct {
		UserID string `bun:"user_id"`
		Count  int    `bun:"count"`
	}
	err := s.db.NewSelect().
		Model((*ResponseModel)(nil)).
		Column("user_id").
		ColumnExpr("COUNT(*) AS count").
		Where("session_id = ?", sessionID).
		Group("user_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("count responses: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.UserID] = r.Count
	}
	return counts, nil
}

// AddScore adds the entry's values onto any existing row for the user.
func (s *Store) AddScore(ctx context.Context, e domain.ScoreEntry) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO scores (user_id, user_name, score, games_played, games_won, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
	user_name = EXCLUDED.user_name,
	score = scores.score + EXCLUDED.score,
	games_played = scores.games_played + EXCLUDED.games_played,
	games_won = scores.games_won + EXCLUDED.games_won,
	updated_at = EXCLUDED.updated_at`,
		e.UserID, e.UserName, e.Score, e.GamesPlayed, e.GamesWon, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

func (s *Store) Scores(ctx context.Context) ([]domain.ScoreEntry, error) {
	var rows []ScoreModel
	if err := s.db.NewSelect().Model(&rows).Order("score DESC", "updated_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select scores: %w", err)
	}
	out := make([]domain.ScoreEntry, len(rows))
	for i, r := range rows {
		out[i] = domain.ScoreEntry{
			UserID:      r.UserID,
			UserName:    r.UserName,
			Score:       r.Score,
			GamesPlayed: r.GamesPlayed,
			GamesWon:    r.GamesWon,
			UpdatedAt:   r.UpdatedAt,
		}
	}
	return out, nil
}

func (s *Store) IsAdmin(ctx context.Context, userID string) (bool, error) {
	exists, err := s.db.NewSelect().Model((*AdminModel)(nil)).Where("user_id = ?", userID).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return exists, nil
}

// GrantAdmin adds userID to the admins relation.
func (s *Store) GrantAdmin(ctx context.Context, userID string) error {
	_, err := s.db.NewInsert().Model(&AdminModel{UserID: userID}).On("CONFLICT (user_id) DO NOTHING").Exec(ctx)
	return err
}

func (s *Store) participations(ctx context.Context, filter func(*bun.SelectQuery) *bun.SelectQuery) ([]domain.Participation, error) {
	var rows []ParticipationModel
	if err := filter(s.db.NewSelect().Model(&rows)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("select participations: %w", err)
	}
	out := make([]domain.Participation, len(rows))
	for i, r := range rows {
		out[i] = participationFromModel(r)
	}
	return out, nil
}

func participation(ctx context.Context, db bun.IDB, userID, sessionID string) (domain.Participation, error) {
	var m ParticipationModel
	err := db.NewSelect().Model(&m).
		Where("user_id = ?", userID).
		Where("session_id = ?", sessionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Participation{}, domain.ErrParticipationNotFound
	}
	if err != nil {
		return domain.Participation{}, fmt.Errorf("select participation: %w", err)
	}
	return participationFromModel(m), nil
}

func questionsFromModels(rows []QuestionModel) []domain.Question {
	out := make([]domain.Question, len(rows))
	for i, r := range rows {
		out[i] = questionFromModel(r)
	}
	return out
}
