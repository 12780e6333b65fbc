package migrations

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type question struct {
	bun.BaseModel `bun:"table:questions"`

	ID            string    `bun:"id,pk"`
	Date          string    `bun:"date,notnull"`
	Question      string    `bun:"question,notnull"`
	Options       []string  `bun:"options,notnull"`
	CorrectAnswer string    `bun:"correct_answer,notnull"`
	Category      string    `bun:"category,notnull"`
	Points        int       `bun:"points,notnull,default:0"`
	GeneratedAt   time.Time `bun:"generated_at,notnull"`
}

type triviaSession struct {
	bun.BaseModel `bun:"table:trivia_sessions"`

	ID                string    `bun:"id,pk"`
	Date              string    `bun:"date,notnull,unique"`
	QuestionIDs       []string  `bun:"question_ids,notnull"`
	Status            string    `bun:"status,notnull"`
	SessionType       string    `bun:"session_type,notnull"`
	TimerDuration     int       `bun:"timer_duration,notnull"`
	TotalParticipants int       `bun:"total_participants,notnull,default:0"`
	HighestScore      int       `bun:"highest_score,notnull,default:0"`
	WinnerUserIDs     []string  `bun:"winner_user_ids,notnull"`
	CreatedAt         time.Time `bun:"created_at,notnull"`
	UpdatedAt         time.Time `bun:"updated_at,notnull"`
}

type participation struct {
	bun.BaseModel `bun:"table:user_session_participations"`

	ID             string     `bun:"id,pk"`
	UserID         string     `bun:"user_id,notnull,unique:user_session"`
	SessionID      string     `bun:"session_id,notnull,unique:user_session"`
	Status         string     `bun:"status,notnull"`
	Score          int        `bun:"score,notnull,default:0"`
	TotalQuestions int        `bun:"total_questions,notnull,default:0"`
	CorrectAnswers int        `bun:"correct_answers,notnull,default:0"`
	TimeTaken      int        `bun:"time_taken,notnull,default:0"`
	StartedAt      time.Time  `bun:"started_at,notnull"`
	CompletedAt    *time.Time `bun:"completed_at,nullzero"`
}

type response struct {
	bun.BaseModel `bun:"table:user_responses"`

	ID         string    `bun:"id,pk"`
	UserID     string    `bun:"user_id,notnull,unique:user_session_question"`
	SessionID  string    `bun:"session_id,notnull,unique:user_session_question"`
	QuestionID string    `bun:"question_id,notnull,unique:user_session_question"`
	UserAnswer string    `bun:"user_answer,notnull"`
	IsCorrect  bool      `bun:"is_correct,notnull"`
	AnsweredAt time.Time `bun:"answered_at,notnull"`
}

type score struct {
	bun.BaseModel `bun:"table:scores"`

	UserID      string    `bun:"user_id,pk"`
	UserName    string    `bun:"user_name,notnull"`
	Score       int       `bun:"score,notnull,default:0"`
	GamesPlayed int       `bun:"games_played,notnull,default:0"`
	GamesWon    int       `bun:"games_won,notnull,default:0"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

type admin struct {
	bun.BaseModel `bun:"table:admins"`

	UserID string `bun:"user_id,pk"`
}

// tables is ordered for creation; drops run in reverse.
var tables = []interface{}{
	(*question)(nil),
	(*triviaSession)(nil),
	(*participation)(nil),
	(*response)(nil),
	(*score)(nil),
	(*admin)(nil),
}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		for _, model := range tables {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("create table: %w", err)
			}
		}
		_, err := db.NewCreateIndex().
			Model((*question)(nil)).
			Index("questions_date_idx").
			Column("date").
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("create questions date index: %w", err)
		}
		_, err = db.NewCreateIndex().
			Model((*participation)(nil)).
			Index("participations_session_status_idx").
			Column("session_id", "status").
			IfNotExists().
			Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		for i := len(tables) - 1; i >= 0; i-- {
			if _, err := db.NewDropTable().Model(tables[i]).IfExists().Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
