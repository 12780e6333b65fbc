package sqlstore

import (
	"time"

	"daily-trivia-service/internal/domain"
	"github.com/uptrace/bun"
)

// QuestionModel is a row of the questions relation. Options are stored as JSON.
type QuestionModel struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID            string    `bun:"id,pk"`
	Date          string    `bun:"date,notnull"`
	Question      string    `bun:"question,notnull"`
	Options       []string  `bun:"options,notnull"`
	CorrectAnswer string    `bun:"correct_answer,notnull"`
	Category      string    `bun:"category,notnull"`
	Points        int       `bun:"points,notnull,default:0"`
	GeneratedAt   time.Time `bun:"generated_at,notnull"`
}

// SessionModel is a row of trivia_sessions; date is unique.
type SessionModel struct {
	bun.BaseModel `bun:"table:trivia_sessions,alias:ts"`

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

// ParticipationModel is a row of user_session_participations; (user_id, session_id) is unique.
type ParticipationModel struct {
	bun.BaseModel `bun:"table:user_session_participations,alias:usp"`

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

// ResponseModel is a row of user_responses; (user_id, session_id, question_id) is unique.
type ResponseModel struct {
	bun.BaseModel `bun:"table:user_responses,alias:ur"`

	ID         string    `bun:"id,pk"`
	UserID     string    `bun:"user_id,notnull,unique:user_session_question"`
	SessionID  string    `bun:"session_id,notnull,unique:user_session_question"`
	QuestionID string    `bun:"question_id,notnull,unique:user_session_question"`
	UserAnswer string    `bun:"user_answer,notnull"`
	IsCorrect  bool      `bun:"is_correct,notnull"`
	AnsweredAt time.Time `bun:"answered_at,notnull"`
}

// ScoreModel is a row of the cumulative scores relation.
type ScoreModel struct {
	bun.BaseModel `bun:"table:scores,alias:s"`

	UserID      string    `bun:"user_id,pk"`
	UserName    string    `bun:"user_name,notnull"`
	Score       int       `bun:"score,notnull,default:0"`
	GamesPlayed int       `bun:"games_played,notnull,default:0"`
	GamesWon    int       `bun:"games_won,notnull,default:0"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

// AdminModel lists users with admin privilege.
type AdminModel struct {
	bun.BaseModel `bun:"table:admins,alias:a"`

	UserID string `bun:"user_id,pk"`
}

func questionFromModel(m QuestionModel) domain.Question {
	return domain.Question{
		ID:            m.ID,
		Date:          m.Date,
		Text:          m.Question,
		Options:       m.Options,
		CorrectAnswer: m.CorrectAnswer,
		Category:      m.Category,
		Points:        m.Points,
		GeneratedAt:   m.GeneratedAt,
	}
}

func questionToModel(q domain.Question) QuestionModel {
	return QuestionModel{
		ID:            q.ID,
		Date:          q.Date,
		Question:      q.Text,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
		Category:      q.Category,
		Points:        q.Points,
		GeneratedAt:   q.GeneratedAt,
	}
}

func sessionFromModel(m SessionModel) domain.Session {
	winners := m.WinnerUserIDs
	if winners == nil {
		winners = []string{}
	}
	return domain.Session{
		ID:                m.ID,
		Date:              m.Date,
		QuestionIDs:       m.QuestionIDs,
		Status:            m.Status,
		SessionType:       m.SessionType,
		TimerDuration:     m.TimerDuration,
		TotalParticipants: m.TotalParticipants,
		HighestScore:      m.HighestScore,
		WinnerUserIDs:     winners,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func sessionToModel(s domain.Session) SessionModel {
	winners := s.WinnerUserIDs
	if winners == nil {
		winners = []string{}
	}
	ids := s.QuestionIDs
	if ids == nil {
		ids = []string{}
	}
	return SessionModel{
		ID:                s.ID,
		Date:              s.Date,
		QuestionIDs:       ids,
		Status:            s.Status,
		SessionType:       s.SessionType,
		TimerDuration:     s.TimerDuration,
		TotalParticipants: s.TotalParticipants,
		HighestScore:      s.HighestScore,
		WinnerUserIDs:     winners,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

func participationFromModel(m ParticipationModel) domain.Participation {
	return domain.Participation{
		ID:             m.ID,
		UserID:         m.UserID,
		SessionID:      m.SessionID,
		Status:         domain.ParticipationStatus(m.Status),
		Score:          m.Score,
		TotalQuestions: m.TotalQuestions,
		CorrectAnswers: m.CorrectAnswers,
		TimeTaken:      m.TimeTaken,
		StartedAt:      m.StartedAt,
		CompletedAt:    m.CompletedAt,
	}
}

func participationToModel(p domain.Participation) ParticipationModel {
	return ParticipationModel{
		ID:             p.ID,
		UserID:         p.UserID,
		SessionID:      p.SessionID,
		Status:         string(p.Status),
		Score:          p.Score,
		TotalQuestions: p.TotalQuestions,
		CorrectAnswers: p.CorrectAnswers,
		TimeTaken:      p.TimeTaken,
		StartedAt:      p.StartedAt,
		CompletedAt:    p.CompletedAt,
	}
}

func responseFromModel(m ResponseModel) domain.Response {
	return domain.Response{
		ID:         m.ID,
		UserID:     m.UserID,
		SessionID:  m.SessionID,
		QuestionID: m.QuestionID,
		UserAnswer: m.UserAnswer,
		IsCorrect:  m.IsCorrect,
		AnsweredAt: m.AnsweredAt,
	}
}

func responseToModel(r domain.Response) ResponseModel {
	return ResponseModel{
		ID:         r.ID,
		UserID:     r.UserID,
		SessionID:  r.SessionID,
		QuestionID: r.QuestionID,
		UserAnswer: r.UserAnswer,
		IsCorrect:  r.IsCorrect,
		AnsweredAt: r.AnsweredAt,
	}
}
