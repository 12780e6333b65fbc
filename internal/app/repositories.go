package app

import (
	"context"
	"time"

	"daily-trivia-service/internal/domain"
)

// SessionStore persists sessions. CreateSession must enforce date uniqueness at
// the store and report a duplicate as domain.ErrSessionExists; when questions
// is non-empty they are inserted in the same transaction.
type SessionStore interface {
	SessionByDate(ctx context.Context, date string) (domain.Session, error)
	SessionByID(ctx context.Context, id string) (domain.Session, error)
	CreateSession(ctx context.Context, session domain.Session, questions []domain.Question) error
	UpdateSessionStats(ctx context.Context, stats domain.SessionStats, at time.Time) error
}

// QuestionLoader fetches question records by id (from the store or a read replica).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, ids []string) ([]domain.Question, error)
}

// QuestionStore is the durable question bank.
type QuestionStore interface {
	QuestionLoader
	QuestionsByDate(ctx context.Context, date string) ([]domain.Question, error)
	ListQuestions(ctx context.Context) ([]domain.Question, error)
}

// ParticipationStore persists participations keyed by (user, session).
type ParticipationStore interface {
	Participation(ctx context.Context, userID, sessionID string) (domain.Participation, error)
	// StartParticipation inserts p unless a row for (user, session) exists and
	// returns whichever row is stored.
	StartParticipation(ctx context.Context, p domain.Participation) (domain.Participation, error)
	// CompleteParticipation upserts p and responses in one transaction. On
	// conflict the existing id and start time are kept. A row that is already
	// completed is left untouched and domain.ErrAlreadyCompleted is returned.
	CompleteParticipation(ctx context.Context, p domain.Participation, responses []domain.Response) (domain.Participation, error)
	CompletedParticipations(ctx context.Context, sessionID string) ([]domain.Participation, error)
	SessionParticipations(ctx context.Context, sessionID string) ([]domain.Participation, error)
	UserParticipations(ctx context.Context, userID string) ([]domain.Participation, error)
}

// ResponseStore reads stored answers.
type ResponseStore interface {
	UserResponses(ctx context.Context, userID, sessionID string) ([]domain.Response, error)
	ResponseCounts(ctx context.Context, sessionID string) (map[string]int, error)
}

// ScoreStore holds the cumulative leaderboard.
type ScoreStore interface {
	// AddScore upserts by user id, adding score, games played and games won to
	// any existing row.
	AddScore(ctx context.Context, entry domain.ScoreEntry) error
	Scores(ctx context.Context) ([]domain.ScoreEntry, error)
}

// AdminStore answers privilege lookups.
type AdminStore interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// Store is everything the trivia use cases persist.
type Store interface {
	SessionStore
	QuestionStore
	ParticipationStore
	ResponseStore
	ScoreStore
	AdminStore
}

// QuestionSetRepository serves a session's question set, usually from a cache.
type QuestionSetRepository interface {
	SessionQuestions(ctx context.Context, sessionID string, ids []string) ([]domain.Question, error)
}

// StatsFeed fans recomputed statistics out to live subscribers.
type StatsFeed interface {
	Publish(ctx context.Context, stats domain.SessionStats) error
	// Subscribe returns a channel primed with nothing; the caller must invoke
	// the returned cancel function to avoid leaks.
	Subscribe(ctx context.Context, sessionID string) (<-chan domain.SessionStats, func(), error)
	// Latest returns the last published snapshot for a session, if any.
	Latest(ctx context.Context, sessionID string) (domain.SessionStats, bool, error)
}

// Generator produces raw question payloads from an external model.
type Generator interface {
	Generate(ctx context.Context, count int) ([]domain.GeneratedQuestion, error)
}
