package app

import (
	"context"
	"time"

	"daily-trivia-service/internal/domain"
)

// SessionRegistry creates and looks up the one trivia session per date.
// Date uniqueness is enforced by the store, so concurrent creators race safely:
// exactly one insert succeeds and the rest get domain.ErrSessionExists.
type SessionRegistry struct {
	store SessionStore
	now   func() time.Time
	newID func() string
}

func NewSessionRegistry(store SessionStore, now func() time.Time, newID func() string) *SessionRegistry {
	return &SessionRegistry{store: store, now: now, newID: newID}
}

// ByDate returns the session for date or domain.ErrSessionNotFound.
func (r *SessionRegistry) ByDate(ctx context.Context, date string) (domain.Session, error) {
	return r.store.SessionByDate(ctx, date)
}

// ByID returns the session with id or domain.ErrSessionNotFound.
func (r *SessionRegistry) ByID(ctx context.Context, id string) (domain.Session, error) {
	return r.store.SessionByID(ctx, id)
}

// Create registers a session over already-stored questions.
func (r *SessionRegistry) Create(ctx context.Context, date string, questionIDs []string, timerDuration int, sessionType string) (domain.Session, error) {
	return r.create(ctx, date, questionIDs, timerDuration, sessionType, nil)
}

// CreateWithQuestions stores questions and the session that references them
// atomically: either both persist or neither does.
func (r *SessionRegistry) CreateWithQuestions(ctx context.Context, date string, questions []domain.Question, timerDuration int, sessionType string) (domain.Session, error) {
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return r.create(ctx, date, ids, timerDuration, sessionType, questions)
}

func (r *SessionRegistry) create(ctx context.Context, date string, ids []string, timer int, sessionType string, questions []domain.Question) (domain.Session, error) {
	now := r.now()
	session := domain.Session{
		ID:            r.newID(),
		Date:          date,
		QuestionIDs:   ids,
		Status:        domain.SessionActive,
		SessionType:   sessionType,
		TimerDuration: timer,
		WinnerUserIDs: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := r.store.CreateSession(ctx, session, questions); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}
