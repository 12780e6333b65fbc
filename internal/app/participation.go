package app

import (
	"context"
	"time"

	"daily-trivia-service/internal/domain"
)

// ParticipationTracker owns the per (user, session) attempt record.
//
// Transitions: none -> started -> completed. There is no way back from
// completed. abandoned is storable but nothing produces it.
type ParticipationTracker struct {
	store ParticipationStore
	now   func() time.Time
	newID func() string
}

func NewParticipationTracker(store ParticipationStore, now func() time.Time, newID func() string) *ParticipationTracker {
	return &ParticipationTracker{store: store, now: now, newID: newID}
}

// Get returns the participation or domain.ErrParticipationNotFound.
func (t *ParticipationTracker) Get(ctx context.Context, userID, sessionID string) (domain.Participation, error) {
	return t.store.Participation(ctx, userID, sessionID)
}

// StartOrResume creates a started record if none exists and otherwise returns
// the existing one unchanged. Callers must treat a completed result as terminal.
func (t *ParticipationTracker) StartOrResume(ctx context.Context, userID, sessionID string, totalQuestions int) (domain.Participation, error) {
	return t.store.StartParticipation(ctx, domain.Participation{
		ID:             t.newID(),
		UserID:         userID,
		SessionID:      sessionID,
		Status:         domain.StatusStarted,
		TotalQuestions: totalQuestions,
		StartedAt:      t.now(),
	})
}

// RecordCompletion moves the participation to completed with final metrics and
// stores the graded responses alongside it. It upserts on (user, session); once
// a row is completed further calls return domain.ErrAlreadyCompleted and leave
// the stored result as it was.
func (t *ParticipationTracker) RecordCompletion(ctx context.Context, c domain.Completion, responses []domain.Response) (domain.Participation, error) {
	now := t.now()
	p := domain.Participation{
		ID:             t.newID(),
		UserID:         c.UserID,
		SessionID:      c.SessionID,
		Status:         domain.StatusCompleted,
		Score:          c.Score,
		TotalQuestions: c.TotalQuestions,
		CorrectAnswers: c.CorrectAnswers,
		TimeTaken:      c.TimeTaken,
		StartedAt:      now,
		CompletedAt:    &now,
	}
	return t.store.CompleteParticipation(ctx, p, responses)
}
