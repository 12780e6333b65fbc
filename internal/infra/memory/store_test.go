package memory

import (
	"context"
	"testing"
	"time"

	"daily-trivia-service/internal/domain"
)

func TestStoreSessionDateIsUnique(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first := domain.Session{ID: "s1", Date: "2024-01-01", QuestionIDs: []string{"q1"}}
	if err := store.CreateSession(ctx, first, []domain.Question{sampleQuestion()}); err != nil {
		t.Fatalf("create session: %v", err)
	}
	second := domain.Session{ID: "s2", Date: "2024-01-01"}
	if err := store.CreateSession(ctx, second, nil); err != domain.ErrSessionExists {
		t.Fatalf("expected session exists, got %v", err)
	}
	if _, err := store.SessionByID(ctx, "s2"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected losing session absent, got %v", err)
	}
}

func TestStoreCompleteParticipationOnce(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	started := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	p, err := store.StartParticipation(ctx, domain.Participation{
		ID: "p1", UserID: "u1", SessionID: "s1", Status: domain.StatusStarted, StartedAt: started,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	again, _ := store.StartParticipation(ctx, domain.Participation{ID: "p2", UserID: "u1", SessionID: "s1"})
	if again.ID != p.ID {
		t.Fatalf("expected existing participation, got %+v", again)
	}

	done, err := store.CompleteParticipation(ctx, domain.Participation{
		ID: "p3", UserID: "u1", SessionID: "s1", Status: domain.StatusCompleted, Score: 2,
	}, []domain.Response{{ID: "r1", UserID: "u1", SessionID: "s1", QuestionID: "q1", UserAnswer: "4"}})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.ID != "p1" || !done.StartedAt.Equal(started) {
		t.Fatalf("expected id and start time kept, got %+v", done)
	}

	_, err = store.CompleteParticipation(ctx, domain.Participation{
		ID: "p4", UserID: "u1", SessionID: "s1", Status: domain.StatusCompleted, Score: 3,
	}, []domain.Response{{ID: "r2", UserID: "u1", SessionID: "s1", QuestionID: "q1", UserAnswer: "5"}})
	if err != domain.ErrAlreadyCompleted {
		t.Fatalf("expected already completed, got %v", err)
	}

	all, _ := store.SessionParticipations(ctx, "s1")
	if len(all) != 1 || all[0].Score != 2 {
		t.Fatalf("expected first completion kept, got %+v", all)
	}
	responses, _ := store.UserResponses(ctx, "u1", "s1")
	if len(responses) != 1 || responses[0].UserAnswer != "4" || responses[0].ID != "r1" {
		t.Fatalf("expected first response kept, got %+v", responses)
	}
}

func TestStoreAddScoreAccumulates(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.AddScore(ctx, domain.ScoreEntry{UserID: "u1", Score: 3, GamesPlayed: 1, GamesWon: 0})
	_ = store.AddScore(ctx, domain.ScoreEntry{UserID: "u1", Score: 5, GamesPlayed: 1, GamesWon: 1})

	scores, _ := store.Scores(ctx)
	if len(scores) != 1 {
		t.Fatalf("expected one row, got %d", len(scores))
	}
	if got := scores[0]; got.Score != 8 || got.GamesPlayed != 2 || got.GamesWon != 1 {
		t.Fatalf("unexpected totals %+v", got)
	}
}
