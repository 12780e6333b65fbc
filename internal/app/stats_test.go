package app

import (
	"reflect"
	"testing"
	"time"

	"daily-trivia-service/internal/domain"
)

func TestComputeStatsTies(t *testing.T) {
	stats := ComputeStats("s1", []domain.Participation{
		{UserID: "u3", Score: 3},
		{UserID: "u1", Score: 5},
		{UserID: "u2", Score: 5},
	})
	if stats.HighestScore != 5 || stats.TotalParticipants != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if !reflect.DeepEqual(stats.WinnerUserIDs, []string{"u1", "u2"}) {
		t.Fatalf("expected co-winners u1,u2, got %v", stats.WinnerUserIDs)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats("s1", nil)
	if stats.HighestScore != 0 || stats.TotalParticipants != 0 || len(stats.WinnerUserIDs) != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
	if stats.WinnerUserIDs == nil {
		t.Fatalf("expected empty, non-nil winners")
	}
}

func TestComputeStatsOrderIndependent(t *testing.T) {
	a := []domain.Participation{{UserID: "u1", Score: 2}, {UserID: "u2", Score: 4}, {UserID: "u3", Score: 4}}
	b := []domain.Participation{a[2], a[0], a[1]}
	if !reflect.DeepEqual(ComputeStats("s1", a), ComputeStats("s1", b)) {
		t.Fatalf("expected identical stats regardless of order")
	}
}

func TestRankTieBreakByTime(t *testing.T) {
	ranked := Rank([]domain.Participation{
		{UserID: "A", Score: 3, TimeTaken: 50},
		{UserID: "B", Score: 3, TimeTaken: 40},
		{UserID: "C", Score: 4, TimeTaken: 90},
	}, map[string]int{"A": 2})

	order := []string{ranked[0].Participation.UserID, ranked[1].Participation.UserID, ranked[2].Participation.UserID}
	if !reflect.DeepEqual(order, []string{"C", "B", "A"}) {
		t.Fatalf("unexpected order %v", order)
	}
	for i, r := range ranked {
		if r.Rank != i+1 {
			t.Fatalf("expected rank %d, got %d", i+1, r.Rank)
		}
	}
	if ranked[2].ResponseCount != 2 {
		t.Fatalf("expected response count carried, got %d", ranked[2].ResponseCount)
	}
}

func TestRankFullTiesGetDistinctRanks(t *testing.T) {
	ranked := Rank([]domain.Participation{
		{UserID: "A", Score: 3, TimeTaken: 40},
		{UserID: "B", Score: 3, TimeTaken: 40},
	}, nil)
	if ranked[0].Rank != 1 || ranked[1].Rank != 2 {
		t.Fatalf("expected distinct ranks, got %d and %d", ranked[0].Rank, ranked[1].Rank)
	}
}

func TestReportStatistics(t *testing.T) {
	ranked := Rank([]domain.Participation{
		{UserID: "A", Status: domain.StatusCompleted, Score: 5, CorrectAnswers: 5, TotalQuestions: 5, TimeTaken: 30},
		{UserID: "B", Status: domain.StatusCompleted, Score: 5, CorrectAnswers: 5, TotalQuestions: 5, TimeTaken: 50},
		{UserID: "C", Status: domain.StatusStarted, Score: 0, TotalQuestions: 5},
	}, nil)
	report := Report(domain.Session{ID: "s1"}, ranked)

	st := report.Statistics
	if st.TotalParticipants != 3 || st.CompletedParticipants != 2 || st.HighestScore != 5 || st.PerfectScores != 2 {
		t.Fatalf("unexpected statistics %+v", st)
	}
	if st.AverageTime != 40 {
		t.Fatalf("expected average time over timed participants, got %v", st.AverageTime)
	}
	if len(report.Winners) != 2 {
		t.Fatalf("expected two winners, got %d", len(report.Winners))
	}
}

func TestReportEmpty(t *testing.T) {
	report := Report(domain.Session{ID: "s1"}, nil)
	if report.Statistics.HighestScore != 0 || len(report.Winners) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestRankLeaderboard(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := RankLeaderboard([]domain.ScoreEntry{
		{UserID: "late", Score: 10, GamesPlayed: 4, GamesWon: 1, UpdatedAt: t0.Add(time.Hour)},
		{UserID: "early", Score: 10, GamesPlayed: 3, GamesWon: 2, UpdatedAt: t0},
		{UserID: "top", Score: 12},
	})
	if rows[0].UserID != "top" || rows[1].UserID != "early" || rows[2].UserID != "late" {
		t.Fatalf("unexpected order %+v", rows)
	}
	if rows[1].WinRate != 67 || rows[0].WinRate != 0 || rows[2].WinRate != 25 {
		t.Fatalf("unexpected win rates %d %d %d", rows[0].WinRate, rows[1].WinRate, rows[2].WinRate)
	}
}
