package app

import (
	"context"
	"sort"
	"time"

	"daily-trivia-service/internal/domain"
	"github.com/sirupsen/logrus"
)

// StatsAggregator recomputes a session's derived statistics from the full set
// of completed participations. It never increments, so concurrent runs for the
// same session converge on the same values.
type StatsAggregator struct {
	participations ParticipationStore
	sessions       SessionStore
	feed           StatsFeed
	now            func() time.Time
	log            logrus.FieldLogger
}

func NewStatsAggregator(participations ParticipationStore, sessions SessionStore, feed StatsFeed, now func() time.Time, log logrus.FieldLogger) *StatsAggregator {
	return &StatsAggregator{participations: participations, sessions: sessions, feed: feed, now: now, log: log}
}

// Recompute reads completed participations, writes the statistics back onto the
// session and publishes them to the live feed. Publish failures are logged only.
func (a *StatsAggregator) Recompute(ctx context.Context, sessionID string) (domain.SessionStats, error) {
	completed, err := a.participations.CompletedParticipations(ctx, sessionID)
	if err != nil {
		return domain.SessionStats{}, err
	}
	stats := ComputeStats(sessionID, completed)
	if err := a.sessions.UpdateSessionStats(ctx, stats, a.now()); err != nil {
		return domain.SessionStats{}, err
	}
	if a.feed != nil {
		if err := a.feed.Publish(ctx, stats); err != nil {
			a.log.WithError(err).WithField("session_id", sessionID).Warn("publish session stats")
		}
	}
	return stats, nil
}

// ComputeStats derives participant count, highest score and winners. An empty
// set yields zero values. Every participant matching the maximum is a winner.
func ComputeStats(sessionID string, completed []domain.Participation) domain.SessionStats {
	stats := domain.SessionStats{
		SessionID:         sessionID,
		TotalParticipants: len(completed),
		WinnerUserIDs:     []string{},
	}
	for _, p := range completed {
		if p.Score > stats.HighestScore {
			stats.HighestScore = p.Score
		}
	}
	for _, p := range completed {
		if p.Score == stats.HighestScore {
			stats.WinnerUserIDs = append(stats.WinnerUserIDs, p.UserID)
		}
	}
	// Store order is not guaranteed; keep output stable.
	sort.Strings(stats.WinnerUserIDs)
	return stats
}

// Rank orders participations by score desc then time taken asc and assigns
// distinct 1-based ranks. Equal score and time keep a stable, distinct order.
func Rank(participations []domain.Participation, responseCounts map[string]int) []domain.RankedParticipant {
	sorted := make([]domain.Participation, len(participations))
	copy(sorted, participations)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].TimeTaken < sorted[j].TimeTaken
	})

	ranked := make([]domain.RankedParticipant, len(sorted))
	for i, p := range sorted {
		ranked[i] = domain.RankedParticipant{
			Rank:          i + 1,
			Participation: p,
			ResponseCount: responseCounts[p.UserID],
		}
	}
	return ranked
}

// Report builds the participants view: ranking, winners and summary numbers.
// Winners are the leading participants sharing the top score.
func Report(session domain.Session, ranked []domain.RankedParticipant) domain.SessionReport {
	report := domain.SessionReport{
		Session:      session,
		Participants: ranked,
		Winners:      []domain.RankedParticipant{},
	}
	stats := &report.Statistics
	stats.TotalParticipants = len(ranked)
	if len(ranked) == 0 {
		return report
	}
	stats.HighestScore = ranked[0].Participation.Score

	var scoreSum, timeSum, timed int
	for _, r := range ranked {
		p := r.Participation
		if p.Score == stats.HighestScore {
			report.Winners = append(report.Winners, r)
		}
		if p.Completed() {
			stats.CompletedParticipants++
		}
		if p.TotalQuestions > 0 && p.CorrectAnswers == p.TotalQuestions {
			stats.PerfectScores++
		}
		scoreSum += p.Score
		if p.TimeTaken > 0 {
			timeSum += p.TimeTaken
			timed++
		}
	}
	stats.AverageScore = float64(scoreSum) / float64(len(ranked))
	if timed > 0 {
		stats.AverageTime = float64(timeSum) / float64(timed)
	}
	return report
}

// RankLeaderboard orders cumulative entries by score desc then oldest update.
func RankLeaderboard(entries []domain.ScoreEntry) []domain.LeaderboardRow {
	sorted := make([]domain.ScoreEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].UpdatedAt.Before(sorted[j].UpdatedAt)
	})
	rows := make([]domain.LeaderboardRow, len(sorted))
	for i, e := range sorted {
		rows[i] = domain.LeaderboardRow{Rank: i + 1, ScoreEntry: e, WinRate: e.WinRate()}
	}
	return rows
}
