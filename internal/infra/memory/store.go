package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"daily-trivia-service/internal/domain"
)

// Store is an in-process implementation of app.Store. Uniqueness is enforced by
// keyed maps under a single mutex, which gives the same guarantees the unique
// indexes give the SQL store.
type Store struct {
	mu             sync.RWMutex
	questions      map[string]domain.Question
	sessions       map[string]domain.Session // by id
	sessionByDate  map[string]string
	participations map[participationKey]domain.Participation
	responses      map[responseKey]domain.Response
	scores         map[string]domain.ScoreEntry
	admins         map[string]struct{}
}

type participationKey struct {
	userID, sessionID string
}

type responseKey struct {
	userID, sessionID, questionID string
}

func NewStore(adminIDs ...string) *Store {
	s := &Store{
		questions:      make(map[string]domain.Question),
		sessions:       make(map[string]domain.Session),
		sessionByDate:  make(map[string]string),
		participations: make(map[participationKey]domain.Participation),
		responses:      make(map[responseKey]domain.Response),
		scores:         make(map[string]domain.ScoreEntry),
		admins:         make(map[string]struct{}),
	}
	for _, id := range adminIDs {
		s.admins[id] = struct{}{}
	}
	return s
}

func (s *Store) SessionByDate(_ context.Context, date string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.sessionByDate[date]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return cloneSession(s.sessions[id]), nil
}

func (s *Store) SessionByID(_ context.Context, id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

func (s *Store) CreateSession(_ context.Context, session domain.Session, questions []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessionByDate[session.Date]; exists {
		return domain.ErrSessionExists
	}
	for _, q := range questions {
		s.questions[q.ID] = q
	}
	s.sessions[session.ID] = cloneSession(session)
	s.sessionByDate[session.Date] = session.ID
	return nil
}

func (s *Store) UpdateSessionStats(_ context.Context, stats domain.SessionStats, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[stats.SessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.TotalParticipants = stats.TotalParticipants
	session.HighestScore = stats.HighestScore
	session.WinnerUserIDs = append([]string(nil), stats.WinnerUserIDs...)
	session.UpdatedAt = at
	s.sessions[session.ID] = session
	return nil
}

func (s *Store) LoadQuestions(_ context.Context, ids []string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := s.questions[id]; ok {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GeneratedAt.Before(out[j].GeneratedAt) })
	return out, nil
}

func (s *Store) QuestionsByDate(_ context.Context, date string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Question
	for _, q := range s.questions {
		if q.Date == date {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GeneratedAt.Before(out[j].GeneratedAt) })
	return out, nil
}

func (s *Store) ListQuestions(_ context.Context) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, q)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out, nil
}

// AddQuestions seeds the question bank without a session.
func (s *Store) AddQuestions(questions ...domain.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range questions {
		s.questions[q.ID] = q
	}
}

func (s *Store) Participation(_ context.Context, userID, sessionID string) (domain.Participation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participations[participationKey{userID, sessionID}]
	if !ok {
		return domain.Participation{}, domain.ErrParticipationNotFound
	}
	return p, nil
}

func (s *Store) StartParticipation(_ context.Context, p domain.Participation) (domain.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := participationKey{p.UserID, p.SessionID}
	if existing, ok := s.participations[key]; ok {
		return existing, nil
	}
	s.participations[key] = p
	return p, nil
}

func (s *Store) CompleteParticipation(_ context.Context, p domain.Participation, responses []domain.Response) (domain.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := participationKey{p.UserID, p.SessionID}
	if existing, ok := s.participations[key]; ok {
		if existing.Completed() {
			return domain.Participation{}, domain.ErrAlreadyCompleted
		}
		p.ID = existing.ID
		p.StartedAt = existing.StartedAt
	}
	s.participations[key] = p
	for _, r := range responses {
		rk := responseKey{r.UserID, r.SessionID, r.QuestionID}
		if existing, ok := s.responses[rk]; ok {
			r.ID = existing.ID
		}
		s.responses[rk] = r
	}
	return p, nil
}

func (s *Store) CompletedParticipations(ctx context.Context, sessionID string) ([]domain.Participation, error) {
	all, err := s.SessionParticipations(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, p := range all {
		if p.Completed() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) SessionParticipations(_ context.Context, sessionID string) ([]domain.Participation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Participation
	for key, p := range s.participations {
		if key.sessionID == sessionID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Store) UserParticipations(_ context.Context, userID string) ([]domain.Participation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Participation
	for key, p := range s.participations {
		if key.userID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (s *Store) UserResponses(_ context.Context, userID, sessionID string) ([]domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Response
	for key, r := range s.responses {
		if key.userID == userID && key.sessionID == sessionID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (s *Store) ResponseCounts(_ context.Context, sessionID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for key := range s.responses {
		if key.sessionID == sessionID {
			counts[key.userID]++
		}
	}
	return counts, nil
}

func (s *Store) AddScore(_ context.Context, entry domain.ScoreEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.scores[entry.UserID]; ok {
		entry.Score += existing.Score
		entry.GamesPlayed += existing.GamesPlayed
		entry.GamesWon += existing.GamesWon
	}
	s.scores[entry.UserID] = entry
	return nil
}

func (s *Store) Scores(_ context.Context) ([]domain.ScoreEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ScoreEntry, 0, len(s.scores))
	for _, e := range s.scores {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].UpdatedAt.Before(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *Store) IsAdmin(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.admins[userID]
	return ok, nil
}

func cloneSession(s domain.Session) domain.Session {
	s.QuestionIDs = append([]string(nil), s.QuestionIDs...)
	s.WinnerUserIDs = append([]string{}, s.WinnerUserIDs...)
	return s
}
