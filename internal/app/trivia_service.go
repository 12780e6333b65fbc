package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"daily-trivia-service/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DateLayout is the calendar-date key of a session.
const DateLayout = "2006-01-02"

// Options configures the daily game.
type Options struct {
	QuestionCount int
	OptionCount   int
	TimerDuration int
	SessionType   string
	Scorer        Scorer
	AdminUserIDs  []string
}

// DefaultOptions mirrors the shipped config defaults.
func DefaultOptions() Options {
	return Options{
		QuestionCount: 5,
		OptionCount:   4,
		TimerDuration: 60,
		SessionType:   "daily",
		Scorer:        Scorer{Mode: ScoringUniform, DefaultPoints: 20},
	}
}

// TriviaService contains the daily trivia use cases.
type TriviaService struct {
	store      Store
	questions  QuestionSetRepository
	generator  Generator
	feed       StatsFeed
	registry   *SessionRegistry
	tracker    *ParticipationTracker
	aggregator *StatsAggregator
	opts       Options
	now        func() time.Time
	newID      func() string
	log        logrus.FieldLogger
}

// Deps groups the collaborators of TriviaService. Generator and Feed may be nil.
type Deps struct {
	Store     Store
	Questions QuestionSetRepository
	Generator Generator
	Feed      StatsFeed
	Log       logrus.FieldLogger
	Now       func() time.Time
	NewID     func() string
}

func NewTriviaService(deps Deps, opts Options) *TriviaService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = func() string { return uuid.NewString() }
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	if deps.Questions == nil {
		deps.Questions = storeQuestionSet{deps.Store}
	}
	return &TriviaService{
		store:      deps.Store,
		questions:  deps.Questions,
		generator:  deps.Generator,
		feed:       deps.Feed,
		registry:   NewSessionRegistry(deps.Store, deps.Now, deps.NewID),
		tracker:    NewParticipationTracker(deps.Store, deps.Now, deps.NewID),
		aggregator: NewStatsAggregator(deps.Store, deps.Store, deps.Feed, deps.Now, deps.Log),
		opts:       opts,
		now:        deps.Now,
		newID:      deps.NewID,
		log:        deps.Log,
	}
}

// Today is the UTC calendar date used as the session key.
func (s *TriviaService) Today() string {
	return s.now().UTC().Format(DateLayout)
}

// Registry exposes the session registry.
func (s *TriviaService) Registry() *SessionRegistry { return s.registry }

// Tracker exposes the participation tracker.
func (s *TriviaService) Tracker() *ParticipationTracker { return s.tracker }

// TodaysSession returns today's session or domain.ErrSessionNotFound.
func (s *TriviaService) TodaysSession(ctx context.Context) (domain.Session, error) {
	return s.registry.ByDate(ctx, s.Today())
}

// TodaysQuestions returns today's session and its questions in session order.
func (s *TriviaService) TodaysQuestions(ctx context.Context) (domain.Session, []domain.Question, error) {
	session, err := s.TodaysSession(ctx)
	if err != nil {
		return domain.Session{}, nil, err
	}
	questions, err := s.sessionQuestions(ctx, session)
	if err != nil {
		return domain.Session{}, nil, err
	}
	return session, questions, nil
}

// UserStatus reports where userID stands with today's session.
func (s *TriviaService) UserStatus(ctx context.Context, userID string) (domain.UserStatus, error) {
	session, err := s.TodaysSession(ctx)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.UserStatus{Kind: domain.UserNoSession}, nil
	}
	if err != nil {
		return domain.UserStatus{}, err
	}

	p, err := s.tracker.Get(ctx, userID, session.ID)
	if errors.Is(err, domain.ErrParticipationNotFound) {
		return domain.UserStatus{Kind: domain.UserNotParticipated, Session: &session}, nil
	}
	if err != nil {
		return domain.UserStatus{}, err
	}
	if !p.Completed() {
		return domain.UserStatus{Kind: domain.UserInProgress, Session: &session, Participation: &p}, nil
	}

	answered, err := s.answeredQuestions(ctx, userID, session)
	if err != nil {
		return domain.UserStatus{}, err
	}
	return domain.UserStatus{Kind: domain.UserCompleted, Session: &session, Participation: &p, Responses: answered}, nil
}

// Start begins or resumes today's attempt. A completed attempt is returned
// together with domain.ErrAlreadyCompleted.
func (s *TriviaService) Start(ctx context.Context, userID string) (domain.Participation, error) {
	session, err := s.TodaysSession(ctx)
	if err != nil {
		return domain.Participation{}, err
	}
	p, err := s.tracker.StartOrResume(ctx, userID, session.ID, len(session.QuestionIDs))
	if err != nil {
		return domain.Participation{}, err
	}
	if p.Completed() {
		return p, domain.ErrAlreadyCompleted
	}
	return p, nil
}

// Submit grades an answer sheet, records the completion and refreshes the
// leaderboard and session statistics. The timer is advisory: late submissions
// are accepted as long as the user has not already completed the session.
// The store decides races between concurrent submissions; only the winner
// reaches the leaderboard.
func (s *TriviaService) Submit(ctx context.Context, who domain.Identity, sub domain.Submission) (domain.SubmissionResult, error) {
	if who.UserID == "" {
		return domain.SubmissionResult{}, domain.ErrUnauthorized
	}
	if err := ValidateSubmission(sub); err != nil {
		return domain.SubmissionResult{}, err
	}

	session, err := s.registry.ByID(ctx, sub.SessionID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	existing, err := s.tracker.Get(ctx, who.UserID, session.ID)
	switch {
	case err == nil && existing.Completed():
		return domain.SubmissionResult{}, domain.ErrAlreadyCompleted
	case err != nil && !errors.Is(err, domain.ErrParticipationNotFound):
		return domain.SubmissionResult{}, err
	}

	questions, err := s.sessionQuestions(ctx, session)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	graded := s.opts.Scorer.Score(questions, sub.Responses)

	now := s.now()
	responses := make([]domain.Response, len(graded.Feedback))
	for i, fb := range graded.Feedback {
		responses[i] = domain.Response{
			ID:         s.newID(),
			UserID:     who.UserID,
			SessionID:  session.ID,
			QuestionID: fb.QuestionID,
			UserAnswer: fb.UserAnswer,
			IsCorrect:  fb.IsCorrect,
			AnsweredAt: now,
		}
	}

	if _, err := s.tracker.RecordCompletion(ctx, domain.Completion{
		UserID:         who.UserID,
		SessionID:      session.ID,
		Score:          graded.TotalScore,
		TotalQuestions: len(questions),
		CorrectAnswers: graded.CorrectCount,
		TimeTaken:      sub.TimeTaken,
	}, responses); errors.Is(err, domain.ErrAlreadyCompleted) {
		return domain.SubmissionResult{}, domain.ErrAlreadyCompleted
	} else if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("record completion: %w", err)
	}

	log := s.log.WithFields(logrus.Fields{"session_id": session.ID, "user_id": who.UserID})
	won := 0
	if len(questions) > 0 && graded.CorrectCount == len(questions) {
		won = 1
	}
	if err := s.store.AddScore(ctx, domain.ScoreEntry{
		UserID:      who.UserID,
		UserName:    who.DisplayName(),
		Score:       graded.TotalScore,
		GamesPlayed: 1,
		GamesWon:    won,
		UpdatedAt:   now,
	}); err != nil {
		log.WithError(err).Warn("update cumulative score")
	}
	if stats, err := s.aggregator.Recompute(ctx, session.ID); err != nil {
		log.WithError(err).Warn("recompute session statistics")
	} else {
		log.WithFields(logrus.Fields{
			"participants":  stats.TotalParticipants,
			"highest_score": stats.HighestScore,
		}).Info("session statistics updated")
	}

	return domain.SubmissionResult{
		Score:          graded.TotalScore,
		CorrectAnswers: graded.CorrectCount,
		TotalQuestions: len(questions),
		Feedback:       graded.Feedback,
		TimeExpired:    sub.AutoSubmit,
		TimeTaken:      sub.TimeTaken,
	}, nil
}

// RecomputeStats reruns the statistics aggregator for a session.
func (s *TriviaService) RecomputeStats(ctx context.Context, sessionID string) (domain.SessionStats, error) {
	if _, err := s.registry.ByID(ctx, sessionID); err != nil {
		return domain.SessionStats{}, err
	}
	return s.aggregator.Recompute(ctx, sessionID)
}

// IsAdmin checks the configured admin list, then the admins relation.
func (s *TriviaService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	for _, id := range s.opts.AdminUserIDs {
		if id == userID {
			return true, nil
		}
	}
	return s.store.IsAdmin(ctx, userID)
}

// Generate creates today's question set on behalf of an admin.
func (s *TriviaService) Generate(ctx context.Context, who domain.Identity) (domain.Session, []domain.Question, error) {
	if who.UserID == "" {
		return domain.Session{}, nil, domain.ErrUnauthorized
	}
	admin, err := s.IsAdmin(ctx, who.UserID)
	if err != nil {
		return domain.Session{}, nil, err
	}
	if !admin {
		return domain.Session{}, nil, domain.ErrForbidden
	}
	return s.GenerateForDate(ctx, s.Today())
}

// GenerateForDate asks the generator for a question set and persists it with
// its session in one transaction. A date that already has questions or a
// session yields domain.ErrAlreadyGenerated and nothing is written.
func (s *TriviaService) GenerateForDate(ctx context.Context, date string) (domain.Session, []domain.Question, error) {
	log := s.log.WithField("date", date)
	if _, err := s.registry.ByDate(ctx, date); err == nil {
		return domain.Session{}, nil, domain.ErrAlreadyGenerated
	} else if !errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Session{}, nil, err
	}
	existing, err := s.store.QuestionsByDate(ctx, date)
	if err != nil {
		return domain.Session{}, nil, err
	}
	if len(existing) > 0 {
		return domain.Session{}, nil, domain.ErrAlreadyGenerated
	}

	if s.generator == nil {
		return domain.Session{}, nil, fmt.Errorf("%w: generator not configured", domain.ErrGeneration)
	}
	log.Info("generating questions")
	generated, err := s.generator.Generate(ctx, s.opts.QuestionCount)
	if err != nil {
		if errors.Is(err, domain.ErrGeneration) {
			return domain.Session{}, nil, err
		}
		return domain.Session{}, nil, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	if err := ValidateGenerated(generated, s.opts.QuestionCount, s.opts.OptionCount); err != nil {
		return domain.Session{}, nil, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}

	now := s.now()
	questions := make([]domain.Question, len(generated))
	for i, g := range generated {
		questions[i] = domain.Question{
			ID:            s.newID(),
			Date:          date,
			Text:          g.Question,
			Options:       g.Options,
			CorrectAnswer: g.CorrectAnswer,
			Category:      g.Category,
			Points:        g.Points,
			GeneratedAt:   now,
		}
	}

	session, err := s.registry.CreateWithQuestions(ctx, date, questions, s.opts.TimerDuration, s.opts.SessionType)
	if errors.Is(err, domain.ErrSessionExists) {
		return domain.Session{}, nil, domain.ErrAlreadyGenerated
	}
	if err != nil {
		return domain.Session{}, nil, fmt.Errorf("save questions: %w", err)
	}
	log.WithField("session_id", session.ID).Infof("saved %d questions", len(questions))
	return session, questions, nil
}

// Participants builds the ranked participants report by session id or date.
func (s *TriviaService) Participants(ctx context.Context, sessionID, date string) (domain.SessionReport, error) {
	var (
		session domain.Session
		err     error
	)
	switch {
	case sessionID != "":
		session, err = s.registry.ByID(ctx, sessionID)
	case date != "":
		session, err = s.registry.ByDate(ctx, date)
	default:
		return domain.SessionReport{}, domain.NewValidationError("sessionId", "either sessionId or date is required")
	}
	if err != nil {
		return domain.SessionReport{}, err
	}

	participations, err := s.store.SessionParticipations(ctx, session.ID)
	if err != nil {
		return domain.SessionReport{}, err
	}
	counts, err := s.store.ResponseCounts(ctx, session.ID)
	if err != nil {
		return domain.SessionReport{}, err
	}
	return Report(session, Rank(participations, counts)), nil
}

// Leaderboard returns the cumulative ranking.
func (s *TriviaService) Leaderboard(ctx context.Context) ([]domain.LeaderboardRow, error) {
	entries, err := s.store.Scores(ctx)
	if err != nil {
		return nil, err
	}
	return RankLeaderboard(entries), nil
}

// History lists a user's participations, newest first.
func (s *TriviaService) History(ctx context.Context, userID string) ([]domain.Participation, error) {
	return s.store.UserParticipations(ctx, userID)
}

// QuestionBank lists every stored question, newest first.
func (s *TriviaService) QuestionBank(ctx context.Context) ([]domain.Question, error) {
	return s.store.ListQuestions(ctx)
}

// SubscribeStats streams a session's statistics: the latest published
// snapshot (or the stored session row when nothing was published) first, then
// every recompute. The caller must invoke cancel.
func (s *TriviaService) SubscribeStats(ctx context.Context, sessionID string) (<-chan domain.SessionStats, func(), error) {
	if s.feed == nil {
		return nil, nil, errors.New("live statistics not configured")
	}
	session, err := s.registry.ByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	updates, cancelFeed, err := s.feed.Subscribe(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	snapshot := domain.SessionStats{
		SessionID:         session.ID,
		TotalParticipants: session.TotalParticipants,
		HighestScore:      session.HighestScore,
		WinnerUserIDs:     session.WinnerUserIDs,
	}
	if latest, ok, err := s.feed.Latest(ctx, sessionID); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("read latest statistics")
	} else if ok {
		snapshot = latest
	}

	out := make(chan domain.SessionStats, 8)
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		defer close(out)
		select {
		case out <- snapshot:
		case <-done:
			return
		}
		for {
			select {
			case stats, ok := <-updates:
				if !ok {
					return
				}
				select {
				case out <- stats:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			cancelFeed()
			<-finished
		})
	}
	return out, cancel, nil
}

func (s *TriviaService) sessionQuestions(ctx context.Context, session domain.Session) ([]domain.Question, error) {
	if len(session.QuestionIDs) == 0 {
		return nil, domain.ErrQuestionsNotFound
	}
	questions, err := s.questions.SessionQuestions(ctx, session.ID, session.QuestionIDs)
	if err != nil {
		return nil, err
	}
	ordered := orderByIDs(questions, session.QuestionIDs)
	if len(ordered) == 0 {
		return nil, domain.ErrQuestionsNotFound
	}
	return ordered, nil
}

func (s *TriviaService) answeredQuestions(ctx context.Context, userID string, session domain.Session) ([]domain.AnsweredQuestion, error) {
	responses, err := s.store.UserResponses(ctx, userID, session.ID)
	if err != nil {
		return nil, err
	}
	questions, err := s.sessionQuestions(ctx, session)
	if err != nil && !errors.Is(err, domain.ErrQuestionsNotFound) {
		return nil, err
	}
	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	answered := make([]domain.AnsweredQuestion, 0, len(responses))
	for _, r := range responses {
		q := byID[r.QuestionID]
		answered = append(answered, domain.AnsweredQuestion{
			QuestionID:    r.QuestionID,
			Question:      q.Text,
			Category:      q.Category,
			Options:       q.Options,
			UserAnswer:    r.UserAnswer,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     r.IsCorrect,
			AnsweredAt:    r.AnsweredAt,
		})
	}
	return answered, nil
}

// orderByIDs returns questions in ids order, dropping ids with no record.
func orderByIDs(questions []domain.Question, ids []string) []domain.Question {
	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	ordered := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered
}

// storeQuestionSet reads question sets straight from the store, uncached.
type storeQuestionSet struct {
	loader QuestionLoader
}

func (q storeQuestionSet) SessionQuestions(ctx context.Context, _ string, ids []string) ([]domain.Question, error) {
	return q.loader.LoadQuestions(ctx, ids)
}
