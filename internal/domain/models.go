package domain

import "time"

// Session statuses.
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
)

// ParticipationStatus is the lifecycle state of one user's attempt at a session.
type ParticipationStatus string

const (
	StatusStarted   ParticipationStatus = "started"
	StatusCompleted ParticipationStatus = "completed"
	// StatusAbandoned is a valid stored value that no transition produces yet.
	StatusAbandoned ParticipationStatus = "abandoned"
)

// Question is an immutable multiple-choice question generated for one date.
type Question struct {
	ID            string    `json:"id"`
	Date          string    `json:"date"`
	Text          string    `json:"question"`
	Options       []string  `json:"options"`
	CorrectAnswer string    `json:"correctAnswer"`
	Category      string    `json:"category"`
	Points        int       `json:"points,omitempty"` // weighted scoring only; defaults apply if zero
	GeneratedAt   time.Time `json:"generatedAt"`
}

// PublicQuestion is what players see before they have completed a session.
type PublicQuestion struct {
	ID       string   `json:"id"`
	Date     string   `json:"date"`
	Text     string   `json:"question"`
	Options  []string `json:"options"`
	Category string   `json:"category"`
}

// Public strips the correct answer.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{ID: q.ID, Date: q.Date, Text: q.Text, Options: q.Options, Category: q.Category}
}

// GeneratedQuestion is the raw payload produced by a question generator.
type GeneratedQuestion struct {
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"required,dive,required"`
	CorrectAnswer string   `json:"correctAnswer" validate:"required"`
	Category      string   `json:"category" validate:"required"`
	Points        int      `json:"points,omitempty" validate:"gte=0"`
}

// Session is the single trivia game for one calendar date.
type Session struct {
	ID                string    `json:"id"`
	Date              string    `json:"date"`
	QuestionIDs       []string  `json:"questionIds"`
	Status            string    `json:"status"`
	SessionType       string    `json:"sessionType"`
	TimerDuration     int       `json:"timerDuration"`
	TotalParticipants int       `json:"totalParticipants"`
	HighestScore      int       `json:"highestScore"`
	WinnerUserIDs     []string  `json:"winnerUserIds"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Participation is one user's attempt record against one session.
type Participation struct {
	ID             string              `json:"id"`
	UserID         string              `json:"userId"`
	SessionID      string              `json:"sessionId"`
	Status         ParticipationStatus `json:"status"`
	Score          int                 `json:"score"`
	TotalQuestions int                 `json:"totalQuestions"`
	CorrectAnswers int                 `json:"correctAnswers"`
	TimeTaken      int                 `json:"timeTaken"`
	StartedAt      time.Time           `json:"startedAt"`
	CompletedAt    *time.Time          `json:"completedAt,omitempty"`
}

// Completed reports whether the participation reached its terminal state.
func (p Participation) Completed() bool {
	return p.Status == StatusCompleted
}

// Completion carries the final metrics of an attempt.
type Completion struct {
	UserID         string
	SessionID      string
	Score          int
	TotalQuestions int
	CorrectAnswers int
	TimeTaken      int
}

// Response is a user's answer to one question within a session.
type Response struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	SessionID  string    `json:"sessionId"`
	QuestionID string    `json:"questionId"`
	UserAnswer string    `json:"userAnswer"`
	IsCorrect  bool      `json:"isCorrect"`
	AnsweredAt time.Time `json:"answeredAt"`
}

// ScoreEntry is a user's cumulative leaderboard row.
type ScoreEntry struct {
	UserID      string    `json:"userId"`
	UserName    string    `json:"userName"`
	Score       int       `json:"score"`
	GamesPlayed int       `json:"gamesPlayed"`
	GamesWon    int       `json:"gamesWon"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WinRate is the rounded percentage of games won.
func (e ScoreEntry) WinRate() int {
	if e.GamesPlayed <= 0 {
		return 0
	}
	return int(float64(e.GamesWon)/float64(e.GamesPlayed)*100 + 0.5)
}

// LeaderboardRow is a ranked, display-ready ScoreEntry.
type LeaderboardRow struct {
	Rank int `json:"rank"`
	ScoreEntry
	WinRate int `json:"winRate"`
}

// AnswerSubmission is one (question, answer) pair from a client.
type AnswerSubmission struct {
	QuestionID string `json:"questionId" validate:"required"`
	UserAnswer string `json:"userAnswer"`
}

// Submission is a full answer sheet for a session.
type Submission struct {
	SessionID  string             `json:"sessionId" validate:"required"`
	Responses  []AnswerSubmission `json:"responses" validate:"required,dive"`
	TimeTaken  int                `json:"timeTaken" validate:"gte=0"`
	AutoSubmit bool               `json:"autoSubmit"`
}

// Feedback is the per-question outcome of a submission.
type Feedback struct {
	QuestionID    string `json:"questionId"`
	IsCorrect     bool   `json:"isCorrect"`
	CorrectAnswer string `json:"correctAnswer"`
	UserAnswer    string `json:"userAnswer"`
	Awarded       int    `json:"awarded"`
}

// ScoreResult is the output of the scoring engine.
type ScoreResult struct {
	Feedback     []Feedback `json:"feedback"`
	CorrectCount int        `json:"correctAnswers"`
	TotalScore   int        `json:"score"`
}

// SubmissionResult is returned to the player after a submission.
type SubmissionResult struct {
	Score          int        `json:"score"`
	CorrectAnswers int        `json:"correctAnswers"`
	TotalQuestions int        `json:"totalQuestions"`
	Feedback       []Feedback `json:"feedback"`
	TimeExpired    bool       `json:"timeExpired"`
	TimeTaken      int        `json:"timeTaken"`
}

// SessionStats are the derived statistics stored on a session.
type SessionStats struct {
	SessionID         string   `json:"sessionId"`
	TotalParticipants int      `json:"totalParticipants"`
	HighestScore      int      `json:"highestScore"`
	WinnerUserIDs     []string `json:"winnerUserIds"`
}

// RankedParticipant is a presentation-time ranking row.
type RankedParticipant struct {
	Rank          int           `json:"rank"`
	Participation Participation `json:"participation"`
	ResponseCount int           `json:"responseCount"`
}

// ReportStats summarises a session for the participants view.
type ReportStats struct {
	TotalParticipants     int     `json:"totalParticipants"`
	CompletedParticipants int     `json:"completedParticipants"`
	AverageScore          float64 `json:"averageScore"`
	AverageTime           float64 `json:"averageTime"`
	HighestScore          int     `json:"highestScore"`
	PerfectScores         int     `json:"perfectScores"`
}

// SessionReport is the participants view for one session.
type SessionReport struct {
	Session      Session             `json:"session"`
	Participants []RankedParticipant `json:"participants"`
	Winners      []RankedParticipant `json:"winners"`
	Statistics   ReportStats         `json:"statistics"`
}

// AnsweredQuestion joins a stored response with its question.
type AnsweredQuestion struct {
	QuestionID    string    `json:"questionId"`
	Question      string    `json:"question"`
	Category      string    `json:"category"`
	Options       []string  `json:"options"`
	UserAnswer    string    `json:"userAnswer"`
	CorrectAnswer string    `json:"correctAnswer"`
	IsCorrect     bool      `json:"isCorrect"`
	AnsweredAt    time.Time `json:"answeredAt"`
}

// UserStatusKind enumerates where a user stands with today's session.
type UserStatusKind string

const (
	UserNoSession       UserStatusKind = "no_session"
	UserNotParticipated UserStatusKind = "not_participated"
	UserInProgress      UserStatusKind = "in_progress"
	UserCompleted       UserStatusKind = "completed"
)

// UserStatus describes a user's standing with today's session.
type UserStatus struct {
	Kind          UserStatusKind     `json:"status"`
	Session       *Session           `json:"session,omitempty"`
	Participation *Participation     `json:"participation,omitempty"`
	Responses     []AnsweredQuestion `json:"responses,omitempty"`
}

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// DisplayName falls back from name to email to a placeholder.
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	if i.Email != "" {
		return i.Email
	}
	return "Unknown"
}
