package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"daily-trivia-service/internal/app"
	"daily-trivia-service/internal/auth"
	"daily-trivia-service/internal/domain"
	"daily-trivia-service/internal/infra/memory"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
)

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	server   *httptest.Server
	store    *memory.Store
	verifier *auth.Verifier
	service  *app.TriviaService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store := memory.NewStore()
	opts := app.DefaultOptions()
	opts.AdminUserIDs = []string{"admin-1"}
	service := app.NewTriviaService(app.Deps{
		Store:     store,
		Questions: memory.NewQuestionSetCache(store, time.Minute),
		Generator: memory.NewStaticGenerator(memory.SampleQuestions()),
		Feed:      memory.NewStatsFeed(),
		Log:       logger,
		Now:       func() time.Time { return fixedNow },
	}, opts)
	verifier := auth.NewVerifier("test-secret")
	server := httptest.NewServer(NewAPI(service, verifier, logger).Router())
	t.Cleanup(server.Close)
	return &fixture{server: server, store: store, verifier: verifier, service: service}
}

func (f *fixture) seed(t *testing.T) domain.Session {
	t.Helper()
	questions := []domain.Question{
		{ID: "Q1", Date: "2024-01-01", Text: "Capital of France?", Options: []string{"Paris", "Rome", "Madrid", "Berlin"}, CorrectAnswer: "Paris", Category: "Geography", GeneratedAt: fixedNow},
		{ID: "Q2", Date: "2024-01-01", Text: "Answer to everything?", Options: []string{"42", "7", "13", "0"}, CorrectAnswer: "42", Category: "Culture", GeneratedAt: fixedNow},
	}
	session, err := f.service.Registry().CreateWithQuestions(context.Background(), "2024-01-01", questions, 60, "daily")
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return session
}

func (f *fixture) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := f.verifier.Sign(domain.Identity{UserID: userID, Name: strings.ToUpper(userID)}, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func (f *fixture) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out := map[string]interface{}{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode, out
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	status, _ := f.do(t, http.MethodGet, "/healthz", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
}

func TestTodayNotFoundThenFound(t *testing.T) {
	f := newFixture(t)
	status, body := f.do(t, http.MethodGet, "/api/sessions/today", "", nil)
	if status != http.StatusNotFound || body["success"] != false {
		t.Fatalf("expected 404 envelope, got %d %v", status, body)
	}

	f.seed(t)
	status, body = f.do(t, http.MethodGet, "/api/sessions/today", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d %v", status, body)
	}
	session := body["session"].(map[string]interface{})
	if session["date"] != "2024-01-01" {
		t.Fatalf("unexpected session %v", session)
	}
}

func TestQuestionsTodayHideAnswers(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	status, body := f.do(t, http.MethodGet, "/api/questions/today", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	questions := body["questions"].([]interface{})
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	for _, q := range questions {
		if _, ok := q.(map[string]interface{})["correctAnswer"]; ok {
			t.Fatalf("correct answer leaked: %v", q)
		}
	}
}

func TestUserRoutesRequireToken(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/api/me/status", "/api/me/history", "/api/questions"} {
		if status, _ := f.do(t, http.MethodGet, path, "", nil); status != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, status)
		}
	}
	if status, _ := f.do(t, http.MethodPost, "/api/responses", "bogus", map[string]string{}); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", status)
	}
}

func TestPlayFlow(t *testing.T) {
	f := newFixture(t)
	session := f.seed(t)
	tok := f.token(t, "u1")

	status, body := f.do(t, http.MethodGet, "/api/me/status", tok, nil)
	if status != http.StatusOK || body["status"].(map[string]interface{})["status"] != "not_participated" {
		t.Fatalf("unexpected status %d %v", status, body)
	}

	status, body = f.do(t, http.MethodPost, "/api/sessions/today/start", tok, nil)
	if status != http.StatusOK {
		t.Fatalf("start: %d %v", status, body)
	}

	sub := domain.Submission{
		SessionID: session.ID,
		Responses: []domain.AnswerSubmission{{QuestionID: "Q1", UserAnswer: "Paris"}, {QuestionID: "Q2", UserAnswer: "42"}},
		TimeTaken: 20,
	}
	status, body = f.do(t, http.MethodPost, "/api/responses", tok, sub)
	if status != http.StatusOK {
		t.Fatalf("submit: %d %v", status, body)
	}
	result := body["result"].(map[string]interface{})
	if result["score"].(float64) != 2 || result["correctAnswers"].(float64) != 2 {
		t.Fatalf("unexpected result %v", result)
	}

	status, body = f.do(t, http.MethodPost, "/api/responses", tok, sub)
	if status != http.StatusConflict {
		t.Fatalf("expected 409 on resubmission, got %d %v", status, body)
	}
	status, body = f.do(t, http.MethodPost, "/api/sessions/today/start", tok, nil)
	if status != http.StatusConflict || body["participation"] == nil {
		t.Fatalf("expected 409 with participation, got %d %v", status, body)
	}

	status, body = f.do(t, http.MethodGet, "/api/me/status", tok, nil)
	st := body["status"].(map[string]interface{})
	if status != http.StatusOK || st["status"] != "completed" || len(st["responses"].([]interface{})) != 2 {
		t.Fatalf("unexpected completed status %d %v", status, body)
	}

	status, body = f.do(t, http.MethodGet, "/api/leaderboard", "", nil)
	rows := body["leaderboard"].([]interface{})
	if status != http.StatusOK || len(rows) != 1 {
		t.Fatalf("unexpected leaderboard %d %v", status, body)
	}
	row := rows[0].(map[string]interface{})
	if row["userName"] != "U1" || row["winRate"].(float64) != 100 || row["rank"].(float64) != 1 {
		t.Fatalf("unexpected leaderboard row %v", row)
	}

	status, body = f.do(t, http.MethodGet, "/api/sessions/participants?sessionId="+session.ID, "", nil)
	if status != http.StatusOK {
		t.Fatalf("participants: %d %v", status, body)
	}
	stats := body["report"].(map[string]interface{})["statistics"].(map[string]interface{})
	if stats["perfectScores"].(float64) != 1 || stats["completedParticipants"].(float64) != 1 {
		t.Fatalf("unexpected report stats %v", stats)
	}

	status, body = f.do(t, http.MethodGet, "/api/me/history", tok, nil)
	if status != http.StatusOK || len(body["history"].([]interface{})) != 1 {
		t.Fatalf("unexpected history %d %v", status, body)
	}
}

func TestSubmitErrors(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	tok := f.token(t, "u1")

	if status, _ := f.do(t, http.MethodPost, "/api/responses", tok, map[string]interface{}{"responses": []interface{}{}}); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing session id, got %d", status)
	}
	sub := domain.Submission{SessionID: "missing", Responses: []domain.AnswerSubmission{{QuestionID: "Q1", UserAnswer: "Paris"}}}
	if status, _ := f.do(t, http.MethodPost, "/api/responses", tok, sub); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", status)
	}
}

func TestParticipantsRequiresSelector(t *testing.T) {
	f := newFixture(t)
	if status, _ := f.do(t, http.MethodGet, "/api/sessions/participants", "", nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if status, _ := f.do(t, http.MethodGet, "/api/sessions/participants?date=2023-12-31", "", nil); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestAdminGenerate(t *testing.T) {
	f := newFixture(t)

	if status, _ := f.do(t, http.MethodPost, "/api/admin/generate", f.token(t, "u1"), nil); status != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", status)
	}

	admin := f.token(t, "admin-1")
	status, body := f.do(t, http.MethodPost, "/api/admin/generate", admin, nil)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d %v", status, body)
	}
	if len(body["questions"].([]interface{})) != 5 {
		t.Fatalf("expected 5 questions, got %v", body["questions"])
	}

	status, body = f.do(t, http.MethodPost, "/api/admin/generate", admin, nil)
	if status != http.StatusConflict || body["alreadyGenerated"] != true {
		t.Fatalf("expected 409 already generated, got %d %v", status, body)
	}

	status, body = f.do(t, http.MethodGet, "/api/questions", admin, nil)
	if status != http.StatusOK || len(body["questions"].([]interface{})) != 5 {
		t.Fatalf("unexpected question bank %d %v", status, body)
	}
}

func TestStatusMapping(t *testing.T) {
	cases := map[error]int{
		domain.ErrUnauthorized:                http.StatusUnauthorized,
		domain.ErrForbidden:                   http.StatusForbidden,
		domain.ErrQuestionsNotFound:           http.StatusNotFound,
		domain.ErrAlreadyCompleted:            http.StatusConflict,
		domain.NewValidationError("x", "bad"): http.StatusBadRequest,
		domain.ErrGeneration:                  http.StatusBadGateway,
		context.DeadlineExceeded:              http.StatusInternalServerError,
	}
	// malformed generator output reports as a generation failure
	cases[fmt.Errorf("%w: %w", domain.ErrGeneration, domain.NewValidationError("questions", "bad"))] = http.StatusBadGateway
	for err, want := range cases {
		if got := statusFor(err); got != want {
			t.Fatalf("%v: expected %d, got %d", err, want, got)
		}
	}
}

func TestStatsStream(t *testing.T) {
	f := newFixture(t)
	session := f.seed(t)

	u := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/sessions/" + session.ID + "/stats"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	first := readStats(t, conn)
	if first["totalParticipants"].(float64) != 0 {
		t.Fatalf("expected empty snapshot, got %v", first)
	}

	_, err = f.service.Submit(context.Background(), domain.Identity{UserID: "u1"}, domain.Submission{
		SessionID: session.ID,
		Responses: []domain.AnswerSubmission{{QuestionID: "Q1", UserAnswer: "Paris"}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	update := readStats(t, conn)
	if update["totalParticipants"].(float64) != 1 || update["highestScore"].(float64) != 1 {
		t.Fatalf("unexpected update %v", update)
	}
}

func TestStatsStreamUnknownSession(t *testing.T) {
	f := newFixture(t)
	u := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/sessions/nope/stats"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected dial failure")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 response, got %v", resp)
	}
}

func readStats(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	var msg struct {
		Type    string                 `json:"type"`
		Payload map[string]interface{} `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "stats" {
		t.Fatalf("expected stats message, got %s", msg.Type)
	}
	return msg.Payload
}
