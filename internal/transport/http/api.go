package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"daily-trivia-service/internal/app"
	"daily-trivia-service/internal/auth"
	"daily-trivia-service/internal/domain"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// API exposes the trivia use cases over REST and websockets.
type API struct {
	service  *app.TriviaService
	verifier *auth.Verifier
	stats    *StatsHandler
	log      logrus.FieldLogger
}

func NewAPI(service *app.TriviaService, verifier *auth.Verifier, log logrus.FieldLogger) *API {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &API{
		service:  service,
		verifier: verifier,
		stats:    NewStatsHandler(service, log),
		log:      log,
	}
}

// Router wires every route onto a gorilla/mux router.
func (a *API) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sessions/today", a.todaysSession).Methods(http.MethodGet)
	api.HandleFunc("/questions/today", a.todaysQuestions).Methods(http.MethodGet)
	api.HandleFunc("/sessions/participants", a.participants).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard", a.leaderboard).Methods(http.MethodGet)

	user := a.verifier.Middleware(true)
	api.Handle("/me/status", user(http.HandlerFunc(a.userStatus))).Methods(http.MethodGet)
	api.Handle("/me/history", user(http.HandlerFunc(a.history))).Methods(http.MethodGet)
	api.Handle("/sessions/today/start", user(http.HandlerFunc(a.start))).Methods(http.MethodPost)
	api.Handle("/responses", user(http.HandlerFunc(a.submit))).Methods(http.MethodPost)
	api.Handle("/questions", user(http.HandlerFunc(a.questionBank))).Methods(http.MethodGet)
	api.Handle("/admin/generate", user(http.HandlerFunc(a.generate))).Methods(http.MethodPost)

	r.HandleFunc("/ws/sessions/{id}/stats", a.stats.ServeWS).Methods(http.MethodGet)
	return r
}

func (a *API) todaysSession(w http.ResponseWriter, r *http.Request) {
	session, err := a.service.TodaysSession(r.Context())
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "session": session})
}

func (a *API) todaysQuestions(w http.ResponseWriter, r *http.Request) {
	session, questions, err := a.service.TodaysQuestions(r.Context())
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	public := make([]domain.PublicQuestion, len(questions))
	for i, q := range questions {
		public[i] = q.Public()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"session":   session,
		"questions": public,
	})
}

func (a *API) userStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	status, err := a.service.UserStatus(r.Context(), id.UserID)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "status": status})
}

func (a *API) start(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	p, err := a.service.Start(r.Context(), id.UserID)
	if errors.Is(err, domain.ErrAlreadyCompleted) {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"success":       false,
			"error":         err.Error(),
			"participation": p,
		})
		return
	}
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "participation": p})
}

func (a *API) submit(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	var sub domain.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, a.log, domain.NewValidationError("body", "invalid JSON: %v", err))
		return
	}
	result, err := a.service.Submit(r.Context(), id, sub)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "result": result})
}

func (a *API) generate(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	session, questions, err := a.service.Generate(r.Context(), id)
	if errors.Is(err, domain.ErrAlreadyGenerated) {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"success":          false,
			"alreadyGenerated": true,
			"error":            "questions already generated for today",
		})
		return
	}
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":   true,
		"session":   session,
		"questions": questions,
	})
}

func (a *API) participants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := a.service.Participants(r.Context(), q.Get("sessionId"), q.Get("date"))
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "report": report})
}

func (a *API) leaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := a.service.Leaderboard(r.Context())
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "leaderboard": rows})
}

func (a *API) history(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	games, err := a.service.History(r.Context(), id.UserID)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	if games == nil {
		games = []domain.Participation{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "history": games})
}

func (a *API) questionBank(w http.ResponseWriter, r *http.Request) {
	questions, err := a.service.QuestionBank(r.Context())
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	if questions == nil {
		questions = []domain.Question{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "questions": questions})
}
