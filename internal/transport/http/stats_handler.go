package http

import (
	"net/http"
	"time"

	"daily-trivia-service/internal/app"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

// StatsHandler streams a session's live statistics to websocket clients.
type StatsHandler struct {
	service  *app.TriviaService
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

func NewStatsHandler(service *app.TriviaService, log logrus.FieldLogger) *StatsHandler {
	return &StatsHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS subscribes before upgrading so an unknown session is still a plain 404.
func (h *StatsHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	updates, cancel, err := h.service.SubscribeStats(r.Context(), sessionID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()
	log := h.log.WithField("session_id", sessionID)
	log.Debug("stats subscriber connected")

	// the client never sends anything useful; reading surfaces the close frame
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case stats, ok := <-updates:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(outboundMessage[interface{}]{Type: "stats", Payload: stats}); err != nil {
				log.WithError(err).Debug("ws write error")
				return
			}
		case <-readerDone:
			log.Debug("stats subscriber disconnected")
			return
		}
	}
}
