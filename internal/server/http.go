package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hamzaa73/EduGenie/internal/config"
	"github.com/hamzaa73/EduGenie/internal/history"
	"github.com/hamzaa73/EduGenie/internal/session"
	"github.com/hamzaa73/EduGenie/pkg/http/ws"
)

// WSUpgrader handles WebSocket upgrades for the local session feed.
var WSUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Single-user local service; every origin is the owner.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// NewHTTPServer wires the session flow, history and base routes.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, sess *session.Session, hist *history.Service, hub *ws.Hub) *http.Server {
	h := NewHandlers(sess, hist, logger)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/session", h.GetSession)
	mux.HandleFunc("PUT /v1/session/text", h.PutText)
	mux.HandleFunc("POST /v1/session/preview", h.SubmitText)
	mux.HandleFunc("PUT /v1/session/config", h.PutConfig)
	mux.HandleFunc("PUT /v1/session/language", h.PutLanguage)
	mux.HandleFunc("POST /v1/session/upload", h.Upload)
	mux.HandleFunc("POST /v1/session/generate", h.Generate)

	mux.HandleFunc("POST /v1/session/quiz/start", h.StartQuiz)
	mux.HandleFunc("POST /v1/session/quiz/answer", h.Answer)
	mux.HandleFunc("POST /v1/session/quiz/next", h.Next)
	mux.HandleFunc("POST /v1/session/quiz/prev", h.Prev)
	mux.HandleFunc("POST /v1/session/quiz/finish", h.Finish)

	mux.HandleFunc("POST /v1/session/review", h.Review)
	mux.HandleFunc("POST /v1/session/retake", h.Retake)
	mux.HandleFunc("POST /v1/session/back", h.Back)
	mux.HandleFunc("POST /v1/session/reset", h.Reset)

	mux.HandleFunc("GET /v1/history", h.ListHistory)
	mux.HandleFunc("POST /v1/history/{id}/select", h.SelectBank)
	mux.HandleFunc("POST /v1/history/open", h.OpenHistory)

	mux.HandleFunc("GET /ws/session", h.SessionFeed(hub))

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}
}
