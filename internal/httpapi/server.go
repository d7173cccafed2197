package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/antoniostano/remedi/internal/config"
	"github.com/antoniostano/remedi/internal/conversation"
	"github.com/antoniostano/remedi/internal/observability"
	"github.com/antoniostano/remedi/internal/reminder"
	"github.com/antoniostano/remedi/internal/transcribe"
)

type Server struct {
	cfg           config.Config
	conversations *conversation.Manager
	store         reminder.Store
	stt           transcribe.Provider
	metrics       *observability.Metrics
	logger        *zap.Logger
	upgrader      websocket.Upgrader
}

func New(cfg config.Config, conversations *conversation.Manager, store reminder.Store, stt transcribe.Provider, metrics *observability.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:           cfg,
		conversations: conversations,
		store:         store,
		stt:           stt,
		metrics:       metrics,
		logger:        logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin, so other sites cannot drive a user's reminder
				// setup if the service is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/transcribe", s.handleTranscribe)

	r.Post("/v1/conversation", s.handleStartConversation)
	r.Get("/v1/conversation/{id}", s.handleGetConversation)
	r.Post("/v1/conversation/{id}/input", s.handleConversationInput)
	r.Post("/v1/conversation/{id}/confirm", s.handleConversationConfirm)
	r.Delete("/v1/conversation/{id}", s.handleEndConversation)
	r.Get("/v1/conversation/ws", s.handleConversationWS)

	r.Post("/v1/reminders", s.handleCreateReminder)
	r.Get("/v1/reminders", s.handleListReminders)
	r.Get("/v1/reminders/{id}", s.handleGetReminder)
	r.Patch("/v1/reminders/{id}", s.handleUpdateReminder)
	r.Delete("/v1/reminders/{id}", s.handleDeleteReminder)
	r.Post("/v1/reminders/{id}/pause", s.handlePauseReminder)
	r.Post("/v1/reminders/{id}/resume", s.handleResumeReminder)
	r.Post("/v1/reminders/{id}/taken", s.handleReminderTaken)

	r.Get("/v1/history", s.handleListHistory)

	r.Get("/v1/caretakers", s.handleListCaretakers)
	r.Post("/v1/caretakers", s.handleSaveCaretaker)

	r.Get("/v1/settings/alerts", s.handleGetAlertSettings)
	r.Put("/v1/settings/alerts", s.handlePutAlertSettings)

	r.Get("/v1/perf/monitor", s.handlePerfMonitor)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.ListReminders(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (s *Server) handlePerfMonitor(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.metrics.StageSnapshot())
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
