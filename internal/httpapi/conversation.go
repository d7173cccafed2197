package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/antoniostano/remedi/internal/conversation"
	"github.com/antoniostano/remedi/internal/protocol"
)

const maxAudioUpload = 10 << 20

type startConversationRequest struct {
	UserID   string `json:"user_id"`
	Language string `json:"language"`
}

type confirmRequest struct {
	Accepted bool `json:"accepted"`
}

type inputRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleStartConversation(w http.ResponseWriter, r *http.Request) {
	var req startConversationRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = "anonymous"
	}

	c := s.conversations.Start(req.UserID, req.Language)
	if s.metrics != nil {
		s.metrics.ActiveConversations.Set(float64(s.conversations.ActiveCount()))
	}
	respondJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	c, err := s.conversations.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "conversation_not_found", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleConversationInput(w http.ResponseWriter, r *http.Request) {
	var req inputRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}

	reply, err := s.conversations.ProcessInput(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			respondError(w, http.StatusNotFound, "conversation_not_found", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, reply)
}

func (s *Server) handleConversationConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	reply, err := s.conversations.Confirm(r.Context(), chi.URLParam(r, "id"), req.Accepted)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			respondError(w, http.StatusNotFound, "conversation_not_found", err.Error())
			return
		}
		// Save failures surface the localized error reply alongside a 502.
		respondJSON(w, http.StatusBadGateway, reply)
		return
	}
	if s.metrics != nil {
		s.metrics.ActiveConversations.Set(float64(s.conversations.ActiveCount()))
	}
	respondJSON(w, http.StatusOK, reply)
}

func (s *Server) handleEndConversation(w http.ResponseWriter, r *http.Request) {
	s.conversations.End(chi.URLParam(r, "id"))
	if s.metrics != nil {
		s.metrics.ActiveConversations.Set(float64(s.conversations.ActiveCount()))
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ended"})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if s.stt == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "transcription not configured")
		return
	}

	audio, language, err := readAudioUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_upload", err.Error())
		return
	}
	if len(audio) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_upload", "empty audio clip")
		return
	}

	started := time.Now()
	result, err := s.stt.Transcribe(r.Context(), audio, language)
	if err != nil {
		if s.metrics != nil {
			s.metrics.TranscribeRequests.WithLabelValues("failed").Inc()
		}
		s.logger.Warn("transcription failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, "transcription_failed", err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.TranscribeRequests.WithLabelValues("ok").Inc()
		s.metrics.ObserveStage("transcribe", float64(time.Since(started).Milliseconds()))
	}
	respondJSON(w, http.StatusOK, result)
}

func readAudioUpload(r *http.Request) ([]byte, string, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxAudioUpload); err != nil {
			return nil, "", err
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, "", err
		}
		defer file.Close()
		audio, err := io.ReadAll(io.LimitReader(file, maxAudioUpload))
		if err != nil {
			return nil, "", err
		}
		return audio, r.FormValue("language"), nil
	}

	defer r.Body.Close()
	audio, err := io.ReadAll(io.LimitReader(r.Body, maxAudioUpload))
	if err != nil {
		return nil, "", err
	}
	return audio, r.URL.Query().Get("language"), nil
}

// handleConversationWS drives one slot-filling conversation over a
// websocket. Turns are strictly request/reply, so the single read loop
// also keeps websocket writes single-threaded.
func (s *Server) handleConversationWS(w http.ResponseWriter, r *http.Request) {
	conversationID := strings.TrimSpace(r.URL.Query().Get("conversation_id"))
	if conversationID == "" {
		respondError(w, http.StatusBadRequest, "missing_conversation_id", "query parameter conversation_id is required")
		return
	}
	if _, err := s.conversations.Get(conversationID); err != nil {
		respondError(w, http.StatusNotFound, "conversation_not_found", err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			s.writeWS(conn, protocol.ErrorEvent{
				Type:           protocol.TypeErrorEvent,
				ConversationID: conversationID,
				Code:           "invalid_client_message",
				Retryable:      false,
				Detail:         err.Error(),
			})
			continue
		}

		var reply conversation.Reply
		switch msg := parsed.(type) {
		case protocol.ClientUtterance:
			reply, err = s.conversations.ProcessInput(r.Context(), msg.ConversationID, msg.Text)
		case protocol.ClientConfirm:
			reply, err = s.conversations.Confirm(r.Context(), msg.ConversationID, msg.Accepted)
		default:
			continue
		}
		if err != nil && errors.Is(err, conversation.ErrNotFound) {
			s.writeWS(conn, protocol.ErrorEvent{
				Type:           protocol.TypeErrorEvent,
				ConversationID: conversationID,
				Code:           "conversation_not_found",
				Retryable:      false,
				Detail:         err.Error(),
			})
			continue
		}

		s.writeWS(conn, protocol.AssistantReply{
			Type:           protocol.TypeAssistantReply,
			ConversationID: reply.ConversationID,
			Action:         string(reply.Action),
			State:          string(reply.State),
			Message:        reply.Message,
			Missing:        reply.Missing,
			Data:           reply,
		})
	}
}

func (s *Server) writeWS(conn *websocket.Conn, v any) {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(v); err != nil {
		s.logger.Debug("websocket write failed", zap.Error(err))
	}
}
