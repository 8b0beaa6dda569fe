package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/contractor-leads/internal/leads"
	"github.com/wolfman30/contractor-leads/pkg/logging"
)

// LeadSubmitter is the intake pipeline used for chat-to-form conversion.
type LeadSubmitter interface {
	SubmitFrom(ctx context.Context, form *leads.Form, source string) (*leads.Outcome, error)
}

// LeadSource labels leads captured through the chat widget.
const LeadSource = "chat"

// Handler manages chat widget connections and messages.
type Handler struct {
	responder *Responder
	intake    LeadSubmitter
	logger    *logging.Logger

	mu       sync.RWMutex
	sessions map[string]*websocket.Conn // sessionID -> active connection
}

// InboundMessage is what the widget sends over the socket.
type InboundMessage struct {
	Type  string `json:"type"` // "message", "quick_action", "ping"
	Text  string `json:"text,omitempty"`
	Value string `json:"value,omitempty"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type      string    `json:"type"` // "session", "history", "typing", "message", "pong", "error"
	Text      string    `json:"text,omitempty"`
	Role      string    `json:"role,omitempty"`
	Mode      string    `json:"mode,omitempty"`
	Topic     Topic     `json:"topic,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
	Messages  []Message `json:"messages,omitempty"`
}

// NewHandler creates a chat handler.
func NewHandler(responder *Responder, intake LeadSubmitter, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		responder: responder,
		intake:    intake,
		logger:    logger,
		sessions:  make(map[string]*websocket.Conn),
	}
}

// HandleStartSession handles POST /api/chat/sessions
func (h *Handler) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	id, history, err := h.responder.StartSession(r.Context())
	if err != nil {
		h.logger.Error("chat: failed to start session", "error", err)
		http.Error(w, "failed to start session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"session_id": id, "messages": history})
}

// HandleMessage handles POST /api/chat/message
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.writeReplyError(w, ErrEmptyMessage)
		return
	}
	sessionID, ok := h.ensureSession(w, r, req.SessionID)
	if !ok {
		return
	}

	reply, err := h.responder.Reply(r.Context(), sessionID, req.Text)
	if err != nil {
		h.writeReplyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "reply": reply})
}

// HandleQuickAction handles POST /api/chat/quick-action
func (h *Handler) HandleQuickAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Value     string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	sessionID, ok := h.ensureSession(w, r, req.SessionID)
	if !ok {
		return
	}

	utterance, reply, err := h.responder.QuickAction(r.Context(), sessionID, req.Value)
	if err != nil {
		h.writeReplyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"utterance":  utterance,
		"reply":      reply,
	})
}

// HandleQuickActions handles GET /api/chat/quick-actions
func (h *Handler) HandleQuickActions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"actions": QuickActions()})
}

// HandleHistory returns chat history for a session.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	history, err := h.responder.History(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("chat: failed to load history", "error", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": history})
}

// ContactRequest is the widget's quick contact form.
type ContactRequest struct {
	SessionID   string `json:"session_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Service     string `json:"service"`
	Description string `json:"description"`
	Urgency     string `json:"urgency"`
}

// HandleLead handles POST /api/chat/lead, converting the chat contact form
// into a lead and confirming it in the transcript.
func (h *Handler) HandleLead(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	form := leads.NewForm()
	form.Name = req.Name
	form.Email = req.Email
	form.Phone = req.Phone
	form.ServiceType = req.Service
	form.Description = req.Description
	if req.Urgency != "" {
		form.Urgency = req.Urgency
	}

	outcome, err := h.intake.SubmitFrom(r.Context(), &form, LeadSource)
	if err != nil {
		var verr *leads.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"errors": verr.Fields})
			return
		}
		resp := map[string]any{}
		if outcome != nil {
			resp["notification"] = outcome.Notification
		}
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}

	resp := map[string]any{
		"lead":         outcome.Lead,
		"notification": outcome.Notification,
	}
	if req.SessionID != "" {
		text := ConfirmationText(outcome.Lead.ServiceNeeded)
		msg, err := h.responder.AppendAssistant(r.Context(), req.SessionID, text)
		if err != nil {
			h.logger.Warn("chat: failed to append confirmation", "session_id", req.SessionID, "error", err)
		} else {
			resp["message"] = msg
			h.SendToSession(req.SessionID, OutboundMessage{
				Type:      "message",
				Role:      RoleAssistant,
				Text:      msg.Text,
				Timestamp: msg.Timestamp.Format(time.RFC3339),
			})
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ConfirmationText is the bot message appended after a chat lead is captured.
func ConfirmationText(service string) string {
	return fmt.Sprintf("🎯 Perfect! I've received your %s request and forwarded it to our top contractors in your area. Expect calls within 30 minutes with competitive quotes!", service)
}

// HandleWebSocket upgrades to WebSocket and handles real-time messaging.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	ctx := r.Context()
	sessionID := r.URL.Query().Get("session")

	var history []Message
	if sessionID != "" {
		loaded, err := h.responder.History(ctx, sessionID)
		if err != nil {
			h.logger.Warn("chat: failed to load history", "session_id", sessionID, "error", err)
		}
		history = loaded
	}
	if len(history) == 0 {
		id, seeded, err := h.responder.StartSession(ctx)
		if err != nil {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "failed to start session"})
			return
		}
		sessionID, history = id, seeded
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})
	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: history})

	h.mu.Lock()
	h.sessions[sessionID] = conn
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.sessions[sessionID] == conn {
			delete(h.sessions, sessionID)
		}
		h.mu.Unlock()
	}()

	h.logger.Info("chat: connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("chat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		var (
			reply Reply
			err   error
		)
		switch msg.Type {
		case "ping":
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		case "message":
			if strings.TrimSpace(msg.Text) == "" {
				continue
			}
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "typing"})
			reply, err = h.responder.Reply(ctx, sessionID, msg.Text)
		case "quick_action":
			var utterance string
			utterance, reply, err = h.responder.QuickAction(ctx, sessionID, msg.Value)
			if err == nil {
				_ = websocket.JSON.Send(conn, OutboundMessage{Type: "message", Role: RoleUser, Text: utterance})
			}
		default:
			continue
		}

		if err != nil {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: err.Error()})
			continue
		}
		_ = websocket.JSON.Send(conn, OutboundMessage{
			Type:      "message",
			Role:      RoleAssistant,
			Text:      reply.Text,
			Mode:      reply.Mode,
			Topic:     reply.Topic,
			Timestamp: reply.Timestamp.Format(time.RFC3339),
		})
	}
}

// SendToSession sends a message to an active WebSocket session.
func (h *Handler) SendToSession(sessionID string, msg OutboundMessage) {
	h.mu.RLock()
	conn, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	_ = websocket.JSON.Send(conn, msg)
}

// ensureSession returns sessionID when the server issued it and it has not
// expired. Anything else gets a fresh session, which the response carries.
func (h *Handler) ensureSession(w http.ResponseWriter, r *http.Request, sessionID string) (string, bool) {
	if sessionID != "" {
		known, err := h.responder.Known(r.Context(), sessionID)
		if err != nil {
			h.logger.Warn("chat: session lookup failed", "session_id", sessionID, "error", err)
		}
		if known {
			return sessionID, true
		}
	}
	id, _, err := h.responder.StartSession(r.Context())
	if err != nil {
		h.logger.Error("chat: failed to start session", "error", err)
		http.Error(w, "failed to start session", http.StatusInternalServerError)
		return "", false
	}
	return id, true
}

func (h *Handler) writeReplyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrUnknownQuickAction):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("chat: reply failed", "error", err)
		http.Error(w, "failed to reply", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
