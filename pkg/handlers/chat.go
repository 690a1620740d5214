package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/casepulse-ai/casepulse-engine/pkg/apperrors"
	"github.com/casepulse-ai/casepulse-engine/pkg/models"
)

// maxMessageBytes bounds the request body; questions are short by nature.
const maxMessageBytes = 16 << 10

// ChatRequest is the POST /chat payload.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Lang      string `json:"lang,omitempty"`
}

// Conversations is the slice of the chat service the handler needs.
type Conversations interface {
	HandleMessage(ctx context.Context, sessionID, message, lang string) (*models.ChatResponse, error)
	History(ctx context.Context, sessionID string, limit int) ([]*models.ChatTurn, error)
}

// ChatHandler handles the conversational endpoints.
type ChatHandler struct {
	chat   Conversations
	logger *zap.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chat Conversations, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

// RegisterRoutes registers the chat handler's routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/chat", h.Chat)
	mux.HandleFunc("/chat/history", h.History)
}

// Chat handles POST /chat requests: one user message in, one answered turn
// out.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req ChatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxMessageBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		badRequest(w, "session_id is required")
		return
	}

	resp, err := h.chat.HandleMessage(r.Context(), req.SessionID, req.Message, req.Lang)
	if err != nil {
		if errors.Is(err, apperrors.ErrEmptyQuestion) {
			badRequest(w, "message is required")
			return
		}
		h.logger.Error("Chat turn failed", zap.Error(err))
		internalError(w, "failed to handle message")
		return
	}

	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode chat response", zap.Error(err))
	}
}

// History handles GET /chat/history?session_id=...&limit=N requests.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		badRequest(w, "session_id is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	turns, err := h.chat.History(r.Context(), sessionID, limit)
	if err != nil {
		h.logger.Error("Failed to load chat history", zap.Error(err))
		internalError(w, "failed to load history")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"turns": turns}); err != nil {
		h.logger.Error("Failed to encode history response", zap.Error(err))
	}
}
