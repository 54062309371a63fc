package http

import (
	"net/http"

	"go.uber.org/zap"

	"loan-dashboard/domain"
	"loan-dashboard/service"
)

type ChatHandler struct {
	chat            *service.ChatService
	recommendations *service.RecommendationService
	store           *service.LoanStore
	logger          *zap.Logger
}

func NewChatHandler(
	chat *service.ChatService,
	recommendations *service.RecommendationService,
	store *service.LoanStore,
	logger *zap.Logger,
) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{chat: chat, recommendations: recommendations, store: store, logger: logger}
}

type chatRequest struct {
	Messages []domain.Message `json:"messages"`
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	reply, err := h.chat.Respond(r.Context(), req.Messages)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *ChatHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.recommendations.Recommend(r.Context(), h.store.List()))
}
