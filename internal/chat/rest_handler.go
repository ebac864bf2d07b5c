package chat

import (
	"net/http"

	"github.com/gorilla/mux"

	"grandpa/infrastructure"
	"grandpa/internal/auth"
)

type JSONHandler struct {
	service *ChatService
}

func NewJSONHandler(service *ChatService) *JSONHandler {
	return &JSONHandler{service: service}
}

func (h *JSONHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserIDFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	convs, err := h.service.ListConversations(r.Context(), userID)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, convs)
}

func (h *JSONHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserIDFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	var req struct {
		ParticipantUserID uint `json:"participant_user_id"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	conv, created, err := h.service.CreateConversation(r.Context(), userID, req.ParticipantUserID)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	infrastructure.WriteJSON(w, status, conv)
}

func (h *JSONHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserIDFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	convID, err := infrastructure.PathID(r, "id")
	if err != nil {
		infrastructure.WriteError(w, r, infrastructure.ErrForbidden)
		return
	}

	messages, err := h.service.ListMessages(r.Context(), userID, convID)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, messages)
}

func (h *JSONHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserIDFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	convID, err := infrastructure.PathID(r, "id")
	if err != nil {
		infrastructure.WriteError(w, r, infrastructure.ErrForbidden)
		return
	}

	var req struct {
		Kind         string `json:"kind"`
		Text         string `json:"text"`
		AttachmentID *uint  `json:"attachment_id"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	msg, err := h.service.SendMessage(r.Context(), SendMessageInput{
		ConversationID: convID,
		SenderID:       userID,
		Kind:           req.Kind,
		Text:           req.Text,
		AttachmentID:   req.AttachmentID,
	})
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusCreated, msg)
}

func SetupJSONRoutes(r *mux.Router, h *JSONHandler) {
	r.HandleFunc("/conversations/", h.ListConversations).Methods(http.MethodGet)
	r.HandleFunc("/conversations/create/", h.CreateConversation).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id:[0-9]+}/messages/", h.ListMessages).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id:[0-9]+}/messages/", h.SendMessage).Methods(http.MethodPost)
}
