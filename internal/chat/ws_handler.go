package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"grandpa/infrastructure"
	"grandpa/internal/auth"
	"grandpa/internal/messaging"
)

// WSHandler serves /ws/chat/{id}/. A socket moves from connecting to
// subscribed once the token and membership checks pass; every failure
// before the upgrade is answered with 403 and no socket is opened.
type WSHandler struct {
	service  *ChatService
	verifier auth.TokenVerifier
	hub      *messaging.Hub
	upgrader *websocket.Upgrader
}

func NewWSHandler(service *ChatService, verifier auth.TokenVerifier, hub *messaging.Hub) *WSHandler {
	return &WSHandler{
		service:  service,
		verifier: verifier,
		hub:      hub,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Mobile clients send no Origin; access is gated by the token.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	convID, err := infrastructure.PathID(r, "id")
	if err != nil {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	userID, err := h.verifier.VerifyAccessToken(r.URL.Query().Get("token"))
	if err != nil {
		slog.DebugContext(ctx, "websocket token rejected", "conversation_id", convID, "err", err)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	ok, err := h.service.IsMember(ctx, userID, convID)
	if err != nil {
		slog.ErrorContext(ctx, "websocket membership check failed", "conversation_id", convID, "err", err)
	}
	if err != nil || !ok {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	// Join before the handshake completes so that a client which sees the
	// upgrade succeed cannot miss a broadcast.
	group := GroupName(convID)
	conn := messaging.NewConnection(userID)
	h.hub.Join(group, conn)

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.Leave(group, conn)
		conn.Close(websocket.CloseNormalClosure, "")
		return
	}
	conn.Attach(ws)

	defer func() {
		h.hub.Leave(group, conn)
		conn.Close(websocket.CloseNormalClosure, "session closed")
	}()

	slog.InfoContext(ctx, "websocket subscribed", "conversation_id", convID, "user_id", userID, "connection", conn.ID())

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				slog.DebugContext(ctx, "websocket read ended", "connection", conn.ID(), "err", err)
			}
			return
		}
		h.handleFrame(ctx, conn, convID, data)
	}
}

func (h *WSHandler) handleFrame(ctx context.Context, conn *messaging.Connection, convID uint, data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return
	}
	if frame.Type != "send" {
		return
	}

	_, err := h.service.SendMessage(ctx, SendMessageInput{
		ConversationID: convID,
		SenderID:       conn.UserID,
		Kind:           frame.Kind,
		Text:           frame.Text,
		AttachmentID:   frame.AttachmentID,
	})
	if err != nil {
		h.replyError(ctx, conn, err)
	}
}

func (h *WSHandler) replyError(ctx context.Context, conn *messaging.Connection, err error) {
	var ve *infrastructure.ValidationError
	detail := "internal server error"
	switch {
	case errors.As(err, &ve):
		detail = ve.Error()
	case errors.Is(err, infrastructure.ErrForbidden):
		detail = "forbidden"
	default:
		slog.ErrorContext(ctx, "websocket send failed", "connection", conn.ID(), "err", err)
	}

	payload, mErr := json.Marshal(errorFrame{Type: "error", Detail: detail})
	if mErr != nil {
		return
	}
	_ = conn.Send(payload)
}

func SetupWSRoutes(r *mux.Router, h *WSHandler) {
	r.Handle("/ws/chat/{id:[0-9]+}/", h).Methods(http.MethodGet)
}
