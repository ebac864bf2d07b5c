package chat

import (
	"fmt"
	"time"

	"grandpa/internal/database"
)

const (
	KindText  = "text"
	KindImage = "image"
	KindAI    = "ai"
)

func validKind(kind string) bool {
	switch kind {
	case KindText, KindImage, KindAI:
		return true
	}
	return false
}

// GroupName is the fan-out group of a conversation's live connections.
func GroupName(conversationID uint) string {
	return fmt.Sprintf("conv_%d", conversationID)
}

type SendMessageInput struct {
	ConversationID uint
	SenderID       uint
	Kind           string
	Text           string
	AttachmentID   *uint
}

// MessagePayload is the wire form of a stored message, shared by the REST
// responses and the socket frames.
type MessagePayload struct {
	ID             uint    `json:"id"`
	ConversationID uint    `json:"conversation_id"`
	SenderID       uint    `json:"sender_id"`
	Kind           string  `json:"kind"`
	Text           string  `json:"text"`
	AttachmentURL  *string `json:"attachment_url"`
	CreatedAt      string  `json:"created_at"`
}

func newMessagePayload(m *database.Message) *MessagePayload {
	p := &MessagePayload{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Kind:           m.Kind,
		Text:           m.Text,
		CreatedAt:      m.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if m.Attachment != nil {
		url := m.Attachment.URL
		p.AttachmentURL = &url
	}
	return p
}

type messageFrame struct {
	Type    string          `json:"type"`
	Message *MessagePayload `json:"message"`
}

type errorFrame struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

type inboundFrame struct {
	Type         string `json:"type"`
	Kind         string `json:"kind"`
	Text         string `json:"text"`
	AttachmentID *uint  `json:"attachment_id"`
}

type Member struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type LastMessage struct {
	SenderID  uint   `json:"sender_id"`
	Kind      string `json:"kind"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

type Conversation struct {
	ID          uint         `json:"id"`
	Members     []Member     `json:"members"`
	LastMessage *LastMessage `json:"last_message"`
	CreatedAt   string       `json:"created_at"`
}

func newConversation(c *database.Conversation, last *database.Message) *Conversation {
	conv := &Conversation{
		ID:        c.ID,
		Members:   make([]Member, 0, len(c.Members)),
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	for _, m := range c.Members {
		conv.Members = append(conv.Members, Member{ID: m.UserID, Username: m.User.Username})
	}
	if last != nil {
		conv.LastMessage = &LastMessage{
			SenderID:  last.SenderID,
			Kind:      last.Kind,
			Text:      last.Text,
			CreatedAt: last.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	}
	return conv
}
