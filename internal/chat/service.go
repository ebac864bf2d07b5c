// Package chat implements one-to-one conversations between mutually
// following users: membership checks, idempotent conversation creation,
// message persistence and real-time delivery over websockets.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"grandpa/infrastructure"
	"grandpa/internal/database"
)

var (
	ErrSelfTarget = fmt.Errorf("%w: cannot start a conversation with yourself", infrastructure.ErrConflict)
	ErrNotMutual  = fmt.Errorf("%w: users must follow each other", infrastructure.ErrForbidden)
)

// FollowChecker answers whether two users follow each other.
type FollowChecker interface {
	IsMutual(ctx context.Context, a, b uint) (bool, error)
}

// Broadcaster fans a payload out to the live members of a group.
type Broadcaster interface {
	Broadcast(ctx context.Context, group string, payload []byte) int
}

type ChatService struct {
	repo        Repository
	follows     FollowChecker
	broadcaster Broadcaster
}

func NewChatService(repo Repository, follows FollowChecker, broadcaster Broadcaster) *ChatService {
	return &ChatService{
		repo:        repo,
		follows:     follows,
		broadcaster: broadcaster,
	}
}

// IsMember reports whether userID belongs to the conversation. A missing
// conversation is indistinguishable from a foreign one.
func (s *ChatService) IsMember(ctx context.Context, userID, conversationID uint) (bool, error) {
	if userID == 0 || conversationID == 0 {
		return false, nil
	}
	return s.repo.IsMember(ctx, conversationID, userID)
}

func (s *ChatService) authorize(ctx context.Context, userID, conversationID uint) error {
	ok, err := s.IsMember(ctx, userID, conversationID)
	if err != nil {
		return err
	}
	if !ok {
		return infrastructure.ErrForbidden
	}
	return nil
}

// CreateConversation returns the conversation between initiator and target,
// creating it with both memberships on first use. The bool result reports
// whether it was created by this call.
func (s *ChatService) CreateConversation(ctx context.Context, initiatorID, targetID uint) (*Conversation, bool, error) {
	if targetID == 0 {
		return nil, false, infrastructure.NewValidationError("participant_user_id", "This field is required.")
	}
	if initiatorID == targetID {
		return nil, false, ErrSelfTarget
	}

	exists, err := s.repo.UserExists(ctx, targetID)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, infrastructure.ErrUserNotFound
	}

	mutual, err := s.follows.IsMutual(ctx, initiatorID, targetID)
	if err != nil {
		return nil, false, err
	}
	if !mutual {
		return nil, false, ErrNotMutual
	}

	conv, err := s.repo.FindDirectConversation(ctx, initiatorID, targetID)
	if err == nil {
		return newConversation(conv, nil), false, nil
	}
	if !errors.Is(err, infrastructure.ErrNotFound) {
		return nil, false, err
	}

	conv, err = s.repo.CreateDirectConversation(ctx, initiatorID, targetID)
	if errors.Is(err, errConversationExists) {
		conv, err = s.repo.FindDirectConversation(ctx, initiatorID, targetID)
		if err != nil {
			return nil, false, err
		}
		return newConversation(conv, nil), false, nil
	}
	if err != nil {
		return nil, false, err
	}

	slog.InfoContext(ctx, "conversation created", "conversation_id", conv.ID, "initiator", initiatorID, "target", targetID)
	return newConversation(conv, nil), true, nil
}

func (s *ChatService) ListConversations(ctx context.Context, userID uint) ([]*Conversation, error) {
	convs, last, err := s.repo.ListConversations(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*Conversation, len(convs))
	for i := range convs {
		out[i] = newConversation(&convs[i], last[convs[i].ID])
	}
	return out, nil
}

func (s *ChatService) ListMessages(ctx context.Context, userID, conversationID uint) ([]*MessagePayload, error) {
	if err := s.authorize(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	messages, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	out := make([]*MessagePayload, len(messages))
	for i := range messages {
		out[i] = newMessagePayload(&messages[i])
	}
	return out, nil
}

// SendMessage stores a message and then broadcasts it to the
// conversation's group. Nothing is broadcast unless the write succeeded.
func (s *ChatService) SendMessage(ctx context.Context, input SendMessageInput) (*MessagePayload, error) {
	if err := s.authorize(ctx, input.SenderID, input.ConversationID); err != nil {
		return nil, err
	}

	kind := strings.TrimSpace(input.Kind)
	if kind == "" {
		kind = KindText
	}
	if !validKind(kind) {
		return nil, infrastructure.NewValidationError("kind", fmt.Sprintf("%q is not a valid choice.", input.Kind))
	}

	if input.AttachmentID != nil {
		att, err := s.repo.GetAttachment(ctx, *input.AttachmentID)
		if errors.Is(err, infrastructure.ErrNotFound) || (err == nil && att.UploaderID != nil && *att.UploaderID != input.SenderID) {
			return nil, infrastructure.NewValidationError("attachment_id", "Invalid pk - object does not exist.")
		}
		if err != nil {
			return nil, err
		}
	}

	msg := &database.Message{
		ConversationID: input.ConversationID,
		SenderID:       input.SenderID,
		Kind:           kind,
		Text:           input.Text,
		AttachmentID:   input.AttachmentID,
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		if infrastructure.IsUniqueViolation(err) {
			return nil, infrastructure.NewValidationError("attachment_id", "Attachment is already used by another message.")
		}
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	stored, err := s.repo.GetMessage(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	payload := newMessagePayload(stored)

	frame, err := json.Marshal(messageFrame{Type: "message", Message: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to encode message frame: %w", err)
	}
	n := s.broadcaster.Broadcast(ctx, GroupName(input.ConversationID), frame)
	slog.DebugContext(ctx, "message sent", "conversation_id", input.ConversationID, "message_id", msg.ID, "delivered", n)

	return payload, nil
}
