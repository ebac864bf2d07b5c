package chat

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"grandpa/infrastructure"
	"grandpa/internal/database"
)

var errConversationExists = errors.New("conversation already exists")

type Repository interface {
	IsMember(ctx context.Context, conversationID, userID uint) (bool, error)
	UserExists(ctx context.Context, id uint) (bool, error)

	// FindDirectConversation returns the conversation whose members are
	// exactly a and b, or ErrNotFound.
	FindDirectConversation(ctx context.Context, a, b uint) (*database.Conversation, error)
	// CreateDirectConversation creates a conversation and both memberships
	// atomically. It returns errConversationExists when another writer
	// created the pair first.
	CreateDirectConversation(ctx context.Context, a, b uint) (*database.Conversation, error)
	GetConversation(ctx context.Context, id uint) (*database.Conversation, error)
	ListConversations(ctx context.Context, userID uint) ([]database.Conversation, map[uint]*database.Message, error)

	GetAttachment(ctx context.Context, id uint) (*database.Attachment, error)
	CreateMessage(ctx context.Context, message *database.Message) error
	GetMessage(ctx context.Context, id uint) (*database.Message, error)
	ListMessages(ctx context.Context, conversationID uint) ([]database.Message, error)
}

type repository struct {
	db *database.Database
}

func NewRepository(db *database.Database) Repository {
	return &repository{db: db}
}

func pairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

func (r *repository) IsMember(ctx context.Context, conversationID, userID uint) (bool, error) {
	var count int64
	err := infrastructure.TimeOperation(ctx, "chat.IsMember", func() error {
		return r.db.WithContext(ctx).Model(&database.ConversationMember{}).
			Where("conversation_id = ? AND user_id = ?", conversationID, userID).
			Count(&count).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

func (r *repository) UserExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&database.User{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return count > 0, nil
}

func (r *repository) FindDirectConversation(ctx context.Context, a, b uint) (*database.Conversation, error) {
	var ids []uint
	err := infrastructure.TimeOperation(ctx, "chat.FindDirectConversation", func() error {
		return r.db.WithContext(ctx).Model(&database.ConversationMember{}).
			Group("conversation_id").
			Having("COUNT(*) = 2 AND SUM(CASE WHEN user_id IN ? THEN 1 ELSE 0 END) = 2", []uint{a, b}).
			Order("conversation_id").
			Limit(1).
			Pluck("conversation_id", &ids).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}
	if len(ids) == 0 {
		return nil, infrastructure.ErrNotFound
	}
	return r.GetConversation(ctx, ids[0])
}

func (r *repository) CreateDirectConversation(ctx context.Context, a, b uint) (*database.Conversation, error) {
	key := pairKey(a, b)
	conv := &database.Conversation{PairKey: &key}

	err := infrastructure.WithTransaction(ctx, r.db.DB, func(tx *gorm.DB) error {
		if err := tx.Omit("Members", "Messages").Create(conv).Error; err != nil {
			return err
		}
		members := []database.ConversationMember{
			{ConversationID: conv.ID, UserID: a},
			{ConversationID: conv.ID, UserID: b},
		}
		return tx.Omit("User").Create(&members).Error
	})
	if err != nil {
		if infrastructure.IsUniqueViolation(err) {
			return nil, errConversationExists
		}
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return r.GetConversation(ctx, conv.ID)
}

func (r *repository) GetConversation(ctx context.Context, id uint) (*database.Conversation, error) {
	var conv database.Conversation
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("user_id") }).
		Preload("Members.User").
		First(&conv, id).Error
	if err != nil {
		if infrastructure.IsNotFound(err) {
			return nil, infrastructure.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

// ListConversations returns the user's conversations together with the
// newest message of each, keyed by conversation id.
func (r *repository) ListConversations(ctx context.Context, userID uint) ([]database.Conversation, map[uint]*database.Message, error) {
	var convs []database.Conversation
	err := infrastructure.TimeOperation(ctx, "chat.ListConversations", func() error {
		member := r.db.Model(&database.ConversationMember{}).Select("conversation_id").Where("user_id = ?", userID)
		return r.db.WithContext(ctx).
			Where("id IN (?)", member).
			Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("user_id") }).
			Preload("Members.User").
			Order("id DESC").
			Find(&convs).Error
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	if len(convs) == 0 {
		return convs, map[uint]*database.Message{}, nil
	}

	ids := make([]uint, len(convs))
	for i, c := range convs {
		ids[i] = c.ID
	}
	newest := r.db.Model(&database.Message{}).Select("MAX(id)").Where("conversation_id IN ?", ids).Group("conversation_id")

	var messages []database.Message
	if err := r.db.WithContext(ctx).Where("id IN (?)", newest).Find(&messages).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load last messages: %w", err)
	}

	last := make(map[uint]*database.Message, len(messages))
	for i := range messages {
		last[messages[i].ConversationID] = &messages[i]
	}
	return convs, last, nil
}

func (r *repository) GetAttachment(ctx context.Context, id uint) (*database.Attachment, error) {
	var att database.Attachment
	if err := r.db.WithContext(ctx).First(&att, id).Error; err != nil {
		if infrastructure.IsNotFound(err) {
			return nil, infrastructure.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	return &att, nil
}

func (r *repository) CreateMessage(ctx context.Context, message *database.Message) error {
	return infrastructure.TimeOperation(ctx, "chat.CreateMessage", func() error {
		return r.db.WithContext(ctx).Omit("Sender", "Attachment").Create(message).Error
	})
}

func (r *repository) GetMessage(ctx context.Context, id uint) (*database.Message, error) {
	var m database.Message
	if err := r.db.WithContext(ctx).Preload("Attachment").First(&m, id).Error; err != nil {
		if infrastructure.IsNotFound(err) {
			return nil, infrastructure.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &m, nil
}

// ListMessages returns the conversation's messages oldest first.
func (r *repository) ListMessages(ctx context.Context, conversationID uint) ([]database.Message, error) {
	var messages []database.Message
	err := infrastructure.TimeOperation(ctx, "chat.ListMessages", func() error {
		return r.db.WithContext(ctx).
			Preload("Attachment").
			Where("conversation_id = ?", conversationID).
			Order("created_at, id").
			Find(&messages).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}
