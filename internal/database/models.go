package database

import "time"

// Models lists every table owned by the service, in dependency order.
func Models() []any {
	return []any{
		&User{},
		&Follow{},
		&Profile{},
		&DayEntry{},
		&Attachment{},
		&Conversation{},
		&ConversationMember{},
		&Message{},
	}
}

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:150;uniqueIndex;not null"`
	Email        string `gorm:"size:254"`
	FirstName    string `gorm:"size:150"`
	LastName     string `gorm:"size:150"`
	PasswordHash []byte `gorm:"not null"`
	CreatedAt    time.Time
}

// Follow is a directed edge: FollowerID follows FolloweeID.
type Follow struct {
	ID         uint `gorm:"primaryKey"`
	FollowerID uint `gorm:"not null;uniqueIndex:idx_follow_pair;check:chk_follow_not_self,follower_id <> followee_id"`
	FolloweeID uint `gorm:"not null;uniqueIndex:idx_follow_pair;index"`
	CreatedAt  time.Time

	Follower User `gorm:"constraint:OnDelete:CASCADE"`
	Followee User `gorm:"constraint:OnDelete:CASCADE"`
}

type Profile struct {
	ID        uint   `gorm:"primaryKey"`
	OwnerID   uint   `gorm:"not null;uniqueIndex:idx_profile_owner_name"`
	Name      string `gorm:"size:40;not null;uniqueIndex:idx_profile_owner_name"`
	AvatarURL string
	Pin       string `gorm:"size:4"`
	IsDefault bool   `gorm:"not null;default:false"`
	CreatedAt time.Time

	Owner User `gorm:"constraint:OnDelete:CASCADE"`
}

// DayEntry is one profile's journal page for a calendar day. Day holds the
// ISO date (YYYY-MM-DD) so that lexical order is chronological.
type DayEntry struct {
	ID          uint   `gorm:"primaryKey"`
	ProfileID   uint   `gorm:"not null;uniqueIndex:idx_entry_profile_day"`
	Day         string `gorm:"size:10;not null;uniqueIndex:idx_entry_profile_day"`
	Note        string
	SummaryText string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Profile     Profile      `gorm:"constraint:OnDelete:CASCADE"`
	Attachments []Attachment `gorm:"constraint:OnDelete:CASCADE"`
}

// Attachment references a stored file. The bytes live with the file-storage
// backend; only the key and its public URL are kept here.
type Attachment struct {
	ID             uint   `gorm:"primaryKey"`
	StorageKey     string `gorm:"not null"`
	URL            string `gorm:"not null"`
	UploaderID     *uint  `gorm:"index"`
	OwnerProfileID *uint  `gorm:"index"`
	DayEntryID     *uint  `gorm:"index"`
	CreatedAt      time.Time
}

// Conversation is a chat channel. PairKey is set for two-member
// conversations and is unique, so one pair of users shares one conversation.
type Conversation struct {
	ID        uint    `gorm:"primaryKey"`
	PairKey   *string `gorm:"size:64;uniqueIndex"`
	CreatedAt time.Time

	Members  []ConversationMember `gorm:"constraint:OnDelete:CASCADE"`
	Messages []Message            `gorm:"constraint:OnDelete:CASCADE"`
}

type ConversationMember struct {
	ID             uint `gorm:"primaryKey"`
	ConversationID uint `gorm:"not null;uniqueIndex:idx_member_pair"`
	UserID         uint `gorm:"not null;uniqueIndex:idx_member_pair;index"`
	CreatedAt      time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}

type Message struct {
	ID             uint      `gorm:"primaryKey"`
	ConversationID uint      `gorm:"not null;index:idx_message_order,priority:1"`
	SenderID       uint      `gorm:"not null"`
	Kind           string    `gorm:"size:16;not null;default:text"`
	Text           string    `gorm:"not null;default:''"`
	AttachmentID   *uint     `gorm:"uniqueIndex"`
	CreatedAt      time.Time `gorm:"index:idx_message_order,priority:2"`

	Sender     User        `gorm:"constraint:OnDelete:CASCADE"`
	Attachment *Attachment `gorm:"constraint:OnDelete:SET NULL"`
}
