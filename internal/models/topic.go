package models

import "time"

// Role of a chat message author.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TopicModel is a named conversation thread in the chat sidebar.
// Topics use auto-increment keys to match the numeric identifiers the
// client-side store exposes.
type TopicModel struct {
	ID              uint       `json:"id"                gorm:"primaryKey"`
	UserID          string     `json:"-"                 gorm:"index;not null"`
	Name            string     `json:"name"              gorm:"not null"`
	LastMessageDate *time.Time `json:"last_message_date" gorm:"index"`
	CreatedAt       time.Time  `json:"created"`
	UpdatedAt       time.Time  `json:"modified"`
}

func (TopicModel) TableName() string { return "topics" }

// ChatMessage is one entry of a conversation. Branches holds prior
// versions of an edited message, appended on each edit and never removed.
type ChatMessage struct {
	Content   string        `json:"content"`
	Role      string        `json:"role"`
	AudioURL  string        `json:"audio_url,omitempty"`
	Finished  bool          `json:"finished,omitempty"`
	Branches  []ChatMessage `json:"branches,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ChatModel holds the message list for one topic (1:1). Deleting the
// topic deletes the chat.
type ChatModel struct {
	ID        uint          `json:"id"       gorm:"primaryKey"`
	TopicID   uint          `json:"topic_id" gorm:"index;not null"`
	Messages  []ChatMessage `json:"messages" gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time     `json:"created"`
	UpdatedAt time.Time     `json:"modified"`
}

func (ChatModel) TableName() string { return "chats" }
