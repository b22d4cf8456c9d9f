package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

type ChatMessage struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"index;not null" json:"user_id"`
	Role      string         `gorm:"size:16;not null" json:"role"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	Context   datatypes.JSON `json:"context,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`

	User *User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
