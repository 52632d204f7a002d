package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatMessage struct {
	Id                   uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId        uuid.UUID      `gorm:"type:uuid;not null;index"`
	ParentMessageId      *uuid.UUID     `gorm:"type:uuid;index"`
	LatestChildMessageId *uuid.UUID     `gorm:"type:uuid"`
	MessageType          string         `gorm:"type:varchar(16);not null"`
	Message              string         `gorm:"type:text;not null"`
	TokenCount           int            `gorm:"not null;default:0"`
	RetrievalDocs        datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt            time.Time      `gorm:"autoCreateTime"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
