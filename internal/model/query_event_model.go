package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type QueryEvent struct {
	Id                   uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId        uuid.UUID      `gorm:"type:uuid;not null;index"`
	UserId               uuid.UUID      `gorm:"type:uuid;not null;index"`
	Query                string         `gorm:"type:text;not null"`
	SelectedFlow         string         `gorm:"type:varchar(32)"`
	RetrievedDocumentIds datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt            time.Time      `gorm:"autoCreateTime"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime"`
}

func (QueryEvent) TableName() string {
	return "query_events"
}
