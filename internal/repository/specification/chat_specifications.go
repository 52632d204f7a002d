package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByChatSessionID struct {
	ChatSessionID uuid.UUID
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}

type ByUserID struct {
	UserID uuid.UUID
}

func (s ByUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// RootOfSession matches the system message that starts a session's
// message chain.
type RootOfSession struct {
	ChatSessionID uuid.UUID
}

func (s RootOfSession) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ? AND parent_message_id IS NULL", s.ChatSessionID)
}

type ByName struct {
	Name string
}

func (s ByName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("name = ?", s.Name)
}
