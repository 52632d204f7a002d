package mapper

import (
	"encoding/json"
	"time"

	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatSession{
		Id:        s.Id,
		UserId:    s.UserId,
		PersonaId: s.PersonaId,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: s.DeletedAt.Valid,
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ChatSession{
		Id:        s.Id,
		UserId:    s.UserId,
		PersonaId: s.PersonaId,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}
}

// Message Mappers

func (m *ChatMapper) ChatMessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}

	var updatedAt *time.Time
	if !msg.UpdatedAt.IsZero() {
		t := msg.UpdatedAt
		updatedAt = &t
	}

	var retrievalDocs json.RawMessage
	if len(msg.RetrievalDocs) > 0 {
		retrievalDocs = json.RawMessage(msg.RetrievalDocs)
	}

	return &entity.ChatMessage{
		Id:                   msg.Id,
		ChatSessionId:        msg.ChatSessionId,
		ParentMessageId:      msg.ParentMessageId,
		LatestChildMessageId: msg.LatestChildMessageId,
		MessageType:          msg.MessageType,
		Message:              msg.Message,
		TokenCount:           msg.TokenCount,
		RetrievalDocs:        retrievalDocs,
		CreatedAt:            msg.CreatedAt,
		UpdatedAt:            updatedAt,
	}
}

func (m *ChatMapper) ChatMessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}

	var updatedAt time.Time
	if msg.UpdatedAt != nil {
		updatedAt = *msg.UpdatedAt
	}

	var retrievalDocs datatypes.JSON
	if len(msg.RetrievalDocs) > 0 {
		retrievalDocs = datatypes.JSON(msg.RetrievalDocs)
	}

	return &model.ChatMessage{
		Id:                   msg.Id,
		ChatSessionId:        msg.ChatSessionId,
		ParentMessageId:      msg.ParentMessageId,
		LatestChildMessageId: msg.LatestChildMessageId,
		MessageType:          msg.MessageType,
		Message:              msg.Message,
		TokenCount:           msg.TokenCount,
		RetrievalDocs:        retrievalDocs,
		CreatedAt:            msg.CreatedAt,
		UpdatedAt:            updatedAt,
	}
}
