package mapper

import (
	"encoding/json"
	"time"

	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/model"

	"gorm.io/datatypes"
)

type QueryEventMapper struct{}

func NewQueryEventMapper() *QueryEventMapper {
	return &QueryEventMapper{}
}

func (m *QueryEventMapper) ToEntity(e *model.QueryEvent) *entity.QueryEvent {
	if e == nil {
		return nil
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	var retrievedIds []string
	if len(e.RetrievedDocumentIds) > 0 {
		_ = json.Unmarshal(e.RetrievedDocumentIds, &retrievedIds)
	}

	return &entity.QueryEvent{
		Id:                   e.Id,
		ChatSessionId:        e.ChatSessionId,
		UserId:               e.UserId,
		Query:                e.Query,
		SelectedFlow:         e.SelectedFlow,
		RetrievedDocumentIds: retrievedIds,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            updatedAt,
	}
}

func (m *QueryEventMapper) ToModel(e *entity.QueryEvent) *model.QueryEvent {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	var retrievedIds datatypes.JSON
	if len(e.RetrievedDocumentIds) > 0 {
		raw, _ := json.Marshal(e.RetrievedDocumentIds)
		retrievedIds = datatypes.JSON(raw)
	}

	return &model.QueryEvent{
		Id:                   e.Id,
		ChatSessionId:        e.ChatSessionId,
		UserId:               e.UserId,
		Query:                e.Query,
		SelectedFlow:         e.SelectedFlow,
		RetrievedDocumentIds: retrievedIds,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            updatedAt,
	}
}
