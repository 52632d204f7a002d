package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Title     string     `json:"title,omitempty"`
	PersonaId *uuid.UUID `json:"persona_id,omitempty"`
}

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	PersonaId *uuid.UUID `json:"persona_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type GetChatHistoryResponse struct {
	Id              uuid.UUID       `json:"id"`
	ParentMessageId *uuid.UUID      `json:"parent_message_id,omitempty"`
	MessageType     string          `json:"message_type"`
	Message         string          `json:"message"`
	RetrievalDocs   json.RawMessage `json:"retrieval_docs,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type SendMessageRequest struct {
	Message         string     `json:"message" validate:"required"`
	ParentMessageId *uuid.UUID `json:"parent_message_id,omitempty"`
	// SearchDocIds forces retrieval over the given documents instead of
	// running a search.
	SearchDocIds []string `json:"search_doc_ids,omitempty"`
}

type CreatePersonaRequest struct {
	Name             string          `json:"name" validate:"required"`
	SystemText       string          `json:"system_text,omitempty"`
	HintText         string          `json:"hint_text,omitempty"`
	RetrievalEnabled bool            `json:"retrieval_enabled"`
	NumChunks        int             `json:"num_chunks,omitempty" validate:"min=0"`
	DocumentSets     []string        `json:"document_sets,omitempty"`
	Tools            []ToolConfigDTO `json:"tools,omitempty"`
}

type ToolConfigDTO struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Endpoint    string `json:"endpoint" validate:"required,url"`
}

type PersonaResponse struct {
	Id               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	SystemText       string          `json:"system_text,omitempty"`
	HintText         string          `json:"hint_text,omitempty"`
	RetrievalEnabled bool            `json:"retrieval_enabled"`
	NumChunks        int             `json:"num_chunks"`
	DocumentSets     []string        `json:"document_sets,omitempty"`
	Tools            []ToolConfigDTO `json:"tools,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}
