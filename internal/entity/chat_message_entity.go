package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id                   uuid.UUID
	ChatSessionId        uuid.UUID
	ParentMessageId      *uuid.UUID
	LatestChildMessageId *uuid.UUID
	MessageType          string
	Message              string
	TokenCount           int
	RetrievalDocs        json.RawMessage
	CreatedAt            time.Time
	UpdatedAt            *time.Time
}

// Accessors satisfying the mainline-resolver node contract.

func (m *ChatMessage) GetId() uuid.UUID { return m.Id }

func (m *ChatMessage) GetParentId() *uuid.UUID { return m.ParentMessageId }

func (m *ChatMessage) GetLatestChildId() *uuid.UUID { return m.LatestChildMessageId }
