package entity

import (
	"time"

	"github.com/google/uuid"
)

// QueryEvent is the audit record of one chat turn: the raw query, how it was
// handled, and which documents retrieval surfaced.
type QueryEvent struct {
	Id                   uuid.UUID
	ChatSessionId        uuid.UUID
	UserId               uuid.UUID
	Query                string
	SelectedFlow         string
	RetrievedDocumentIds []string
	CreatedAt            time.Time
	UpdatedAt            *time.Time
}
