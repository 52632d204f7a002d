package dto

import "github.com/google/uuid"

// TurnCompletedMessage is the payload published on the internal bus after an
// assistant answer is persisted.
type TurnCompletedMessage struct {
	ChatSessionId uuid.UUID `json:"chat_session_id"`
	UserId        uuid.UUID `json:"user_id"`
	MessageId     uuid.UUID `json:"message_id"`
	QueryEventId  uuid.UUID `json:"query_event_id"`
}
