package constant

// Message roles persisted in the chat tree. The system root is a sentinel
// created lazily per session and never shown to users.
const (
	MessageTypeSystem    = "system"
	MessageTypeUser      = "user"
	MessageTypeAssistant = "assistant"
)

// Query handling flows recorded on query events.
const (
	QueryFlowSearch         = "search"
	QueryFlowQuestionAnswer = "question-answer"
)

// Event types published on the internal bus and bridged to NATS.
const (
	EventTurnCompleted = "CHAT_TURN_COMPLETED"
)

// DefaultNumChunks caps prompt context for personas that do not set an
// explicit chunk budget.
const DefaultNumChunks = 10
