package packet

import (
	"time"

	"ai-docchat-be/pkg/rag/search"
)

// Packet is one discrete unit of a streamed turn response. Each packet is
// written to the transport as a single JSON object on its own line.
type Packet interface {
	isPacket()
}

// QADocsResponse announces the retrieved documents and the predicted query
// handling before any model call runs.
type QADocsResponse struct {
	TopDocuments    []search.SearchDoc `json:"top_documents"`
	PredictedFlow   string             `json:"predicted_flow"`
	PredictedSearch string             `json:"predicted_search"`
	TimeCutoff      *time.Time         `json:"time_cutoff"`
	FavorRecent     bool               `json:"favor_recent"`
}

// LLMRelevanceFilterResponse lists the chunk indices the relevance filter
// kept. Empty when filtering was skipped.
type LLMRelevanceFilterResponse struct {
	RelevantChunkIndices []int `json:"relevant_chunk_indices"`
}

// AnswerPiece is one fragment of the streamed answer text.
type AnswerPiece struct {
	AnswerPiece string `json:"answer_piece"`
}

// RetrievalDocs announces documents retrieved mid-generation by the
// contextual and tool-enabled strategies.
type RetrievalDocs struct {
	TopDocuments []search.SearchDoc `json:"top_documents"`
}

// StreamingError terminates a turn that failed after streaming began.
type StreamingError struct {
	Error string `json:"error"`
}

func (QADocsResponse) isPacket()             {}
func (LLMRelevanceFilterResponse) isPacket() {}
func (AnswerPiece) isPacket()                {}
func (RetrievalDocs) isPacket()              {}
func (StreamingError) isPacket()             {}
