package search

import (
	"context"
	"time"
)

// MetadataIgnoreForQA marks a chunk that may be shown to the user but must
// never be folded into a model prompt.
const MetadataIgnoreForQA = "ignore_for_qa"

// InferenceChunk is one ranked unit of retrieved document text. Rank order is
// significant: citation number n refers to the n-th chunk.
type InferenceChunk struct {
	DocumentId         string            `json:"document_id"`
	ChunkId            int               `json:"chunk_id"`
	SemanticIdentifier string            `json:"semantic_identifier"`
	Content            string            `json:"content"`
	Blurb              string            `json:"blurb"`
	SourceType         string            `json:"source_type"`
	SourceLink         string            `json:"source_link"`
	Score              float64           `json:"score"`
	UpdatedAt          *time.Time        `json:"updated_at,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// IgnoredForQA reports whether the chunk carries the ignore-for-qa marker.
func (c InferenceChunk) IgnoredForQA() bool {
	if c.Metadata == nil {
		return false
	}
	return c.Metadata[MetadataIgnoreForQA] == "true"
}

// SearchDoc is the display form of a retrieved document, announced to the
// caller before any model call runs.
type SearchDoc struct {
	DocumentId         string     `json:"document_id"`
	SemanticIdentifier string     `json:"semantic_identifier"`
	Link               string     `json:"link"`
	Blurb              string     `json:"blurb"`
	SourceType         string     `json:"source_type"`
	Score              float64    `json:"score"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

// ChunkToSearchDoc projects a chunk into its display form.
func ChunkToSearchDoc(c InferenceChunk) SearchDoc {
	return SearchDoc{
		DocumentId:         c.DocumentId,
		SemanticIdentifier: c.SemanticIdentifier,
		Link:               c.SourceLink,
		Blurb:              c.Blurb,
		SourceType:         c.SourceType,
		Score:              c.Score,
		UpdatedAt:          c.UpdatedAt,
	}
}

// ChunksToSearchDocs projects a ranked chunk list, keeping rank order.
func ChunksToSearchDocs(chunks []InferenceChunk) []SearchDoc {
	docs := make([]SearchDoc, len(chunks))
	for i, c := range chunks {
		docs[i] = ChunkToSearchDoc(c)
	}
	return docs
}

// IndexFilters restricts a search pass. A nil slice means "no restriction"
// for that dimension; the access control list is always enforced.
type IndexFilters struct {
	SourceTypes       []string   `json:"source_types,omitempty"`
	DocumentSets      []string   `json:"document_sets,omitempty"`
	TimeCutoff        *time.Time `json:"time_cutoff,omitempty"`
	AccessControlList []string   `json:"access_control_list"`
}

// SearchQuery is one retrieval request against the document index.
type SearchQuery struct {
	Query       string
	Filters     IndexFilters
	FavorRecent bool
	NumHits     int
}

// DocumentIndex is the retrieval engine contract. Implementations return
// chunks in descending rank order.
type DocumentIndex interface {
	Search(ctx context.Context, query SearchQuery) ([]InferenceChunk, error)
	LookupByDocumentIds(ctx context.Context, documentIds []string, filters IndexFilters) ([]InferenceChunk, error)
}
