package search

import (
	"context"
	"fmt"
	"strings"

	"ai-docchat-be/pkg/llm"
)

// ChunkStream is the two-stage retrieval result. Chunks must be consumed
// before Selection; each method may be called at most once.
type ChunkStream interface {
	// Chunks returns the ranked chunk list for immediate display.
	Chunks(ctx context.Context) ([]InferenceChunk, error)
	// Selection returns the indices of chunks the relevance filter kept.
	// An empty result means filtering was skipped, not that nothing matched.
	Selection(ctx context.Context) ([]int, error)
}

// RelevanceFilter decides which of the retrieved chunks actually help answer
// the query.
type RelevanceFilter interface {
	FilterChunks(ctx context.Context, query string, chunks []InferenceChunk) ([]int, error)
}

const chunkUsefulPrompt = `Determine if the following section is USEFUL for answering the user query.
It is NOT enough for the section to be related to the query, it must contain information that helps answer it.
Respond with exactly "yes" or "no".

Section:
%s

User query:
%s

Useful:`

// LLMRelevanceFilter asks the chat model, per chunk, whether the chunk is
// useful for the query.
type LLMRelevanceFilter struct {
	Provider llm.Provider
}

func NewLLMRelevanceFilter(provider llm.Provider) *LLMRelevanceFilter {
	return &LLMRelevanceFilter{Provider: provider}
}

func (f *LLMRelevanceFilter) FilterChunks(ctx context.Context, query string, chunks []InferenceChunk) ([]int, error) {
	kept := make([]int, 0, len(chunks))
	for i, chunk := range chunks {
		prompt := []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf(chunkUsefulPrompt, chunk.Content, query)},
		}
		answer, err := f.Provider.Invoke(ctx, prompt, llm.WithTemperature(0))
		if err != nil {
			return nil, fmt.Errorf("relevance check for chunk %d: %w", i, err)
		}
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "yes") {
			kept = append(kept, i)
		}
	}
	return kept, nil
}

// IndexChunkStream searches the document index lazily on first consumption
// and runs the relevance filter over the results. A nil filter skips
// relevance filtering.
type IndexChunkStream struct {
	index  DocumentIndex
	filter RelevanceFilter
	query  SearchQuery

	fetched []InferenceChunk
}

func NewIndexChunkStream(index DocumentIndex, filter RelevanceFilter, query SearchQuery) *IndexChunkStream {
	return &IndexChunkStream{index: index, filter: filter, query: query}
}

func (s *IndexChunkStream) Chunks(ctx context.Context) ([]InferenceChunk, error) {
	chunks, err := s.index.Search(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}
	s.fetched = chunks
	return chunks, nil
}

func (s *IndexChunkStream) Selection(ctx context.Context) ([]int, error) {
	if s.filter == nil || len(s.fetched) == 0 {
		return nil, nil
	}
	return s.filter.FilterChunks(ctx, s.query.Query, s.fetched)
}

// IdLookupChunkStream resolves explicitly referenced documents. Every chunk
// counts as relevant because the user asked for it by id.
type IdLookupChunkStream struct {
	index       DocumentIndex
	documentIds []string
	filters     IndexFilters

	fetched []InferenceChunk
}

func NewIdLookupChunkStream(index DocumentIndex, documentIds []string, filters IndexFilters) *IdLookupChunkStream {
	return &IdLookupChunkStream{index: index, documentIds: documentIds, filters: filters}
}

func (s *IdLookupChunkStream) Chunks(ctx context.Context) ([]InferenceChunk, error) {
	chunks, err := s.index.LookupByDocumentIds(ctx, s.documentIds, s.filters)
	if err != nil {
		return nil, fmt.Errorf("document lookup: %w", err)
	}
	s.fetched = chunks
	return chunks, nil
}

func (s *IdLookupChunkStream) Selection(ctx context.Context) ([]int, error) {
	selection := make([]int, len(s.fetched))
	for i := range s.fetched {
		selection[i] = i
	}
	return selection, nil
}

// EmptyChunkStream is used when the turn performs no retrieval at all.
type EmptyChunkStream struct{}

func (EmptyChunkStream) Chunks(ctx context.Context) ([]InferenceChunk, error) { return nil, nil }

func (EmptyChunkStream) Selection(ctx context.Context) ([]int, error) { return nil, nil }
