package prompt

import (
	"fmt"
	"strings"

	"ai-docchat-be/pkg/rag/search"
)

// FormatChunksForPrompt renders ranked chunks as numbered documents. The
// document number is the citation number the model is told to use.
func FormatChunksForPrompt(chunks []search.InferenceChunk) string {
	var b strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(fmt.Sprintf("DOCUMENT %d: %s\n%s", i+1, chunk.SemanticIdentifier, chunk.Content))
	}
	return b.String()
}

// ChunkLinks extracts the source links of ranked chunks, preserving rank
// order so that links[n-1] backs citation [n].
func ChunkLinks(chunks []search.InferenceChunk) []string {
	links := make([]string, len(chunks))
	for i, chunk := range chunks {
		links[i] = chunk.SourceLink
	}
	return links
}
