package search

import "ai-docchat-be/pkg/tokenizer"

// GetUsableChunks drops ignore-for-qa chunks and packs the remainder, in rank
// order, into the given token budget. A maxChunks of zero means no count cap.
func GetUsableChunks(chunks []InferenceChunk, maxChunks int, tokenBudget int, tok tokenizer.Tokenizer) []InferenceChunk {
	usable := make([]InferenceChunk, 0, len(chunks))
	total := 0
	for _, chunk := range chunks {
		if chunk.IgnoredForQA() {
			continue
		}
		if maxChunks > 0 && len(usable) >= maxChunks {
			break
		}
		cost := tok.CountTokens(chunk.Content)
		if total+cost > tokenBudget {
			break
		}
		total += cost
		usable = append(usable, chunk)
	}
	return usable
}

// ChunksForQA picks the chunk indices to fold into the model prompt. Chunks
// the relevance filter kept are preferred; the rest fill any remaining budget
// in rank order. A nil selection means filtering was skipped and every chunk
// competes equally. The returned indices are ascending.
func ChunksForQA(chunks []InferenceChunk, selection []int, maxChunks int, tokenBudget int, tok tokenizer.Tokenizer) []int {
	selected := make(map[int]bool, len(selection))
	for _, idx := range selection {
		if idx >= 0 && idx < len(chunks) {
			selected[idx] = true
		}
	}

	total := 0
	count := 0
	kept := make(map[int]bool, len(chunks))

	take := func(i int) bool {
		if chunks[i].IgnoredForQA() || kept[i] {
			return true
		}
		if maxChunks > 0 && count >= maxChunks {
			return false
		}
		cost := tok.CountTokens(chunks[i].Content)
		if total+cost > tokenBudget {
			return false
		}
		total += cost
		count++
		kept[i] = true
		return true
	}

	if len(selection) > 0 {
		for i := range chunks {
			if selected[i] && !take(i) {
				break
			}
		}
	}
	for i := range chunks {
		if !kept[i] && !take(i) {
			break
		}
	}

	indices := make([]int, 0, len(kept))
	for i := range chunks {
		if kept[i] {
			indices = append(indices, i)
		}
	}
	return indices
}
