package answer

import (
	"context"
	"fmt"

	"ai-docchat-be/pkg/llm"
	"ai-docchat-be/pkg/rag/budget"
	"ai-docchat-be/pkg/rag/citation"
	"ai-docchat-be/pkg/rag/packet"
	"ai-docchat-be/pkg/rag/prompt"
	"ai-docchat-be/pkg/rag/search"
	"ai-docchat-be/pkg/tokenizer"
)

// contextualStrategy runs at most one retrieval pass per turn: a yes/no
// decision prompt first, then either a cited answer over retrieved context
// or a direct answer.
type contextualStrategy struct {
	provider       llm.Provider
	tok            tokenizer.Tokenizer
	retriever      Retriever
	maxTokens      int
	docTokenBudget int
}

func (s *contextualStrategy) Stream(ctx context.Context, turn Turn) <-chan packet.Packet {
	return produce(ctx, func(ctx context.Context, emit func(packet.Packet)) error {
		persona := turn.Persona

		var system *budget.Segment
		if persona.SystemText != "" {
			seg := makeSegment(llm.RoleSystem, persona.SystemText, s.tok)
			system = &seg
		}

		shouldSearch, err := s.checkShouldSearch(ctx, system, turn)
		if err != nil {
			return err
		}

		final := turn.Query
		var links []string
		if shouldSearch {
			chunks, err := s.retriever.Retrieve(ctx, turn.Query.Content, persona)
			if err != nil {
				return fmt.Errorf("retrieval: %w", err)
			}
			usable := search.GetUsableChunks(chunks, persona.NumChunks, s.docTokenBudget, s.tok)
			emit(packet.RetrievalDocs{TopDocuments: search.ChunksToSearchDocs(usable)})

			contextText := prompt.FormatChunksForPrompt(usable)
			final = makeSegment(llm.RoleUser, prompt.UserPromptWithContext(contextText, turn.Query.Content), s.tok)
			links = prompt.ChunkLinks(usable)
		}

		segments, err := budget.DropHistoryOverflow(system, turn.History, final, s.maxTokens)
		if err != nil {
			return fmt.Errorf("assemble prompt: %w", err)
		}
		deltas, err := s.provider.Stream(ctx, segmentsToMessages(segments))
		if err != nil {
			return fmt.Errorf("model stream: %w", err)
		}

		rewriter := citation.NewRewriter(links)
		for d := range deltas {
			if d.Err != nil {
				return fmt.Errorf("model stream: %w", d.Err)
			}
			if out := rewriter.Feed(d.Token); out != "" {
				emit(packet.AnswerPiece{AnswerPiece: out})
			}
		}
		if tail := rewriter.Flush(); tail != "" {
			emit(packet.AnswerPiece{AnswerPiece: tail})
		}
		return nil
	})
}

// checkShouldSearch asks the model the lightweight yes/no search question.
func (s *contextualStrategy) checkShouldSearch(ctx context.Context, system *budget.Segment, turn Turn) (bool, error) {
	decision := makeSegment(llm.RoleUser, prompt.RequireSearchText(turn.Query.Content), s.tok)
	segments, err := budget.DropHistoryOverflow(system, turn.History, decision, s.maxTokens)
	if err != nil {
		return false, fmt.Errorf("assemble search-decision prompt: %w", err)
	}
	out, err := s.provider.Invoke(ctx, segmentsToMessages(segments), llm.WithTemperature(0))
	if err != nil {
		return false, fmt.Errorf("search decision: %w", err)
	}
	return prompt.AnswerAffirmsSearch(out), nil
}
