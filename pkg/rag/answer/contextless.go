package answer

import (
	"context"
	"fmt"

	"ai-docchat-be/pkg/llm"
	"ai-docchat-be/pkg/rag/budget"
	"ai-docchat-be/pkg/rag/packet"
	"ai-docchat-be/pkg/tokenizer"
)

// contextlessStrategy answers from conversation history alone: no retrieval,
// no citation rewriting, history dropped purely by token budget.
type contextlessStrategy struct {
	provider   llm.Provider
	tok        tokenizer.Tokenizer
	maxTokens  int
	systemText string
}

func (s *contextlessStrategy) Stream(ctx context.Context, turn Turn) <-chan packet.Packet {
	return produce(ctx, func(ctx context.Context, emit func(packet.Packet)) error {
		var system *budget.Segment
		if s.systemText != "" {
			seg := makeSegment(llm.RoleSystem, s.systemText, s.tok)
			system = &seg
		}
		segments, err := budget.DropHistoryOverflow(system, turn.History, turn.Query, s.maxTokens)
		if err != nil {
			return fmt.Errorf("assemble prompt: %w", err)
		}

		deltas, err := s.provider.Stream(ctx, segmentsToMessages(segments))
		if err != nil {
			return fmt.Errorf("model stream: %w", err)
		}
		for d := range deltas {
			if d.Err != nil {
				return fmt.Errorf("model stream: %w", d.Err)
			}
			emit(packet.AnswerPiece{AnswerPiece: d.Token})
		}
		return nil
	})
}
