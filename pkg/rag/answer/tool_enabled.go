package answer

import (
	"context"
	"errors"
	"fmt"

	"ai-docchat-be/pkg/llm"
	"ai-docchat-be/pkg/rag/action"
	"ai-docchat-be/pkg/rag/budget"
	"ai-docchat-be/pkg/rag/citation"
	"ai-docchat-be/pkg/rag/packet"
	"ai-docchat-be/pkg/rag/prompt"
	"ai-docchat-be/pkg/rag/search"
	"ai-docchat-be/pkg/rag/tools"
	"ai-docchat-be/pkg/tokenizer"
)

// toolEnabledStrategy prompts the model with the structured action protocol.
// A streamed final answer passes straight through; any other action is
// dispatched (built-in retrieval or an external tool) and a follow-up round
// must then stream the final answer.
type toolEnabledStrategy struct {
	provider       llm.Provider
	tok            tokenizer.Tokenizer
	retriever      Retriever
	dispatcher     ToolDispatcher
	maxTokens      int
	docTokenBudget int
}

func (s *toolEnabledStrategy) Stream(ctx context.Context, turn Turn) <-chan packet.Packet {
	return produce(ctx, func(ctx context.Context, emit func(packet.Packet)) error {
		persona := turn.Persona

		available := make([]prompt.Tool, 0, len(persona.Tools)+1)
		if persona.RetrievalEnabled {
			available = append(available, prompt.Tool{
				Name:        tools.RetrievalToolName,
				Description: tools.RetrievalToolDescription,
			})
		}
		for _, t := range persona.Tools {
			available = append(available, prompt.Tool{Name: t.Name, Description: t.Description})
		}

		system := makeSegment(llm.RoleSystem, prompt.ToolSystemText(persona.SystemText, available), s.tok)
		final := makeSegment(llm.RoleUser, prompt.ToolUserText(turn.Query.Content, persona.HintText), s.tok)

		segments, err := budget.DropHistoryOverflow(&system, turn.History, final, s.maxTokens)
		if err != nil {
			return fmt.Errorf("assemble prompt: %w", err)
		}

		parser := action.NewParser()
		if err := s.streamThroughParser(ctx, segments, parser, nil, emit); err != nil {
			return err
		}
		decision, err := parser.Finish()
		if err != nil {
			return fmt.Errorf("parse model action: %w", err)
		}
		if decision == nil {
			// Final answer already streamed.
			return nil
		}

		toolOutput, links, err := s.dispatch(ctx, decision, persona, emit)
		if err != nil {
			return err
		}

		// The tool-call turn joins history so the budgeter may drop it too.
		followupHistory := append(append([]budget.Segment{}, turn.History...),
			turn.Query,
			makeSegment(llm.RoleAssistant, decision.ModelRaw, s.tok),
		)
		followupFinal := makeSegment(llm.RoleUser, prompt.ToolFollowupText(toolOutput, persona.HintText), s.tok)

		segments, err = budget.DropHistoryOverflow(&system, followupHistory, followupFinal, s.maxTokens)
		if err != nil {
			return fmt.Errorf("assemble follow-up prompt: %w", err)
		}

		followupParser := action.NewParser()
		rewriter := citation.NewRewriter(links)
		if err := s.streamThroughParser(ctx, segments, followupParser, rewriter, emit); err != nil {
			return err
		}
		if !followupParser.Streamed() {
			return errors.New("model did not stream a final answer after the tool call")
		}
		return nil
	})
}

// streamThroughParser runs one model round through the action parser,
// optionally rewriting citations in the streamed fragments.
func (s *toolEnabledStrategy) streamThroughParser(
	ctx context.Context,
	segments []budget.Segment,
	parser *action.Parser,
	rewriter *citation.Rewriter,
	emit func(packet.Packet),
) error {
	deltas, err := s.provider.Stream(ctx, segmentsToMessages(segments))
	if err != nil {
		return fmt.Errorf("model stream: %w", err)
	}
	for d := range deltas {
		if d.Err != nil {
			return fmt.Errorf("model stream: %w", d.Err)
		}
		fragment := parser.Feed(d.Token)
		if fragment == "" {
			continue
		}
		if rewriter != nil {
			fragment = rewriter.Feed(fragment)
			if fragment == "" {
				continue
			}
		}
		emit(packet.AnswerPiece{AnswerPiece: fragment})
	}
	if rewriter != nil {
		if tail := rewriter.Flush(); tail != "" {
			emit(packet.AnswerPiece{AnswerPiece: tail})
		}
	}
	return nil
}

// dispatch executes the parsed action and returns the tool output to feed
// back, plus citation links when the built-in retrieval ran.
func (s *toolEnabledStrategy) dispatch(
	ctx context.Context,
	decision *action.Decision,
	persona *PersonaConfig,
	emit func(packet.Packet),
) (string, []string, error) {
	if decision.Action == tools.RetrievalToolName && persona.RetrievalEnabled {
		chunks, err := s.retriever.Retrieve(ctx, decision.ActionInput, persona)
		if err != nil {
			return "", nil, fmt.Errorf("retrieval: %w", err)
		}
		usable := search.GetUsableChunks(chunks, persona.NumChunks, s.docTokenBudget, s.tok)
		emit(packet.RetrievalDocs{TopDocuments: search.ChunksToSearchDocs(usable)})
		return prompt.FormatChunksForPrompt(usable), prompt.ChunkLinks(usable), nil
	}

	if s.dispatcher == nil {
		return "", nil, fmt.Errorf("no dispatcher configured for tool: %s", decision.Action)
	}
	output, err := s.dispatcher.Call(ctx, decision.Action, decision.ActionInput)
	if err != nil {
		return "", nil, fmt.Errorf("tool dispatch: %w", err)
	}
	return output, nil, nil
}
