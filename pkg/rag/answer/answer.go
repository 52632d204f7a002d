package answer

import (
	"context"

	"ai-docchat-be/pkg/llm"
	"ai-docchat-be/pkg/rag/budget"
	"ai-docchat-be/pkg/rag/packet"
	"ai-docchat-be/pkg/rag/search"
	"ai-docchat-be/pkg/rag/tools"
	"ai-docchat-be/pkg/tokenizer"
)

// PersonaConfig is the read-only persona snapshot a turn runs under.
type PersonaConfig struct {
	Name             string
	SystemText       string
	HintText         string
	RetrievalEnabled bool
	NumChunks        int
	DocumentSets     []string
	Tools            []tools.ToolConfig
}

// Turn carries the budgeted conversation state into a strategy: the mainline
// history as prompt segments and the final user message.
type Turn struct {
	History []budget.Segment
	Query   budget.Segment
	Persona *PersonaConfig
}

// Retriever runs a retrieval pass on behalf of a strategy, with the turn's
// access filters and the persona's document sets already bound.
type Retriever interface {
	Retrieve(ctx context.Context, query string, persona *PersonaConfig) ([]search.InferenceChunk, error)
}

// ToolDispatcher executes a named external tool with the model-provided
// input. pkg/rag/tools provides the HTTP implementation.
type ToolDispatcher interface {
	Call(ctx context.Context, name, input string) (string, error)
}

// Strategy produces the packet sequence for one turn. The channel is closed
// when the turn ends; any internal failure surfaces as exactly one
// StreamingError packet, never a panic or a bare close mid-answer.
type Strategy interface {
	Stream(ctx context.Context, turn Turn) <-chan packet.Packet
}

// produce runs one turn body on its own goroutine, converting a returned
// error into the single terminal error packet.
func produce(ctx context.Context, run func(ctx context.Context, emit func(packet.Packet)) error) <-chan packet.Packet {
	out := make(chan packet.Packet)
	go func() {
		defer close(out)
		emit := func(p packet.Packet) {
			select {
			case out <- p:
			case <-ctx.Done():
			}
		}
		if err := run(ctx, emit); err != nil {
			emit(packet.StreamingError{Error: err.Error()})
		}
	}()
	return out
}

func segmentsToMessages(segments []budget.Segment) []llm.Message {
	messages := make([]llm.Message, len(segments))
	for i, s := range segments {
		messages[i] = llm.Message{Role: s.Role, Content: s.Content}
	}
	return messages
}

func makeSegment(role, content string, tok tokenizer.Tokenizer) budget.Segment {
	return budget.Segment{Role: role, Content: content, TokenCount: tok.CountTokens(content)}
}
