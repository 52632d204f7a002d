package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-docchat-be/pkg/llm"
	"ai-docchat-be/pkg/rag/budget"
	"ai-docchat-be/pkg/rag/packet"
	"ai-docchat-be/pkg/rag/search"
)

type wordCountTokenizer struct{}

func (wordCountTokenizer) CountTokens(text string) int {
	return len(strings.Fields(text))
}

// fakeProvider scripts consecutive Invoke and Stream calls. Stream output is
// split into small tokens to exercise cross-token buffering.
type fakeProvider struct {
	invokeOutputs []string
	streamOutputs []string
	streamErr     error

	invokeCalls int
	streamCalls int
}

func (f *fakeProvider) Invoke(ctx context.Context, prompt []llm.Message, opts ...llm.Option) (string, error) {
	if f.invokeCalls >= len(f.invokeOutputs) {
		return "", errors.New("unexpected Invoke call")
	}
	out := f.invokeOutputs[f.invokeCalls]
	f.invokeCalls++
	return out, nil
}

func (f *fakeProvider) Stream(ctx context.Context, prompt []llm.Message, opts ...llm.Option) (<-chan llm.Delta, error) {
	if f.streamCalls >= len(f.streamOutputs) {
		return nil, errors.New("unexpected Stream call")
	}
	output := f.streamOutputs[f.streamCalls]
	f.streamCalls++

	deltas := make(chan llm.Delta)
	go func() {
		defer close(deltas)
		for i := 0; i < len(output); i += 3 {
			end := i + 3
			if end > len(output) {
				end = len(output)
			}
			deltas <- llm.Delta{Token: output[i:end]}
		}
		if f.streamErr != nil {
			deltas <- llm.Delta{Err: f.streamErr}
		}
	}()
	return deltas, nil
}

type fakeRetriever struct {
	chunks    []search.InferenceChunk
	lastQuery string
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, persona *PersonaConfig) ([]search.InferenceChunk, error) {
	f.lastQuery = query
	return f.chunks, nil
}

type fakeDispatcher struct {
	output   string
	lastName string
}

func (f *fakeDispatcher) Call(ctx context.Context, name, input string) (string, error) {
	f.lastName = name
	return f.output, nil
}

func collect(t *testing.T, ch <-chan packet.Packet) []packet.Packet {
	t.Helper()
	var packets []packet.Packet
	for p := range ch {
		packets = append(packets, p)
	}
	return packets
}

func answerText(packets []packet.Packet) string {
	var b strings.Builder
	for _, p := range packets {
		if piece, ok := p.(packet.AnswerPiece); ok {
			b.WriteString(piece.AnswerPiece)
		}
	}
	return b.String()
}

func findError(packets []packet.Packet) []packet.StreamingError {
	var errs []packet.StreamingError
	for _, p := range packets {
		if e, ok := p.(packet.StreamingError); ok {
			errs = append(errs, e)
		}
	}
	return errs
}

func userTurn(text string) Turn {
	return Turn{
		Query: budget.Segment{Role: llm.RoleUser, Content: text, TokenCount: len(strings.Fields(text))},
	}
}

func testChunks() []search.InferenceChunk {
	return []search.InferenceChunk{
		{DocumentId: "1", SemanticIdentifier: "Refund Policy", Content: "Refunds are allowed within 30 days.", SourceLink: "/doc/1"},
		{DocumentId: "2", SemanticIdentifier: "Terms", Content: "Exceptions require manager approval.", SourceLink: "/doc/2"},
	}
}

func TestContextlessStreamsAnswer(t *testing.T) {
	provider := &fakeProvider{streamOutputs: []string{"Hello there, how can I help?"}}
	strategy := &contextlessStrategy{provider: provider, tok: wordCountTokenizer{}, maxTokens: 100}

	packets := collect(t, strategy.Stream(context.Background(), userTurn("hi")))

	if got := answerText(packets); got != "Hello there, how can I help?" {
		t.Errorf("answer = %q", got)
	}
	if errs := findError(packets); len(errs) != 0 {
		t.Errorf("unexpected error packets: %v", errs)
	}
}

func TestContextlessStreamErrorYieldsOneErrorPacket(t *testing.T) {
	provider := &fakeProvider{
		streamOutputs: []string{"partial"},
		streamErr:     errors.New("model exploded"),
	}
	strategy := &contextlessStrategy{provider: provider, tok: wordCountTokenizer{}, maxTokens: 100}

	packets := collect(t, strategy.Stream(context.Background(), userTurn("hi")))

	errs := findError(packets)
	if len(errs) != 1 {
		t.Fatalf("error packets = %d, want 1", len(errs))
	}
	if errs[len(errs)-1] != packets[len(packets)-1] {
		t.Error("error packet is not terminal")
	}
}

func TestContextualWithSearchRewritesCitations(t *testing.T) {
	provider := &fakeProvider{
		invokeOutputs: []string{"Yes Search"},
		streamOutputs: []string{"Refunds are allowed within [1] 30 days [2]."},
	}
	retriever := &fakeRetriever{chunks: testChunks()}
	strategy := &contextualStrategy{
		provider:       provider,
		tok:            wordCountTokenizer{},
		retriever:      retriever,
		maxTokens:      500,
		docTokenBudget: 100,
	}

	turn := userTurn("What is our refund policy?")
	turn.Persona = &PersonaConfig{RetrievalEnabled: true}
	packets := collect(t, strategy.Stream(context.Background(), turn))

	var docs *packet.RetrievalDocs
	for _, p := range packets {
		if d, ok := p.(packet.RetrievalDocs); ok {
			docs = &d
		}
	}
	if docs == nil || len(docs.TopDocuments) != 2 {
		t.Fatalf("retrieval docs packet = %+v, want 2 docs", docs)
	}
	want := "Refunds are allowed within [[1]](/doc/1) 30 days [[2]](/doc/2)."
	if got := answerText(packets); got != want {
		t.Errorf("answer = %q, want %q", got, want)
	}
}

func TestContextualWithoutSearchAnswersDirectly(t *testing.T) {
	provider := &fakeProvider{
		invokeOutputs: []string{"No Search"},
		streamOutputs: []string{"Just [1] a direct answer."},
	}
	strategy := &contextualStrategy{
		provider:       provider,
		tok:            wordCountTokenizer{},
		retriever:      &fakeRetriever{},
		maxTokens:      500,
		docTokenBudget: 100,
	}

	turn := userTurn("hello again")
	turn.Persona = &PersonaConfig{RetrievalEnabled: true}
	packets := collect(t, strategy.Stream(context.Background(), turn))

	for _, p := range packets {
		if _, ok := p.(packet.RetrievalDocs); ok {
			t.Fatal("retrieval docs emitted without search")
		}
	}
	// No links, so citation markers pass through untouched.
	if got := answerText(packets); got != "Just [1] a direct answer." {
		t.Errorf("answer = %q", got)
	}
}

func TestToolEnabledStreamsFinalAnswerDirectly(t *testing.T) {
	provider := &fakeProvider{
		streamOutputs: []string{`{"action": "Final Answer", "action_input": "No tools needed."}`},
	}
	strategy := &toolEnabledStrategy{
		provider:       provider,
		tok:            wordCountTokenizer{},
		retriever:      &fakeRetriever{},
		maxTokens:      500,
		docTokenBudget: 100,
	}

	turn := userTurn("just chat")
	turn.Persona = &PersonaConfig{RetrievalEnabled: true}
	packets := collect(t, strategy.Stream(context.Background(), turn))

	if got := answerText(packets); got != "No tools needed." {
		t.Errorf("answer = %q", got)
	}
	if provider.streamCalls != 1 {
		t.Errorf("stream calls = %d, want 1", provider.streamCalls)
	}
}

func TestToolEnabledRetrievalRound(t *testing.T) {
	provider := &fakeProvider{
		streamOutputs: []string{
			`{"action": "Current Search", "action_input": "refund policy"}`,
			`{"action": "Final Answer", "action_input": "Refunds are allowed [1]."}`,
		},
	}
	retriever := &fakeRetriever{chunks: testChunks()}
	strategy := &toolEnabledStrategy{
		provider:       provider,
		tok:            wordCountTokenizer{},
		retriever:      retriever,
		maxTokens:      500,
		docTokenBudget: 100,
	}

	turn := userTurn("What is our refund policy?")
	turn.Persona = &PersonaConfig{RetrievalEnabled: true}
	packets := collect(t, strategy.Stream(context.Background(), turn))

	if retriever.lastQuery != "refund policy" {
		t.Errorf("retriever query = %q, want model-provided input", retriever.lastQuery)
	}
	var sawDocs bool
	for _, p := range packets {
		if d, ok := p.(packet.RetrievalDocs); ok {
			sawDocs = true
			if len(d.TopDocuments) != 2 {
				t.Errorf("docs = %d, want 2", len(d.TopDocuments))
			}
		}
	}
	if !sawDocs {
		t.Error("no retrieval docs packet emitted")
	}
	if got := answerText(packets); got != "Refunds are allowed [[1]](/doc/1)." {
		t.Errorf("answer = %q", got)
	}
}

func TestToolEnabledExternalToolRound(t *testing.T) {
	provider := &fakeProvider{
		streamOutputs: []string{
			`{"action": "Calculator", "action_input": "2+2"}`,
			`{"action": "Final Answer", "action_input": "The result is 4."}`,
		},
	}
	dispatcher := &fakeDispatcher{output: "4"}
	strategy := &toolEnabledStrategy{
		provider:       provider,
		tok:            wordCountTokenizer{},
		retriever:      &fakeRetriever{},
		dispatcher:     dispatcher,
		maxTokens:      500,
		docTokenBudget: 100,
	}

	turn := userTurn("what is 2+2")
	turn.Persona = &PersonaConfig{}
	packets := collect(t, strategy.Stream(context.Background(), turn))

	if dispatcher.lastName != "Calculator" {
		t.Errorf("dispatched tool = %q, want Calculator", dispatcher.lastName)
	}
	if got := answerText(packets); got != "The result is 4." {
		t.Errorf("answer = %q", got)
	}
}

func TestToolEnabledFailsWithoutFollowupFinalAnswer(t *testing.T) {
	provider := &fakeProvider{
		streamOutputs: []string{
			`{"action": "Current Search", "action_input": "x"}`,
			`{"action": "Current Search", "action_input": "x again"}`,
		},
	}
	strategy := &toolEnabledStrategy{
		provider:       provider,
		tok:            wordCountTokenizer{},
		retriever:      &fakeRetriever{chunks: testChunks()},
		maxTokens:      500,
		docTokenBudget: 100,
	}

	turn := userTurn("anything")
	turn.Persona = &PersonaConfig{RetrievalEnabled: true}
	packets := collect(t, strategy.Stream(context.Background(), turn))

	errs := findError(packets)
	if len(errs) != 1 {
		t.Fatalf("error packets = %d, want 1", len(errs))
	}
}
