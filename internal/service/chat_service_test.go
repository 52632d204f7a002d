package service

import (
	"context"
	"sort"
	"strings"
	"testing"

	"ai-docchat-be/internal/constant"
	"ai-docchat-be/internal/dto"
	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/repository/contract"
	"ai-docchat-be/internal/repository/memory"
	"ai-docchat-be/internal/repository/specification"
	"ai-docchat-be/internal/repository/unitofwork"
	"ai-docchat-be/pkg/llm"
	"ai-docchat-be/pkg/rag/packet"
	"ai-docchat-be/pkg/rag/search"

	"github.com/google/uuid"
)

// In-memory persistence fakes. Specifications are interpreted by
// type-switching on the concrete spec structs the service uses.

type memStore struct {
	sessions    map[uuid.UUID]*entity.ChatSession
	messages    map[uuid.UUID]*entity.ChatMessage
	personas    map[uuid.UUID]*entity.Persona
	queryEvents map[uuid.UUID]*entity.QueryEvent

	snapshot map[uuid.UUID]entity.ChatMessage
}

func newMemStore() *memStore {
	return &memStore{
		sessions:    make(map[uuid.UUID]*entity.ChatSession),
		messages:    make(map[uuid.UUID]*entity.ChatMessage),
		personas:    make(map[uuid.UUID]*entity.Persona),
		queryEvents: make(map[uuid.UUID]*entity.QueryEvent),
	}
}

type memUow struct {
	store *memStore
}

func (u *memUow) Begin(ctx context.Context) error {
	u.store.snapshot = make(map[uuid.UUID]entity.ChatMessage, len(u.store.messages))
	for id, m := range u.store.messages {
		u.store.snapshot[id] = *m
	}
	return nil
}

func (u *memUow) Commit() error {
	u.store.snapshot = nil
	return nil
}

func (u *memUow) Rollback() error {
	if u.store.snapshot == nil {
		return nil
	}
	u.store.messages = make(map[uuid.UUID]*entity.ChatMessage, len(u.store.snapshot))
	for id, m := range u.store.snapshot {
		copied := m
		u.store.messages[id] = &copied
	}
	u.store.snapshot = nil
	return nil
}

func (u *memUow) ChatSessionRepository() contract.ChatSessionRepository {
	return &memSessionRepo{store: u.store}
}

func (u *memUow) ChatMessageRepository() contract.ChatMessageRepository {
	return &memMessageRepo{store: u.store}
}

func (u *memUow) PersonaRepository() contract.PersonaRepository {
	return &memPersonaRepo{store: u.store}
}

func (u *memUow) QueryEventRepository() contract.QueryEventRepository {
	return &memQueryEventRepo{store: u.store}
}

type memFactory struct {
	store *memStore
}

func (f *memFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memUow{store: f.store}
}

type memSessionRepo struct{ store *memStore }

func (r *memSessionRepo) Create(ctx context.Context, s *entity.ChatSession) error {
	copied := *s
	r.store.sessions[s.Id] = &copied
	return nil
}

func (r *memSessionRepo) Update(ctx context.Context, s *entity.ChatSession) error {
	copied := *s
	r.store.sessions[s.Id] = &copied
	return nil
}

func (r *memSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.store.sessions, id)
	return nil
}

func (r *memSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	for _, s := range r.store.sessions {
		if sessionMatches(s, specs) {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	var out []*entity.ChatSession
	for _, s := range r.store.sessions {
		if sessionMatches(s, specs) {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func sessionMatches(s *entity.ChatSession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch v := spec.(type) {
		case specification.ByID:
			if s.Id != v.ID {
				return false
			}
		case specification.ByUserID:
			if s.UserId != v.UserID {
				return false
			}
		}
	}
	return true
}

type memMessageRepo struct{ store *memStore }

func (r *memMessageRepo) Create(ctx context.Context, m *entity.ChatMessage) error {
	copied := *m
	r.store.messages[m.Id] = &copied
	return nil
}

func (r *memMessageRepo) Update(ctx context.Context, m *entity.ChatMessage) error {
	copied := *m
	r.store.messages[m.Id] = &copied
	return nil
}

func (r *memMessageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.store.messages, id)
	return nil
}

func (r *memMessageRepo) DeleteByChatSessionId(ctx context.Context, sessionId uuid.UUID) error {
	for id, m := range r.store.messages {
		if m.ChatSessionId == sessionId {
			delete(r.store.messages, id)
		}
	}
	return nil
}

func (r *memMessageRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *memMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	var out []*entity.ChatMessage
	for _, m := range r.store.messages {
		if messageMatches(m, specs) {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func messageMatches(m *entity.ChatMessage, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch v := spec.(type) {
		case specification.ByID:
			if m.Id != v.ID {
				return false
			}
		case specification.ByChatSessionID:
			if m.ChatSessionId != v.ChatSessionID {
				return false
			}
		}
	}
	return true
}

type memPersonaRepo struct{ store *memStore }

func (r *memPersonaRepo) Create(ctx context.Context, p *entity.Persona) error {
	copied := *p
	r.store.personas[p.Id] = &copied
	return nil
}

func (r *memPersonaRepo) Update(ctx context.Context, p *entity.Persona) error {
	copied := *p
	r.store.personas[p.Id] = &copied
	return nil
}

func (r *memPersonaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.store.personas, id)
	return nil
}

func (r *memPersonaRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Persona, error) {
	for _, p := range r.store.personas {
		matched := true
		for _, spec := range specs {
			switch v := spec.(type) {
			case specification.ByID:
				if p.Id != v.ID {
					matched = false
				}
			case specification.ByName:
				if p.Name != v.Name {
					matched = false
				}
			}
		}
		if matched {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memPersonaRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Persona, error) {
	var out []*entity.Persona
	for _, p := range r.store.personas {
		copied := *p
		out = append(out, &copied)
	}
	return out, nil
}

type memQueryEventRepo struct{ store *memStore }

func (r *memQueryEventRepo) Create(ctx context.Context, e *entity.QueryEvent) error {
	copied := *e
	r.store.queryEvents[e.Id] = &copied
	return nil
}

func (r *memQueryEventRepo) Update(ctx context.Context, e *entity.QueryEvent) error {
	copied := *e
	r.store.queryEvents[e.Id] = &copied
	return nil
}

func (r *memQueryEventRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QueryEvent, error) {
	for _, e := range r.store.queryEvents {
		copied := *e
		return &copied, nil
	}
	return nil, nil
}

func (r *memQueryEventRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QueryEvent, error) {
	var out []*entity.QueryEvent
	for _, e := range r.store.queryEvents {
		copied := *e
		out = append(out, &copied)
	}
	return out, nil
}

// Collaborator fakes.

type scriptedProvider struct {
	invokeOutputs []string
	streamOutputs []string
	invokeCalls   int
	streamCalls   int
}

func (p *scriptedProvider) Invoke(ctx context.Context, prompt []llm.Message, options ...llm.Option) (string, error) {
	out := p.invokeOutputs[p.invokeCalls]
	p.invokeCalls++
	return out, nil
}

func (p *scriptedProvider) Stream(ctx context.Context, prompt []llm.Message, options ...llm.Option) (<-chan llm.Delta, error) {
	out := p.streamOutputs[p.streamCalls]
	p.streamCalls++
	ch := make(chan llm.Delta)
	go func() {
		defer close(ch)
		for len(out) > 0 {
			n := 3
			if n > len(out) {
				n = len(out)
			}
			ch <- llm.Delta{Token: out[:n]}
			out = out[n:]
		}
	}()
	return ch, nil
}

type fakeIndex struct {
	chunks []search.InferenceChunk
}

func (f *fakeIndex) Search(ctx context.Context, query search.SearchQuery) ([]search.InferenceChunk, error) {
	return f.chunks, nil
}

func (f *fakeIndex) LookupByDocumentIds(ctx context.Context, documentIds []string, filters search.IndexFilters) ([]search.InferenceChunk, error) {
	return f.chunks, nil
}

type wordTokenizer struct{}

func (wordTokenizer) CountTokens(text string) int { return len(strings.Fields(text)) }

type capturePublisher struct {
	payloads [][]byte
}

func (p *capturePublisher) Publish(ctx context.Context, payload []byte) error {
	p.payloads = append(p.payloads, payload)
	return nil
}

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

func refundChunks() []search.InferenceChunk {
	return []search.InferenceChunk{
		{DocumentId: "doc-1", ChunkId: 0, SemanticIdentifier: "Refund Policy", Content: "Refunds are allowed within 30 days of purchase.", SourceLink: "/doc/1", Score: 0.9},
		{DocumentId: "doc-2", ChunkId: 0, SemanticIdentifier: "Returns FAQ", Content: "Items must be unused to qualify for a refund.", SourceLink: "/doc/2", Score: 0.8},
	}
}

func newTestChatService(store *memStore, provider llm.Provider, index search.DocumentIndex, publisher IPublisherService) IChatService {
	return NewChatService(
		&memFactory{store: store},
		provider,
		wordTokenizer{},
		index,
		nil,
		memory.NewPersonaCache(),
		publisher,
		noopLogger{},
		ChatConfig{MaxInputTokens: 1000, DocTokenBudget: 500, NumHits: 10},
	)
}

func TestStreamChatFullTurn(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	userId := uuid.New()
	sessionId := uuid.New()
	store.sessions[sessionId] = &entity.ChatSession{Id: sessionId, UserId: userId, Title: "Refunds"}

	provider := &scriptedProvider{
		// search needed? -> per-chunk relevance -> should-search decision
		invokeOutputs: []string{"yes", "yes", "yes", "Yes Search"},
		streamOutputs: []string{"Refunds are allowed within [1] 30 days [2]."},
	}
	publisher := &capturePublisher{}
	svc := newTestChatService(store, provider, &fakeIndex{chunks: refundChunks()}, publisher)

	stream, err := svc.StreamChat(ctx, userId, sessionId, &dto.SendMessageRequest{Message: "What is our refund policy?"})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}

	var packets []packet.Packet
	for p := range stream {
		packets = append(packets, p)
	}

	if len(packets) < 3 {
		t.Fatalf("expected at least 3 packets, got %d: %#v", len(packets), packets)
	}
	docs, ok := packets[0].(packet.QADocsResponse)
	if !ok {
		t.Fatalf("first packet is %T, want QADocsResponse", packets[0])
	}
	if len(docs.TopDocuments) != 2 {
		t.Fatalf("expected 2 top documents, got %d", len(docs.TopDocuments))
	}
	relevance, ok := packets[1].(packet.LLMRelevanceFilterResponse)
	if !ok {
		t.Fatalf("second packet is %T, want LLMRelevanceFilterResponse", packets[1])
	}
	if len(relevance.RelevantChunkIndices) != 2 {
		t.Fatalf("expected 2 relevant indices, got %v", relevance.RelevantChunkIndices)
	}

	var answerText strings.Builder
	sawRetrievalDocs := false
	for _, p := range packets[2:] {
		switch v := p.(type) {
		case packet.AnswerPiece:
			answerText.WriteString(v.AnswerPiece)
		case packet.RetrievalDocs:
			sawRetrievalDocs = true
			if len(v.TopDocuments) != 2 {
				t.Fatalf("expected 2 retrieval docs, got %d", len(v.TopDocuments))
			}
		case packet.StreamingError:
			t.Fatalf("unexpected error packet: %s", v.Error)
		}
	}
	if !sawRetrievalDocs {
		t.Fatal("expected a retrieval docs packet from the contextual strategy")
	}
	want := "Refunds are allowed within [[1]](/doc/1) 30 days [[2]](/doc/2)."
	if answerText.String() != want {
		t.Fatalf("answer = %q, want %q", answerText.String(), want)
	}

	// Tree state: root sentinel, user message, and the persisted answer.
	if len(store.messages) != 3 {
		t.Fatalf("expected 3 persisted messages, got %d", len(store.messages))
	}
	var assistant *entity.ChatMessage
	for _, m := range store.messages {
		if m.MessageType == constant.MessageTypeAssistant {
			assistant = m
		}
	}
	if assistant == nil {
		t.Fatal("no assistant message persisted")
	}
	if assistant.Message != want {
		t.Fatalf("persisted answer = %q, want %q", assistant.Message, want)
	}
	if assistant.ParentMessageId == nil {
		t.Fatal("assistant message has no parent")
	}
	user := store.messages[*assistant.ParentMessageId]
	if user == nil || user.MessageType != constant.MessageTypeUser {
		t.Fatalf("assistant parent is not the user message: %#v", user)
	}
	if user.LatestChildMessageId == nil || *user.LatestChildMessageId != assistant.Id {
		t.Fatal("user message latest-child pointer not updated")
	}
	if len(assistant.RetrievalDocs) == 0 {
		t.Fatal("assistant message missing retrieval docs snapshot")
	}

	if len(publisher.payloads) != 1 {
		t.Fatalf("expected 1 published turn event, got %d", len(publisher.payloads))
	}
	if len(store.queryEvents) != 1 {
		t.Fatalf("expected 1 query event, got %d", len(store.queryEvents))
	}
	for _, e := range store.queryEvents {
		if len(e.RetrievedDocumentIds) != 2 {
			t.Fatalf("query event retrieved ids = %v, want 2 entries", e.RetrievedDocumentIds)
		}
	}
}

func TestStreamChatStaleParentFailsFatally(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	userId := uuid.New()
	sessionId := uuid.New()
	store.sessions[sessionId] = &entity.ChatSession{Id: sessionId, UserId: userId}

	rootId := uuid.New()
	u1Id := uuid.New()
	a1Id := uuid.New()
	staleId := uuid.New()
	base := entity.ChatMessage{ChatSessionId: sessionId}

	root := base
	root.Id = rootId
	root.MessageType = constant.MessageTypeSystem
	root.LatestChildMessageId = &u1Id

	u1 := base
	u1.Id = u1Id
	u1.ParentMessageId = &rootId
	u1.MessageType = constant.MessageTypeUser
	u1.Message = "first"
	u1.LatestChildMessageId = &a1Id

	a1 := base
	a1.Id = a1Id
	a1.ParentMessageId = &u1Id
	a1.MessageType = constant.MessageTypeAssistant
	a1.Message = "first answer"

	// Sibling branch the root no longer points at.
	stale := base
	stale.Id = staleId
	stale.ParentMessageId = &rootId
	stale.MessageType = constant.MessageTypeUser
	stale.Message = "abandoned"

	for _, m := range []*entity.ChatMessage{&root, &u1, &a1, &stale} {
		store.messages[m.Id] = m
	}

	provider := &scriptedProvider{invokeOutputs: []string{"no"}}
	svc := newTestChatService(store, provider, &fakeIndex{}, nil)

	_, err := svc.StreamChat(ctx, userId, sessionId, &dto.SendMessageRequest{
		Message:         "follow up",
		ParentMessageId: &staleId,
	})
	if err == nil {
		t.Fatal("expected mainline mismatch error")
	}
	// The speculative insert must have been rolled back.
	if len(store.messages) != 4 {
		t.Fatalf("expected 4 messages after rollback, got %d", len(store.messages))
	}
	if stored := store.messages[staleId]; stored.LatestChildMessageId != nil {
		t.Fatal("stale parent pointer update was not rolled back")
	}
}

func TestStreamChatEmptyMessageRejected(t *testing.T) {
	store := newMemStore()
	userId := uuid.New()
	sessionId := uuid.New()
	store.sessions[sessionId] = &entity.ChatSession{Id: sessionId, UserId: userId}

	svc := newTestChatService(store, &scriptedProvider{}, &fakeIndex{}, nil)
	_, err := svc.StreamChat(context.Background(), userId, sessionId, &dto.SendMessageRequest{Message: "   "})
	if err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestStreamChatNoDocumentsStopsAfterAnnouncement(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	userId := uuid.New()
	sessionId := uuid.New()
	store.sessions[sessionId] = &entity.ChatSession{Id: sessionId, UserId: userId}

	provider := &scriptedProvider{invokeOutputs: []string{"yes"}}
	svc := newTestChatService(store, provider, &fakeIndex{chunks: nil}, nil)

	stream, err := svc.StreamChat(ctx, userId, sessionId, &dto.SendMessageRequest{Message: "What is our refund policy?"})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}

	var packets []packet.Packet
	for p := range stream {
		packets = append(packets, p)
	}
	if len(packets) != 1 {
		t.Fatalf("expected only the documents packet, got %d packets", len(packets))
	}
	docs, ok := packets[0].(packet.QADocsResponse)
	if !ok {
		t.Fatalf("packet is %T, want QADocsResponse", packets[0])
	}
	if len(docs.TopDocuments) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs.TopDocuments))
	}
}
