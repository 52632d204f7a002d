package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-docchat-be/internal/constant"
	"ai-docchat-be/internal/dto"
	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/pkg/logger"
	"ai-docchat-be/internal/repository/memory"
	"ai-docchat-be/internal/repository/specification"
	"ai-docchat-be/internal/repository/unitofwork"
	"ai-docchat-be/pkg/llm"
	"ai-docchat-be/pkg/rag/access"
	"ai-docchat-be/pkg/rag/answer"
	"ai-docchat-be/pkg/rag/budget"
	"ai-docchat-be/pkg/rag/chain"
	"ai-docchat-be/pkg/rag/packet"
	"ai-docchat-be/pkg/rag/preprocess"
	"ai-docchat-be/pkg/rag/search"
	"ai-docchat-be/pkg/rag/tools"
	"ai-docchat-be/pkg/tokenizer"

	"github.com/google/uuid"
)

// IChatService defines the chat service interface
type IChatService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, request *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
	StreamChat(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, request *dto.SendMessageRequest) (<-chan packet.Packet, error)
}

// ChatConfig carries the turn-level knobs the orchestrator needs.
type ChatConfig struct {
	MaxInputTokens      int
	DocTokenBudget      int
	NumHits             int
	ForceToolPrompt     bool
	DisableGenerativeAI bool
}

type chatService struct {
	uowFactory   unitofwork.RepositoryFactory
	llmProvider  llm.Provider
	tok          tokenizer.Tokenizer
	index        search.DocumentIndex
	dispatcher   answer.ToolDispatcher
	personaCache *memory.PersonaCache
	publisher    IPublisherService
	sysLogger    logger.ILogger
	cfg          ChatConfig
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.Provider,
	tok tokenizer.Tokenizer,
	index search.DocumentIndex,
	dispatcher answer.ToolDispatcher,
	personaCache *memory.PersonaCache,
	publisher IPublisherService,
	sysLogger logger.ILogger,
	cfg ChatConfig,
) IChatService {
	return &chatService{
		uowFactory:   uowFactory,
		llmProvider:  llmProvider,
		tok:          tok,
		index:        index,
		dispatcher:   dispatcher,
		personaCache: personaCache,
		publisher:    publisher,
		sysLogger:    sysLogger,
		cfg:          cfg,
	}
}

// CreateSession creates a new chat session
func (cs *chatService) CreateSession(ctx context.Context, userId uuid.UUID, request *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	title := request.Title
	if title == "" {
		title = "Unnamed session"
	}

	if request.PersonaId != nil {
		persona, err := cs.resolvePersona(ctx, uow, request.PersonaId)
		if err != nil {
			return nil, err
		}
		if persona == nil {
			return nil, fmt.Errorf("persona not found")
		}
	}

	chatSession := entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		PersonaId: request.PersonaId,
		Title:     title,
		CreatedAt: time.Now(),
	}
	if err := uow.ChatSessionRepository().Create(ctx, &chatSession); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{Id: chatSession.Id}, nil
}

// GetAllSessions retrieves all chat sessions owned by the user
func (cs *chatService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chatSessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.GetAllSessionsResponse, 0, len(chatSessions))
	for _, s := range chatSessions {
		response = append(response, &dto.GetAllSessionsResponse{
			Id:        s.Id,
			Title:     s.Title,
			PersonaId: s.PersonaId,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		})
	}

	return response, nil
}

// GetChatHistory retrieves the mainline message chain for a session,
// root-to-tip, excluding the system root.
func (cs *chatService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session not found or access denied")
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return []*dto.GetChatHistoryResponse{}, nil
	}

	tip, ancestors, err := chain.ResolveMainline(messages)
	if err == chain.ErrEmptyMainline {
		return []*dto.GetChatHistoryResponse{}, nil
	}
	if err != nil {
		return nil, err
	}
	mainline := append(ancestors, tip)

	response := make([]*dto.GetChatHistoryResponse, 0, len(mainline))
	for _, m := range mainline {
		response = append(response, &dto.GetChatHistoryResponse{
			Id:              m.Id,
			ParentMessageId: m.ParentMessageId,
			MessageType:     m.MessageType,
			Message:         m.Message,
			RetrievalDocs:   m.RetrievalDocs,
			CreatedAt:       m.CreatedAt,
		})
	}
	return response, nil
}

// DeleteSession soft-deletes a session and removes its messages
func (cs *chatService) DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session not found or access denied")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		return err
	}

	return uow.Commit()
}

// StreamChat runs one chat turn. The user message is committed before any
// model call; everything after the commit is reported through the returned
// packet channel. A mainline mismatch after the speculative insert is a
// caller error (stale parent pointer) and fails the request outright.
func (cs *chatService) StreamChat(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, request *dto.SendMessageRequest) (<-chan packet.Packet, error) {
	if strings.TrimSpace(request.Message) == "" {
		return nil, fmt.Errorf("message must not be empty")
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session not found or access denied")
	}

	personaEnt, err := cs.resolvePersona(ctx, uow, sess.PersonaId)
	if err != nil {
		return nil, err
	}
	personaCfg := personaToConfig(personaEnt)

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	// Resolve or lazily create the root sentinel.
	var root *entity.ChatMessage
	for _, m := range messages {
		if m.ParentMessageId == nil {
			root = m
			break
		}
	}
	createRoot := root == nil
	if createRoot {
		root = &entity.ChatMessage{
			Id:            uuid.New(),
			ChatSessionId: sessionId,
			MessageType:   constant.MessageTypeSystem,
			CreatedAt:     time.Now(),
		}
		messages = append(messages, root)
	}

	// Resolve the parent the new user message attaches to.
	parent := root
	if request.ParentMessageId != nil {
		parent = nil
		for _, m := range messages {
			if m.Id == *request.ParentMessageId {
				parent = m
				break
			}
		}
		if parent == nil {
			return nil, fmt.Errorf("parent message %s not found in session", *request.ParentMessageId)
		}
	} else if !createRoot {
		tip, _, mainErr := chain.ResolveMainline(messages)
		if mainErr == nil {
			parent = tip
		} else if mainErr != chain.ErrEmptyMainline {
			return nil, mainErr
		}
	}

	queryEvent := entity.QueryEvent{
		Id:            uuid.New(),
		ChatSessionId: sessionId,
		UserId:        userId,
		Query:         request.Message,
		CreatedAt:     time.Now(),
	}
	if err := uow.QueryEventRepository().Create(ctx, &queryEvent); err != nil {
		return nil, err
	}

	userMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: sessionId,
		MessageType:   constant.MessageTypeUser,
		Message:       request.Message,
		TokenCount:    cs.tok.CountTokens(request.Message),
		CreatedAt:     time.Now(),
	}
	parentId := parent.Id
	userMessage.ParentMessageId = &parentId

	// Speculative insert: the user message and the parent pointer update
	// commit together, or not at all.
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	if createRoot {
		if err := uow.ChatMessageRepository().Create(ctx, root); err != nil {
			uow.Rollback()
			return nil, err
		}
	}
	if err := uow.ChatMessageRepository().Create(ctx, userMessage); err != nil {
		uow.Rollback()
		return nil, err
	}
	childId := userMessage.Id
	parent.LatestChildMessageId = &childId
	if err := uow.ChatMessageRepository().Update(ctx, parent); err != nil {
		uow.Rollback()
		return nil, err
	}

	messages = append(messages, userMessage)
	tip, ancestors, err := chain.ResolveMainline(messages)
	if err != nil {
		uow.Rollback()
		return nil, err
	}
	if tip.Id != userMessage.Id {
		uow.Rollback()
		return nil, fmt.Errorf("new message %s is not the mainline tip (stale parent pointer?)", userMessage.Id)
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// History = mainline minus the root sentinel and the new tip.
	history := make([]budget.Segment, 0, len(ancestors))
	for _, m := range ancestors {
		history = append(history, cs.messageSegment(m))
	}

	turn := answer.Turn{
		History: history,
		Query:   cs.messageSegment(userMessage),
		Persona: personaCfg,
	}

	out := make(chan packet.Packet)
	go cs.runTurn(ctx, out, userId, sess, personaCfg, turn, request, userMessage, &queryEvent)
	return out, nil
}

// runTurn drives retrieval, generation, and persistence for one committed
// user message, emitting packets in the documented order.
func (cs *chatService) runTurn(
	ctx context.Context,
	out chan<- packet.Packet,
	userId uuid.UUID,
	sess *entity.ChatSession,
	personaCfg *answer.PersonaConfig,
	turn answer.Turn,
	request *dto.SendMessageRequest,
	userMessage *entity.ChatMessage,
	queryEvent *entity.QueryEvent,
) {
	defer close(out)
	emit := func(p packet.Packet) {
		select {
		case out <- p:
		case <-ctx.Done():
		}
	}
	fail := func(err error) {
		cs.sysLogger.Error("chat", "chat turn failed", map[string]interface{}{
			"error":           err.Error(),
			"chat_session_id": sess.Id,
		})
		emit(packet.StreamingError{Error: err.Error()})
	}

	acl := access.FiltersForUser(&userId)
	filters := search.IndexFilters{
		DocumentSets:      personaCfg.DocumentSets,
		AccessControlList: acl,
	}

	pre := preprocess.Preprocess(request.Message)
	var stream search.ChunkStream = search.EmptyChunkStream{}
	retrievalRan := false

	switch {
	case len(request.SearchDocIds) > 0:
		stream = search.NewIdLookupChunkStream(cs.index, request.SearchDocIds, filters)
		retrievalRan = true
	case personaCfg.RetrievalEnabled:
		if preprocess.NeedSearch(ctx, cs.llmProvider, segmentsAsMessages(turn.History), request.Message) {
			rephrased, err := preprocess.RephraseQuery(ctx, cs.llmProvider, segmentsAsMessages(turn.History), request.Message)
			if err != nil {
				fail(err)
				return
			}
			pre = preprocess.Preprocess(rephrased)
			query := search.SearchQuery{
				Query:       rephrased,
				Filters:     filters,
				FavorRecent: pre.FavorRecent,
				NumHits:     cs.cfg.NumHits,
			}
			query.Filters.TimeCutoff = pre.TimeCutoff
			stream = search.NewIndexChunkStream(cs.index, search.NewLLMRelevanceFilter(cs.llmProvider), query)
			retrievalRan = true
		}
	}

	chunks, err := stream.Chunks(ctx)
	if err != nil {
		fail(err)
		return
	}

	emit(packet.QADocsResponse{
		TopDocuments:    search.ChunksToSearchDocs(chunks),
		PredictedFlow:   pre.PredictedFlow,
		PredictedSearch: pre.PredictedSearch,
		TimeCutoff:      pre.TimeCutoff,
		FavorRecent:     pre.FavorRecent,
	})

	// Retrieval that came back empty ends the turn without an answer.
	if retrievalRan && len(chunks) == 0 {
		return
	}

	if retrievalRan {
		docIds := make([]string, 0, len(chunks))
		seen := make(map[string]bool, len(chunks))
		for _, c := range chunks {
			if !seen[c.DocumentId] {
				seen[c.DocumentId] = true
				docIds = append(docIds, c.DocumentId)
			}
		}
		queryEvent.SelectedFlow = pre.PredictedFlow
		queryEvent.RetrievedDocumentIds = docIds
		auditUow := cs.uowFactory.NewUnitOfWork(ctx)
		if err := auditUow.QueryEventRepository().Update(ctx, queryEvent); err != nil {
			cs.sysLogger.Warn("chat", "failed to update query event", map[string]interface{}{
				"error": err.Error(), "query_event_id": queryEvent.Id,
			})
		}
	}

	selection, err := stream.Selection(ctx)
	if err != nil {
		fail(err)
		return
	}

	maxChunks := personaCfg.NumChunks
	if maxChunks <= 0 {
		maxChunks = constant.DefaultNumChunks
	}
	llmIndices := search.ChunksForQA(chunks, selection, maxChunks, cs.cfg.DocTokenBudget, cs.tok)
	if llmIndices == nil {
		llmIndices = []int{}
	}
	emit(packet.LLMRelevanceFilterResponse{RelevantChunkIndices: llmIndices})

	if cs.cfg.DisableGenerativeAI {
		return
	}

	// Tool endpoints are declared per persona, so the dispatcher is built
	// per turn unless one was injected.
	dispatcher := cs.dispatcher
	if dispatcher == nil {
		dispatcher = tools.NewHTTPDispatcher(personaCfg.Tools)
	}

	builder := answer.Builder{
		Provider:        cs.llmProvider,
		Tokenizer:       cs.tok,
		Retriever:       &indexRetriever{index: cs.index, acl: acl, numHits: cs.cfg.NumHits},
		Dispatcher:      dispatcher,
		MaxInputTokens:  cs.cfg.MaxInputTokens,
		DocTokenBudget:  cs.cfg.DocTokenBudget,
		ForceToolPrompt: cs.cfg.ForceToolPrompt,
	}
	strategy := builder.ForPersona(personaCfg)

	var answerText strings.Builder
	var retrievalDocs *packet.RetrievalDocs
	failed := false
	for p := range strategy.Stream(ctx, turn) {
		switch v := p.(type) {
		case packet.AnswerPiece:
			answerText.WriteString(v.AnswerPiece)
		case packet.RetrievalDocs:
			docs := v
			retrievalDocs = &docs
		case packet.StreamingError:
			failed = true
		}
		emit(p)
	}
	if failed || answerText.Len() == 0 {
		return
	}

	if err := cs.persistAssistantMessage(ctx, userId, sess, userMessage, queryEvent, answerText.String(), retrievalDocs); err != nil {
		fail(err)
	}
}

func (cs *chatService) persistAssistantMessage(
	ctx context.Context,
	userId uuid.UUID,
	sess *entity.ChatSession,
	userMessage *entity.ChatMessage,
	queryEvent *entity.QueryEvent,
	answerText string,
	retrievalDocs *packet.RetrievalDocs,
) error {
	var docsJson json.RawMessage
	if retrievalDocs != nil {
		raw, err := json.Marshal(retrievalDocs)
		if err != nil {
			return fmt.Errorf("marshal retrieval docs: %w", err)
		}
		docsJson = raw
	}

	parentId := userMessage.Id
	assistantMessage := &entity.ChatMessage{
		Id:              uuid.New(),
		ChatSessionId:   sess.Id,
		ParentMessageId: &parentId,
		MessageType:     constant.MessageTypeAssistant,
		Message:         answerText,
		TokenCount:      cs.tok.CountTokens(answerText),
		RetrievalDocs:   docsJson,
		CreatedAt:       time.Now(),
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().Create(ctx, assistantMessage); err != nil {
		return err
	}
	childId := assistantMessage.Id
	userMessage.LatestChildMessageId = &childId
	if err := uow.ChatMessageRepository().Update(ctx, userMessage); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	if cs.publisher != nil {
		payload, err := json.Marshal(dto.TurnCompletedMessage{
			ChatSessionId: sess.Id,
			UserId:        userId,
			MessageId:     assistantMessage.Id,
			QueryEventId:  queryEvent.Id,
		})
		if err == nil {
			if err := cs.publisher.Publish(ctx, payload); err != nil {
				cs.sysLogger.Warn("chat", "failed to publish turn completed", map[string]interface{}{
					"error": err.Error(), "chat_session_id": sess.Id,
				})
			}
		}
	}
	return nil
}

func (cs *chatService) resolvePersona(ctx context.Context, uow unitofwork.UnitOfWork, personaId *uuid.UUID) (*entity.Persona, error) {
	if personaId == nil {
		return nil, nil
	}
	if cached, found := cs.personaCache.Get(*personaId); found {
		return cached, nil
	}
	persona, err := uow.PersonaRepository().FindOne(ctx, specification.ByID{ID: *personaId})
	if err != nil {
		return nil, err
	}
	if persona != nil {
		cs.personaCache.Save(persona)
	}
	return persona, nil
}

func (cs *chatService) messageSegment(m *entity.ChatMessage) budget.Segment {
	tokens := m.TokenCount
	if tokens == 0 && m.Message != "" {
		tokens = cs.tok.CountTokens(m.Message)
	}
	return budget.Segment{Role: m.MessageType, Content: m.Message, TokenCount: tokens}
}

// personaToConfig snapshots the persona for the turn. Sessions without a
// persona run under the retrieval-enabled default.
func personaToConfig(p *entity.Persona) *answer.PersonaConfig {
	if p == nil {
		return &answer.PersonaConfig{
			Name:             "Default",
			RetrievalEnabled: true,
			NumChunks:        constant.DefaultNumChunks,
		}
	}
	return &answer.PersonaConfig{
		Name:             p.Name,
		SystemText:       p.SystemText,
		HintText:         p.HintText,
		RetrievalEnabled: p.RetrievalEnabled,
		NumChunks:        p.NumChunks,
		DocumentSets:     p.DocumentSets,
		Tools:            p.Tools,
	}
}

func segmentsAsMessages(segments []budget.Segment) []llm.Message {
	messages := make([]llm.Message, len(segments))
	for i, s := range segments {
		messages[i] = llm.Message{Role: s.Role, Content: s.Content}
	}
	return messages
}

// indexRetriever binds the turn's access filters for mid-generation
// retrieval by the contextual and tool-enabled strategies.
type indexRetriever struct {
	index   search.DocumentIndex
	acl     []string
	numHits int
}

func (r *indexRetriever) Retrieve(ctx context.Context, query string, persona *answer.PersonaConfig) ([]search.InferenceChunk, error) {
	filters := search.IndexFilters{AccessControlList: r.acl}
	if persona != nil {
		filters.DocumentSets = persona.DocumentSets
	}
	return r.index.Search(ctx, search.SearchQuery{
		Query:   query,
		Filters: filters,
		NumHits: r.numHits,
	})
}
