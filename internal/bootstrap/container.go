package bootstrap

import (
	"log"

	"ai-docchat-be/internal/config"
	"ai-docchat-be/internal/controller"
	"ai-docchat-be/internal/pkg/logger"
	"ai-docchat-be/internal/repository/memory"
	"ai-docchat-be/internal/repository/unitofwork"
	"ai-docchat-be/internal/service"
	"ai-docchat-be/pkg/embedding"
	"ai-docchat-be/pkg/index/pgvector"
	"ai-docchat-be/pkg/llm/factory"
	"ai-docchat-be/pkg/tokenizer"

	pktNats "ai-docchat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController    controller.IChatController
	PersonaController controller.IPersonaController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaEmbeddingModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbeddingModel)
	} else {
		log.Fatalf("[FATAL] Unknown embedding provider: %s", cfg.Ai.EmbeddingProvider)
	}

	llmProvider, err := factory.NewProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.LLMModel,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	tok, err := tokenizer.NewTiktokenTokenizer(cfg.Ai.TokenizerEncoding)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize tokenizer: %v", err)
	}

	documentIndex := pgvector.NewIndex(db, embeddingProvider)

	// Persona snapshots are cached in memory per process
	personaCache := memory.NewPersonaCache()

	// 3.5 Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	publisherService := service.NewPublisherService(cfg.Events.TurnCompletedTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Events.TurnCompletedTopic,
		natsPub,
	)

	// 4. Services
	chatService := service.NewChatService(
		uowFactory,
		llmProvider,
		tok,
		documentIndex,
		nil, // tool dispatchers are built per turn from the persona
		personaCache,
		publisherService,
		sysLogger,
		service.ChatConfig{
			MaxInputTokens:      cfg.Ai.MaxInputTokens,
			DocTokenBudget:      cfg.Ai.DocTokenBudget,
			NumHits:             cfg.Ai.NumHits,
			ForceToolPrompt:     cfg.Ai.ForceToolPrompt,
			DisableGenerativeAI: cfg.Ai.DisableGenerativeAI,
		},
	)
	personaService := service.NewPersonaService(uowFactory, personaCache)

	// 5. Controllers
	return &Container{
		ChatController:    controller.NewChatController(chatService),
		PersonaController: controller.NewPersonaController(personaService),

		ConsumerService: consumerService,
	}
}
