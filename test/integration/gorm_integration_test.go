package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/repository/specification"
	"ai-docchat-be/internal/repository/unitofwork"
	"ai-docchat-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.ChatSessionRepository())
	assert.NotNil(t, uow.PersonaRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check Chat Session Repository", func(t *testing.T) {
		count, err := uow.ChatSessionRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Chat session count: %d", count)
	})

	t.Run("Check Transactional Message Chain", func(t *testing.T) {
		ctx := context.Background()
		userId := uuid.New()

		session := &entity.ChatSession{
			Id:        uuid.New(),
			UserId:    userId,
			Title:     "Integration " + uuid.New().String(),
			CreatedAt: time.Now(),
		}

		root := &entity.ChatMessage{
			Id:            uuid.New(),
			ChatSessionId: session.Id,
			MessageType:   "system",
			CreatedAt:     time.Now(),
		}

		txUow := uowFactory.NewUnitOfWork(ctx)
		assert.NoError(t, txUow.Begin(ctx))
		defer txUow.Rollback()

		assert.NoError(t, txUow.ChatSessionRepository().Create(ctx, session))
		assert.NoError(t, txUow.ChatMessageRepository().Create(ctx, root))

		userMsg := &entity.ChatMessage{
			Id:            uuid.New(),
			ChatSessionId: session.Id,
			MessageType:   "user",
			Message:       "integration hello",
			TokenCount:    2,
			CreatedAt:     time.Now(),
		}
		rootId := root.Id
		userMsg.ParentMessageId = &rootId
		assert.NoError(t, txUow.ChatMessageRepository().Create(ctx, userMsg))

		childId := userMsg.Id
		root.LatestChildMessageId = &childId
		assert.NoError(t, txUow.ChatMessageRepository().Update(ctx, root))

		found, err := txUow.ChatMessageRepository().FindAll(ctx,
			specification.ByChatSessionID{ChatSessionID: session.Id},
			specification.OrderBy{Field: "created_at", Desc: false},
		)
		assert.NoError(t, err)
		assert.Len(t, found, 2)

		rootFound, err := txUow.ChatMessageRepository().FindOne(ctx,
			specification.RootOfSession{ChatSessionID: session.Id},
		)
		assert.NoError(t, err)
		if assert.NotNil(t, rootFound) {
			assert.Equal(t, root.Id, rootFound.Id)
			if assert.NotNil(t, rootFound.LatestChildMessageId) {
				assert.Equal(t, userMsg.Id, *rootFound.LatestChildMessageId)
			}
		}

		// Rollback via defer keeps the database clean.
	})

	t.Run("Check Persona Round Trip", func(t *testing.T) {
		ctx := context.Background()

		txUow := uowFactory.NewUnitOfWork(ctx)
		assert.NoError(t, txUow.Begin(ctx))
		defer txUow.Rollback()

		persona := &entity.Persona{
			Id:               uuid.New(),
			Name:             "Integration Persona " + uuid.New().String(),
			SystemText:       "You answer from company documents.",
			RetrievalEnabled: true,
			NumChunks:        5,
			DocumentSets:     []string{"handbook"},
			CreatedAt:        time.Now(),
		}
		assert.NoError(t, txUow.PersonaRepository().Create(ctx, persona))

		found, err := txUow.PersonaRepository().FindOne(ctx, specification.ByID{ID: persona.Id})
		assert.NoError(t, err)
		if assert.NotNil(t, found) {
			assert.Equal(t, persona.Name, found.Name)
			assert.Equal(t, []string{"handbook"}, found.DocumentSets)
			assert.True(t, found.RetrievalEnabled)
		}
	})
}
