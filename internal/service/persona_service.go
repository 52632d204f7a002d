package service

import (
	"context"
	"fmt"
	"time"

	"ai-docchat-be/internal/dto"
	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/repository/memory"
	"ai-docchat-be/internal/repository/specification"
	"ai-docchat-be/internal/repository/unitofwork"
	"ai-docchat-be/pkg/rag/tools"

	"github.com/google/uuid"
)

// IPersonaService defines the persona management interface
type IPersonaService interface {
	CreatePersona(ctx context.Context, request *dto.CreatePersonaRequest) (*dto.PersonaResponse, error)
	GetAllPersonas(ctx context.Context) ([]*dto.PersonaResponse, error)
	GetPersona(ctx context.Context, id uuid.UUID) (*dto.PersonaResponse, error)
	DeletePersona(ctx context.Context, id uuid.UUID) error
}

type personaService struct {
	uowFactory   unitofwork.RepositoryFactory
	personaCache *memory.PersonaCache
}

func NewPersonaService(uowFactory unitofwork.RepositoryFactory, personaCache *memory.PersonaCache) IPersonaService {
	return &personaService{
		uowFactory:   uowFactory,
		personaCache: personaCache,
	}
}

func (ps *personaService) CreatePersona(ctx context.Context, request *dto.CreatePersonaRequest) (*dto.PersonaResponse, error) {
	uow := ps.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.PersonaRepository().FindOne(ctx, specification.ByName{Name: request.Name})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("persona '%s' already exists", request.Name)
	}

	toolConfigs := make([]tools.ToolConfig, 0, len(request.Tools))
	for _, t := range request.Tools {
		toolConfigs = append(toolConfigs, tools.ToolConfig{
			Name:        t.Name,
			Description: t.Description,
			Endpoint:    t.Endpoint,
		})
	}

	persona := entity.Persona{
		Id:               uuid.New(),
		Name:             request.Name,
		SystemText:       request.SystemText,
		HintText:         request.HintText,
		RetrievalEnabled: request.RetrievalEnabled,
		NumChunks:        request.NumChunks,
		DocumentSets:     request.DocumentSets,
		Tools:            toolConfigs,
		CreatedAt:        time.Now(),
	}
	if err := uow.PersonaRepository().Create(ctx, &persona); err != nil {
		return nil, err
	}
	ps.personaCache.Save(&persona)

	return personaToResponse(&persona), nil
}

func (ps *personaService) GetAllPersonas(ctx context.Context) ([]*dto.PersonaResponse, error) {
	uow := ps.uowFactory.NewUnitOfWork(ctx)

	personas, err := uow.PersonaRepository().FindAll(ctx,
		specification.OrderBy{Field: "name", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.PersonaResponse, 0, len(personas))
	for _, p := range personas {
		response = append(response, personaToResponse(p))
	}
	return response, nil
}

func (ps *personaService) GetPersona(ctx context.Context, id uuid.UUID) (*dto.PersonaResponse, error) {
	if cached, found := ps.personaCache.Get(id); found {
		return personaToResponse(cached), nil
	}

	uow := ps.uowFactory.NewUnitOfWork(ctx)
	persona, err := uow.PersonaRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if persona == nil {
		return nil, fmt.Errorf("persona not found")
	}
	ps.personaCache.Save(persona)
	return personaToResponse(persona), nil
}

func (ps *personaService) DeletePersona(ctx context.Context, id uuid.UUID) error {
	uow := ps.uowFactory.NewUnitOfWork(ctx)
	if err := uow.PersonaRepository().Delete(ctx, id); err != nil {
		return err
	}
	ps.personaCache.Delete(id)
	return nil
}

func personaToResponse(p *entity.Persona) *dto.PersonaResponse {
	toolDTOs := make([]dto.ToolConfigDTO, 0, len(p.Tools))
	for _, t := range p.Tools {
		toolDTOs = append(toolDTOs, dto.ToolConfigDTO{
			Name:        t.Name,
			Description: t.Description,
			Endpoint:    t.Endpoint,
		})
	}
	return &dto.PersonaResponse{
		Id:               p.Id,
		Name:             p.Name,
		SystemText:       p.SystemText,
		HintText:         p.HintText,
		RetrievalEnabled: p.RetrievalEnabled,
		NumChunks:        p.NumChunks,
		DocumentSets:     p.DocumentSets,
		Tools:            toolDTOs,
		CreatedAt:        p.CreatedAt,
	}
}
