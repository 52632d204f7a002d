package mapper

import (
	"encoding/json"
	"time"

	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/model"
	"ai-docchat-be/pkg/rag/tools"

	"gorm.io/datatypes"
)

type PersonaMapper struct{}

func NewPersonaMapper() *PersonaMapper {
	return &PersonaMapper{}
}

func (m *PersonaMapper) ToEntity(p *model.Persona) *entity.Persona {
	if p == nil {
		return nil
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	var documentSets []string
	if len(p.DocumentSets) > 0 {
		_ = json.Unmarshal(p.DocumentSets, &documentSets)
	}

	var personaTools []tools.ToolConfig
	if len(p.Tools) > 0 {
		_ = json.Unmarshal(p.Tools, &personaTools)
	}

	return &entity.Persona{
		Id:               p.Id,
		Name:             p.Name,
		SystemText:       p.SystemText,
		HintText:         p.HintText,
		RetrievalEnabled: p.RetrievalEnabled,
		NumChunks:        p.NumChunks,
		DocumentSets:     documentSets,
		Tools:            personaTools,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *PersonaMapper) ToModel(p *entity.Persona) *model.Persona {
	if p == nil {
		return nil
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	var documentSets datatypes.JSON
	if len(p.DocumentSets) > 0 {
		raw, _ := json.Marshal(p.DocumentSets)
		documentSets = datatypes.JSON(raw)
	}

	var personaTools datatypes.JSON
	if len(p.Tools) > 0 {
		raw, _ := json.Marshal(p.Tools)
		personaTools = datatypes.JSON(raw)
	}

	return &model.Persona{
		Id:               p.Id,
		Name:             p.Name,
		SystemText:       p.SystemText,
		HintText:         p.HintText,
		RetrievalEnabled: p.RetrievalEnabled,
		NumChunks:        p.NumChunks,
		DocumentSets:     documentSets,
		Tools:            personaTools,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}
