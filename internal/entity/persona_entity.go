package entity

import (
	"time"

	"github.com/google/uuid"

	"ai-docchat-be/pkg/rag/tools"
)

type Persona struct {
	Id               uuid.UUID
	Name             string
	SystemText       string
	HintText         string
	RetrievalEnabled bool
	NumChunks        int
	DocumentSets     []string
	Tools            []tools.ToolConfig
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}
