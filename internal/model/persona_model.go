package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Persona struct {
	Id               uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name             string         `gorm:"type:varchar(255);not null;uniqueIndex"`
	SystemText       string         `gorm:"type:text"`
	HintText         string         `gorm:"type:text"`
	RetrievalEnabled bool           `gorm:"not null;default:false"`
	NumChunks        int            `gorm:"not null;default:0"`
	DocumentSets     datatypes.JSON `gorm:"type:jsonb"`
	Tools            datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt        time.Time      `gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime"`
}

func (Persona) TableName() string {
	return "personas"
}
