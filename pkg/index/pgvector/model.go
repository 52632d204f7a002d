package pgvector

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// DocumentChunkModel is one indexed chunk row with its embedding vector.
type DocumentChunkModel struct {
	Id                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId         string          `gorm:"type:varchar(255);not null;index"`
	ChunkId            int             `gorm:"not null"`
	SemanticIdentifier string          `gorm:"type:varchar(512)"`
	Content            string          `gorm:"type:text;not null"`
	Blurb              string          `gorm:"type:text"`
	SourceType         string          `gorm:"type:varchar(64);index"`
	SourceLink         string          `gorm:"type:varchar(1024)"`
	Metadata           datatypes.JSON  `gorm:"type:jsonb"`
	Embedding          pgvector.Vector `gorm:"type:vector(768)"`
	UpdatedAt          time.Time
	CreatedAt          time.Time
}

func (DocumentChunkModel) TableName() string {
	return "document_chunks"
}

// DocumentAccessModel grants one access-control entry visibility of a
// document. Kept in its own table so the retrieval query can filter with a
// plain subquery.
type DocumentAccessModel struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId string    `gorm:"type:varchar(255);not null;index"`
	AclEntry   string    `gorm:"type:varchar(255);not null;index"`
}

func (DocumentAccessModel) TableName() string {
	return "document_access_entries"
}

// DocumentSetModel places a document into a named document set.
type DocumentSetModel struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId  string    `gorm:"type:varchar(255);not null;index"`
	DocumentSet string    `gorm:"type:varchar(255);not null;index"`
}

func (DocumentSetModel) TableName() string {
	return "document_set_memberships"
}
