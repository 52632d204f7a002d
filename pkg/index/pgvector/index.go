package pgvector

import (
	"context"
	"encoding/json"
	"fmt"

	pgv "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"ai-docchat-be/pkg/embedding"
	"ai-docchat-be/pkg/rag/search"
)

const defaultNumHits = 25

// Index is the pgvector-backed document index. Queries are embedded through
// the configured provider and ranked by cosine similarity; access control and
// document-set membership are enforced with subqueries against their side
// tables.
type Index struct {
	db       *gorm.DB
	embedder embedding.EmbeddingProvider
}

func NewIndex(db *gorm.DB, embedder embedding.EmbeddingProvider) *Index {
	return &Index{db: db, embedder: embedder}
}

// AutoMigrate creates the index tables. The vector extension must already be
// installed on the database.
func (i *Index) AutoMigrate() error {
	return i.db.AutoMigrate(&DocumentChunkModel{}, &DocumentAccessModel{}, &DocumentSetModel{})
}

type chunkRow struct {
	DocumentChunkModel
	Score float64
}

func (i *Index) Search(ctx context.Context, query search.SearchQuery) ([]search.InferenceChunk, error) {
	resp, err := i.embedder.Generate(ctx, query.Query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	vec := pgv.NewVector(resp.Embedding.Values)

	numHits := query.NumHits
	if numHits <= 0 {
		numHits = defaultNumHits
	}

	db := i.db.WithContext(ctx).
		Table("document_chunks").
		Select("document_chunks.*, 1 - (embedding <=> ?) AS score", vec)
	db = applyFilters(db, query.Filters)

	order := "score DESC"
	if query.FavorRecent {
		order = "score DESC, updated_at DESC"
	}

	var rows []chunkRow
	if err := db.Order(order).Limit(numHits).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return rowsToChunks(rows)
}

func (i *Index) LookupByDocumentIds(ctx context.Context, documentIds []string, filters search.IndexFilters) ([]search.InferenceChunk, error) {
	if len(documentIds) == 0 {
		return nil, nil
	}

	db := i.db.WithContext(ctx).
		Table("document_chunks").
		Select("document_chunks.*, 0 AS score").
		Where("document_id IN ?", documentIds)
	db = applyFilters(db, filters)

	var rows []chunkRow
	if err := db.Order("document_id, chunk_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("document lookup: %w", err)
	}
	return rowsToChunks(rows)
}

// IndexChunks embeds and stores chunk content, replacing any prior rows for
// the same documents.
func (i *Index) IndexChunks(ctx context.Context, chunks []search.InferenceChunk, acl []string, documentSets []string) error {
	return i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, chunk := range chunks {
			resp, err := i.embedder.Generate(ctx, chunk.Content, embedding.TaskRetrievalDocument)
			if err != nil {
				return fmt.Errorf("embed chunk %s/%d: %w", chunk.DocumentId, chunk.ChunkId, err)
			}

			var metadata []byte
			if chunk.Metadata != nil {
				metadata, err = json.Marshal(chunk.Metadata)
				if err != nil {
					return fmt.Errorf("encode chunk metadata: %w", err)
				}
			}

			if err := tx.Where("document_id = ? AND chunk_id = ?", chunk.DocumentId, chunk.ChunkId).
				Delete(&DocumentChunkModel{}).Error; err != nil {
				return err
			}
			row := DocumentChunkModel{
				DocumentId:         chunk.DocumentId,
				ChunkId:            chunk.ChunkId,
				SemanticIdentifier: chunk.SemanticIdentifier,
				Content:            chunk.Content,
				Blurb:              chunk.Blurb,
				SourceType:         chunk.SourceType,
				SourceLink:         chunk.SourceLink,
				Metadata:           metadata,
				Embedding:          pgv.NewVector(resp.Embedding.Values),
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("store chunk: %w", err)
			}

			if err := tx.Where("document_id = ?", chunk.DocumentId).Delete(&DocumentAccessModel{}).Error; err != nil {
				return err
			}
			for _, entry := range acl {
				if err := tx.Create(&DocumentAccessModel{DocumentId: chunk.DocumentId, AclEntry: entry}).Error; err != nil {
					return err
				}
			}

			if err := tx.Where("document_id = ?", chunk.DocumentId).Delete(&DocumentSetModel{}).Error; err != nil {
				return err
			}
			for _, set := range documentSets {
				if err := tx.Create(&DocumentSetModel{DocumentId: chunk.DocumentId, DocumentSet: set}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func applyFilters(db *gorm.DB, filters search.IndexFilters) *gorm.DB {
	db = db.Where(
		"EXISTS (SELECT 1 FROM document_access_entries a WHERE a.document_id = document_chunks.document_id AND a.acl_entry IN ?)",
		filters.AccessControlList,
	)
	if len(filters.SourceTypes) > 0 {
		db = db.Where("source_type IN ?", filters.SourceTypes)
	}
	if len(filters.DocumentSets) > 0 {
		db = db.Where(
			"EXISTS (SELECT 1 FROM document_set_memberships m WHERE m.document_id = document_chunks.document_id AND m.document_set IN ?)",
			filters.DocumentSets,
		)
	}
	if filters.TimeCutoff != nil {
		db = db.Where("updated_at >= ?", *filters.TimeCutoff)
	}
	return db
}

func rowsToChunks(rows []chunkRow) ([]search.InferenceChunk, error) {
	chunks := make([]search.InferenceChunk, len(rows))
	for i, row := range rows {
		var metadata map[string]string
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &metadata); err != nil {
				return nil, fmt.Errorf("decode chunk metadata: %w", err)
			}
		}
		updatedAt := row.UpdatedAt
		chunks[i] = search.InferenceChunk{
			DocumentId:         row.DocumentId,
			ChunkId:            row.ChunkId,
			SemanticIdentifier: row.SemanticIdentifier,
			Content:            row.Content,
			Blurb:              row.Blurb,
			SourceType:         row.SourceType,
			SourceLink:         row.SourceLink,
			Score:              row.Score,
			UpdatedAt:          &updatedAt,
			Metadata:           metadata,
		}
	}
	return chunks, nil
}
