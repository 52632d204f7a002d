package implementation

import (
	"context"
	"errors"

	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/mapper"
	"ai-docchat-be/internal/model"
	"ai-docchat-be/internal/repository/contract"
	"ai-docchat-be/internal/repository/specification"

	"gorm.io/gorm"
)

type QueryEventRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QueryEventMapper
}

func NewQueryEventRepository(db *gorm.DB) contract.QueryEventRepository {
	return &QueryEventRepositoryImpl{
		db:     db,
		mapper: mapper.NewQueryEventMapper(),
	}
}

func (r *QueryEventRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *QueryEventRepositoryImpl) Create(ctx context.Context, event *entity.QueryEvent) error {
	m := r.mapper.ToModel(event)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*event = *r.mapper.ToEntity(m)
	return nil
}

func (r *QueryEventRepositoryImpl) Update(ctx context.Context, event *entity.QueryEvent) error {
	m := r.mapper.ToModel(event)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*event = *r.mapper.ToEntity(m)
	return nil
}

func (r *QueryEventRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QueryEvent, error) {
	var m model.QueryEvent
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *QueryEventRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QueryEvent, error) {
	var models []*model.QueryEvent
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.QueryEvent, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
