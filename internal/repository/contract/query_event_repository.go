package contract

import (
	"context"

	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/repository/specification"
)

type QueryEventRepository interface {
	Create(ctx context.Context, event *entity.QueryEvent) error
	Update(ctx context.Context, event *entity.QueryEvent) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QueryEvent, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QueryEvent, error)
}
