package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BaseRepository[T any] interface {
	Create(ctx context.Context, entity *T) error
	GetByID(ctx context.Context, id uuid.UUID) (*T, error)
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*T, error)
	Count(ctx context.Context) (int64, error)
}

type BaseRepositoryImpl[T any] struct {
	db *gorm.DB
}

func NewBaseRepository[T any](db *gorm.DB) *BaseRepositoryImpl[T] {
	return &BaseRepositoryImpl[T]{
		db: db,
	}
}

func (r *BaseRepositoryImpl[T]) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *BaseRepositoryImpl[T]) Create(ctx context.Context, entity *T) error {
	return r.conn(ctx).Create(entity).Error
}

func (r *BaseRepositoryImpl[T]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var entity T
	err := r.conn(ctx).First(&entity, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *BaseRepositoryImpl[T]) Update(ctx context.Context, entity *T) error {
	return r.conn(ctx).Save(entity).Error
}

func (r *BaseRepositoryImpl[T]) Delete(ctx context.Context, id uuid.UUID) error {
	var entity T
	return r.conn(ctx).Delete(&entity, "id = ?", id).Error
}

// List returns newest first. A non-positive limit returns every row.
func (r *BaseRepositoryImpl[T]) List(ctx context.Context, limit, offset int) ([]*T, error) {
	var entities []*T
	q := r.conn(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	err := q.Find(&entities).Error
	return entities, err
}

func (r *BaseRepositoryImpl[T]) Count(ctx context.Context) (int64, error) {
	var count int64
	var entity T
	err := r.conn(ctx).Model(&entity).Count(&count).Error
	return count, err
}
