package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/entity"
	"gorm.io/gorm"
)

// WorkHistoryRepository 作業履歴リポジトリ。追記と参照のみ。
type WorkHistoryRepository struct {
	db *gorm.DB
}

func NewWorkHistoryRepository(db *gorm.DB) *WorkHistoryRepository {
	return &WorkHistoryRepository{db: db}
}

// Create 作業履歴を追記
func (r *WorkHistoryRepository) Create(ctx context.Context, h *entity.WorkHistory) error {
	if h.ID == "" {
		h.ID = uuid.New().String()[:32]
	}
	return r.db.WithContext(ctx).Create(h).Error
}

// ListByPart ある部品の作業履歴（新しい順）
func (r *WorkHistoryRepository) ListByPart(ctx context.Context, partID string) ([]entity.WorkHistory, error) {
	var items []entity.WorkHistory
	err := r.db.WithContext(ctx).
		Where("part_id = ?", partID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// List 作業履歴の全体一覧（ページング付き、新しい順）
func (r *WorkHistoryRepository) List(ctx context.Context, page, pageSize int) ([]entity.WorkHistory, int64, error) {
	var items []entity.WorkHistory
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.WorkHistory{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}
