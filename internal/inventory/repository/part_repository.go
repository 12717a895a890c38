package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/entity"
	"gorm.io/gorm"
)

// 検索対象カラム（固定）。自由記述の識別項目をOR結合で横断する。
var searchColumns = []string{
	"production_no",
	"parts_no",
	"parts_name",
	"drawing_no",
	"order_slip_no",
}

// PartRepository 部品リポジトリ
type PartRepository struct {
	db *gorm.DB
}

func NewPartRepository(db *gorm.DB) *PartRepository {
	return &PartRepository{db: db}
}

func (r *PartRepository) DB() *gorm.DB {
	return r.db
}

func (r *PartRepository) Create(ctx context.Context, part *entity.Part) error {
	return r.db.WithContext(ctx).Create(part).Error
}

func (r *PartRepository) FindByID(ctx context.Context, id string) (*entity.Part, error) {
	var part entity.Part
	err := r.db.WithContext(ctx).First(&part, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &part, nil
}

// ListByStatus ステータス別の部品一覧
func (r *PartRepository) ListByStatus(ctx context.Context, status string) ([]entity.Part, error) {
	var parts []entity.Part
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&parts).Error
	return parts, err
}

// ListAll 全部品（場所の正規化バッチで使う）
func (r *PartRepository) ListAll(ctx context.Context) ([]entity.Part, error) {
	var parts []entity.Part
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&parts).Error
	return parts, err
}

// ListByOrderSlip 同じ発注伝票に載っている部品。excludeIDは除外（空なら全件）。
func (r *PartRepository) ListByOrderSlip(ctx context.Context, slipNo, excludeID string) ([]entity.Part, error) {
	q := r.db.WithContext(ctx).Where("order_slip_no = ?", slipNo)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var parts []entity.Part
	err := q.Order("parts_no ASC").Find(&parts).Error
	return parts, err
}

// FindByProductionAndLocation 製番と現在の保管場所の完全一致で絞り込む
func (r *PartRepository) FindByProductionAndLocation(ctx context.Context, productionNo, storageLocation string) ([]entity.Part, error) {
	var parts []entity.Part
	err := r.db.WithContext(ctx).
		Where("production_no = ? AND storage_location = ?", productionNo, storageLocation).
		Order("created_at ASC").
		Find(&parts).Error
	return parts, err
}

// Search 識別項目の部分一致検索（大文字小文字を区別しない）。
// termはエスケープ済みの前提ではなく、ここでメタ文字を潰す。
func (r *PartRepository) Search(ctx context.Context, term string, limit int) ([]entity.Part, error) {
	pattern := "%" + escapeLike(term) + "%"

	conds := make([]string, 0, len(searchColumns))
	args := make([]interface{}, 0, len(searchColumns))
	for _, col := range searchColumns {
		conds = append(conds, "LOWER("+col+") LIKE LOWER(?) ESCAPE '\\'")
		args = append(args, pattern)
	}

	var parts []entity.Part
	err := r.db.WithContext(ctx).
		Where(strings.Join(conds, " OR "), args...).
		Order("order_slip_no ASC, created_at ASC").
		Limit(limit).
		Find(&parts).Error
	return parts, err
}

func (r *PartRepository) Update(ctx context.Context, part *entity.Part) error {
	return r.db.WithContext(ctx).Save(part).Error
}

func (r *PartRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.Part{}, "id = ?", id).Error
}

// escapeLike はLIKEパターンのメタ文字をエスケープする。
// 除去するとユーザー入力の % や _ がリテラルに一致しなくなるため、
// 必ずバックスラッシュでのエスケープに統一する。
func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}
