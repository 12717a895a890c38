package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/entity"
	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/location"
	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 検索結果の上限
const searchLimit = 100

// PartService 部品ワークフロー。検索・移動・納入更新・削除と
// それに伴う作業履歴の追記をひとつに集約する。
type PartService struct {
	partRepo    *repository.PartRepository
	historyRepo *repository.WorkHistoryRepository
	mapSvc      *MapService
	logger      *zap.Logger
}

func NewPartService(repos *repository.Repositories, mapSvc *MapService, logger *zap.Logger) *PartService {
	return &PartService{
		partRepo:    repos.Part,
		historyRepo: repos.History,
		mapSvc:      mapSvc,
		logger:      logger,
	}
}

// ========== 参照系 ==========

// Search 識別項目の横断部分一致検索。空白のみのキーワードはストアへ
// 問い合わせず ErrEmptySearchTerm を返す。0件ヒットはエラーではない。
func (s *PartService) Search(ctx context.Context, term string) ([]entity.Part, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrEmptySearchTerm
	}
	parts, err := s.partRepo.Search(ctx, term, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("部品の検索に失敗: %w", err)
	}
	return parts, nil
}

// ItemDetail 部品詳細。同じ発注伝票の関連部品を併せて返す。
type ItemDetail struct {
	Part    *entity.Part  `json:"part"`
	Related []entity.Part `json:"related"`
}

func (s *PartService) GetItem(ctx context.Context, id string) (*ItemDetail, error) {
	part, err := s.partRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var related []entity.Part
	if part.OrderSlipNo != "" {
		related, err = s.partRepo.ListByOrderSlip(ctx, part.OrderSlipNo, part.ID)
		if err != nil {
			return nil, fmt.Errorf("関連部品の取得に失敗: %w", err)
		}
	}
	return &ItemDetail{Part: part, Related: related}, nil
}

func (s *PartService) ListByStatus(ctx context.Context, status string) ([]entity.Part, error) {
	if status == "" {
		status = entity.StatusInWarehouse
	}
	if status != entity.StatusInWarehouse && status != entity.StatusMovedOut {
		return nil, ErrInvalidStatus
	}
	return s.partRepo.ListByStatus(ctx, status)
}

func (s *PartService) HistoryByPart(ctx context.Context, partID string) ([]entity.WorkHistory, error) {
	return s.historyRepo.ListByPart(ctx, partID)
}

func (s *PartService) History(ctx context.Context, page, pageSize int) ([]entity.WorkHistory, int64, error) {
	return s.historyRepo.List(ctx, page, pageSize)
}

// ========== 変異系 ==========

// CreateInput 手動追加の入力
type CreateInput struct {
	ProductionNo      string `json:"production_no" binding:"required"`
	PartsNo           string `json:"parts_no"`
	PartsName         string `json:"parts_name"`
	DrawingNo         string `json:"drawing_no"`
	OrderSlipNo       string `json:"order_slip_no"`
	RemainingQuantity int    `json:"remaining_quantity"`
	StorageLocation   string `json:"storage_location"`
	DeliveryDate      string `json:"delivery_date"`
	Notes             string `json:"notes"`
}

func (s *PartService) Create(ctx context.Context, input *CreateInput, operator string) (*entity.Part, error) {
	if strings.TrimSpace(input.ProductionNo) == "" {
		return nil, ErrProductionNoRequired
	}
	if input.RemainingQuantity < 0 {
		return nil, ErrInvalidQuantity
	}

	now := time.Now()
	part := &entity.Part{
		ID:                uuid.New().String()[:32],
		ProductionNo:      strings.TrimSpace(input.ProductionNo),
		PartsNo:           strings.TrimSpace(input.PartsNo),
		PartsName:         strings.TrimSpace(input.PartsName),
		DrawingNo:         strings.TrimSpace(input.DrawingNo),
		OrderSlipNo:       strings.TrimSpace(input.OrderSlipNo),
		RemainingQuantity: input.RemainingQuantity,
		StorageLocation:   strings.TrimSpace(input.StorageLocation),
		DeliveryDate:      strings.TrimSpace(input.DeliveryDate),
		Status:            entity.StatusInWarehouse,
		Notes:             input.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	hist := newHistory(part, entity.ActionManualAdd, 0, part.RemainingQuantity,
		"", part.StorageLocation, part.DeliveryDate, "手動追加", operator)

	err := s.partRepo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(part).Error; err != nil {
			return err
		}
		return tx.Create(hist).Error
	})
	if err != nil {
		return nil, fmt.Errorf("部品の追加に失敗: %w", err)
	}
	s.mapSvc.InvalidateCache(ctx)
	return part, nil
}

// MoveInput 移動の入力。MovedQuantityが0なら数量は変えない。
type MoveInput struct {
	NewLocation   string `json:"new_location"`
	MovedQuantity int    `json:"moved_quantity"`
	Notes         string `json:"notes"`
}

// Move 部品を移動する。移動先が倉庫内（エリア接頭辞を含む）なら
// 棚替えとしてステータスを保ち、倉庫外なら moved_out へ遷移して
// 持ち出し先と日時を記録する。
func (s *PartService) Move(ctx context.Context, id string, input *MoveInput, operator string) (*entity.Part, error) {
	dest := strings.TrimSpace(input.NewLocation)
	if dest == "" {
		return nil, ErrLocationRequired
	}
	if input.MovedQuantity < 0 {
		return nil, ErrInvalidQuantity
	}

	part, err := s.partRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	prevQty := part.RemainingQuantity
	prevLoc := part.StorageLocation

	newQty := prevQty
	if input.MovedQuantity > 0 {
		newQty = prevQty - input.MovedQuantity
		if newQty < 0 {
			return nil, ErrInsufficientQuantity
		}
	}

	now := time.Now()
	part.RemainingQuantity = newQty
	part.StorageLocation = dest
	if !location.IsInternal(dest) {
		part.Status = entity.StatusMovedOut
		part.MovedOutTo = dest
		part.MovedOutAt = &now
	}
	part.UpdatedAt = now

	hist := newHistory(part, entity.ActionMove, prevQty, newQty,
		prevLoc, dest, part.DeliveryDate, input.Notes, operator)
	if err := s.applyUpdate(ctx, part, hist); err != nil {
		return nil, fmt.Errorf("移動の保存に失敗: %w", err)
	}
	s.mapSvc.InvalidateCache(ctx)
	return part, nil
}

// BulkResult 一括処理の結果。失敗行があっても処理は続行し、
// 件数と行ごとのエラーで部分的な成功を報告する。
type BulkResult struct {
	Updated int      `json:"updated"`
	Errors  []string `json:"errors,omitempty"`
}

// BulkMoveByProduction 製番と現在の保管場所が一致する部品を
// まとめて移動する。対象0件はエラーではなく Updated=0 で返す。
func (s *PartService) BulkMoveByProduction(ctx context.Context, productionNo, fromLocation, toLocation, operator string) (*BulkResult, error) {
	productionNo = strings.TrimSpace(productionNo)
	if productionNo == "" {
		return nil, ErrProductionNoRequired
	}
	toLocation = strings.TrimSpace(toLocation)
	if toLocation == "" {
		return nil, ErrLocationRequired
	}

	parts, err := s.partRepo.FindByProductionAndLocation(ctx, productionNo, strings.TrimSpace(fromLocation))
	if err != nil {
		return nil, fmt.Errorf("対象部品の取得に失敗: %w", err)
	}

	result := &BulkResult{}
	now := time.Now()
	for i := range parts {
		part := &parts[i]
		prevLoc := part.StorageLocation
		part.StorageLocation = toLocation
		part.UpdatedAt = now

		notes := fmt.Sprintf("[一括移動] %s → %s", prevLoc, toLocation)
		hist := newHistory(part, entity.ActionBulkMove, part.RemainingQuantity, part.RemainingQuantity,
			prevLoc, toLocation, part.DeliveryDate, notes, operator)
		if err := s.applyUpdate(ctx, part, hist); err != nil {
			s.logger.Warn("一括移動に失敗した行をスキップ",
				zap.String("part_id", part.ID), zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", part.PartsNo, err))
			continue
		}
		result.Updated++
	}
	if result.Updated > 0 {
		s.mapSvc.InvalidateCache(ctx)
	}
	return result, nil
}

// BulkUpdateBySlip 発注伝票単位で保管場所を一括更新する。数量は変えない。
func (s *PartService) BulkUpdateBySlip(ctx context.Context, slipNo, storageLocation, notes, operator string) (*BulkResult, error) {
	storageLocation = strings.TrimSpace(storageLocation)
	if storageLocation == "" {
		return nil, ErrLocationRequired
	}

	parts, err := s.partRepo.ListByOrderSlip(ctx, strings.TrimSpace(slipNo), "")
	if err != nil {
		return nil, fmt.Errorf("対象部品の取得に失敗: %w", err)
	}

	result := &BulkResult{}
	now := time.Now()
	for i := range parts {
		part := &parts[i]
		prevLoc := part.StorageLocation
		part.StorageLocation = storageLocation
		part.UpdatedAt = now

		hist := newHistory(part, entity.ActionUpdate, part.RemainingQuantity, part.RemainingQuantity,
			prevLoc, storageLocation, part.DeliveryDate, "[一括更新] "+notes, operator)
		if err := s.applyUpdate(ctx, part, hist); err != nil {
			s.logger.Warn("一括更新に失敗した行をスキップ",
				zap.String("part_id", part.ID), zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", part.PartsNo, err))
			continue
		}
		result.Updated++
	}
	if result.Updated > 0 {
		s.mapSvc.InvalidateCache(ctx)
	}
	return result, nil
}

// DeliveryInput 納入更新の入力
type DeliveryInput struct {
	DeliveredQuantity int    `json:"delivered_quantity"`
	StorageLocation   string `json:"storage_location"`
	NewDeliveryDate   string `json:"new_delivery_date"`
	Notes             string `json:"notes"`
}

// UpdateDelivery 納入実績を反映する。残数を納入数量ぶん減らし、
// 保管場所を更新して履歴を追記する。残数が負になる納入は
// 書き込み前に拒否する。
func (s *PartService) UpdateDelivery(ctx context.Context, id string, input *DeliveryInput, operator string) (*entity.Part, error) {
	if input.DeliveredQuantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	part, err := s.partRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	prevQty := part.RemainingQuantity
	newQty := prevQty - input.DeliveredQuantity
	if newQty < 0 {
		return nil, ErrInsufficientQuantity
	}

	prevLoc := part.StorageLocation
	prevDate := part.DeliveryDate

	part.RemainingQuantity = newQty
	if loc := strings.TrimSpace(input.StorageLocation); loc != "" {
		part.StorageLocation = loc
	}
	if date := strings.TrimSpace(input.NewDeliveryDate); date != "" {
		part.DeliveryDate = date
	}
	part.UpdatedAt = time.Now()

	notes := fmt.Sprintf("[個別更新] 納入数量:%d。%s", input.DeliveredQuantity, input.Notes)
	hist := newHistory(part, entity.ActionUpdate, prevQty, newQty,
		prevLoc, part.StorageLocation, prevDate, notes, operator)
	if err := s.applyUpdate(ctx, part, hist); err != nil {
		return nil, fmt.Errorf("納入更新の保存に失敗: %w", err)
	}
	s.mapSvc.InvalidateCache(ctx)
	return part, nil
}

// Delete 部品を削除する。削除後も履歴が読めるよう、
// 識別項目と直前の状態を履歴へ写し取ってから消す。
func (s *PartService) Delete(ctx context.Context, id, operator string) error {
	part, err := s.partRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	hist := newHistory(part, entity.ActionDelete, part.RemainingQuantity, 0,
		part.StorageLocation, "", part.DeliveryDate, "部品レコードを削除", operator)
	if err := s.applyDelete(ctx, part, hist); err != nil {
		return fmt.Errorf("部品の削除に失敗: %w", err)
	}
	s.mapSvc.InvalidateCache(ctx)
	return nil
}

// ClearMovedOut 持ち出し済みの部品をまとめて削除する。
// 作業履歴は部品ごとに残す。
func (s *PartService) ClearMovedOut(ctx context.Context, operator string) (int, error) {
	parts, err := s.partRepo.ListByStatus(ctx, entity.StatusMovedOut)
	if err != nil {
		return 0, fmt.Errorf("持ち出し済み一覧の取得に失敗: %w", err)
	}

	purged := 0
	for i := range parts {
		part := &parts[i]
		hist := newHistory(part, entity.ActionDelete, part.RemainingQuantity, 0,
			part.StorageLocation, "", part.DeliveryDate, "持ち出し履歴の一括削除", operator)
		if err := s.applyDelete(ctx, part, hist); err != nil {
			s.logger.Warn("持ち出し済み部品の削除に失敗",
				zap.String("part_id", part.ID), zap.Error(err))
			continue
		}
		purged++
	}
	if purged > 0 {
		s.mapSvc.InvalidateCache(ctx)
	}
	return purged, nil
}

// NormalizeResult 場所正規化バッチの結果
type NormalizeResult struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
}

// NormalizeLocations 旧スキーマで混入したHTML断片から場所コードを
// 復元し、正規形へ書き直す一回限りの修復処理。作業ではなくデータ
// 修復なので履歴は残さない。コードを含まない自由記述の場所は
// 触らない。
func (s *PartService) NormalizeLocations(ctx context.Context) (*NormalizeResult, error) {
	parts, err := s.partRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("部品一覧の取得に失敗: %w", err)
	}

	result := &NormalizeResult{Scanned: len(parts)}
	for i := range parts {
		part := &parts[i]
		codes := location.ExtractCodes(part.StorageLocation)
		if len(codes) == 0 {
			continue
		}
		normalized := strings.Join(codes, ", ")
		if normalized == part.StorageLocation {
			continue
		}
		part.StorageLocation = normalized
		part.UpdatedAt = time.Now()
		if err := s.partRepo.Update(ctx, part); err != nil {
			return result, fmt.Errorf("部品 %s の正規化に失敗: %w", part.ID, err)
		}
		result.Updated++
	}
	if result.Updated > 0 {
		s.mapSvc.InvalidateCache(ctx)
	}
	return result, nil
}

// ========== 内部ヘルパ ==========

// applyUpdate 部品の更新と履歴の追記を1トランザクションで行う。
// 片方だけ反映される部分適用を防ぐ。
func (s *PartService) applyUpdate(ctx context.Context, part *entity.Part, hist *entity.WorkHistory) error {
	return s.partRepo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(part).Error; err != nil {
			return err
		}
		return tx.Create(hist).Error
	})
}

// applyDelete 部品の削除と履歴の追記を1トランザクションで行う。
func (s *PartService) applyDelete(ctx context.Context, part *entity.Part, hist *entity.WorkHistory) error {
	return s.partRepo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.Part{}, "id = ?", part.ID).Error; err != nil {
			return err
		}
		return tx.Create(hist).Error
	})
}

// newHistory 部品の現在値と変更前の値から履歴行を組み立てる。
// partは変更後の状態で渡すこと。
func newHistory(part *entity.Part, action string, prevQty, newQty int, prevLoc, newLoc, prevDate, notes, operator string) *entity.WorkHistory {
	return &entity.WorkHistory{
		ID:                   uuid.New().String()[:32],
		PartID:               part.ID,
		ProductionNo:         part.ProductionNo,
		PartsNo:              part.PartsNo,
		OrderSlipNo:          part.OrderSlipNo,
		Action:               action,
		PreviousQuantity:     prevQty,
		NewQuantity:          newQty,
		PreviousLocation:     prevLoc,
		NewLocation:          newLoc,
		PreviousDeliveryDate: prevDate,
		NewDeliveryDate:      part.DeliveryDate,
		Notes:                notes,
		UpdatedBy:            operator,
		CreatedAt:            time.Now(),
	}
}
