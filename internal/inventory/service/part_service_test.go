package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/entity"
	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/repository"
	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupServiceTest(t *testing.T) (*gorm.DB, *Services) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	services := NewServices(repos, nil, zap.NewNop())
	return db, services
}

func TestSearchEmptyTerm(t *testing.T) {
	_, svc := setupServiceTest(t)

	for _, term := range []string{"", "   ", "\t"} {
		if _, err := svc.Part.Search(context.Background(), term); !errors.Is(err, ErrEmptySearchTerm) {
			t.Fatalf("term %q: expected ErrEmptySearchTerm, got %v", term, err)
		}
	}
}

func TestSearchPartialMatch(t *testing.T) {
	db, svc := setupServiceTest(t)

	testutil.SeedPart(t, db, &entity.Part{ProductionNo: "PRD-1001", PartsName: "ブラケット", RemainingQuantity: 5})
	testutil.SeedPart(t, db, &entity.Part{ProductionNo: "PRD-2002", PartsName: "シャフト", RemainingQuantity: 3})

	parts, err := svc.Part.Search(context.Background(), "prd-1")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(parts) != 1 || parts[0].ProductionNo != "PRD-1001" {
		t.Fatalf("expected single PRD-1001 hit, got %+v", parts)
	}

	// 0件ヒットはエラーではない
	parts, err = svc.Part.Search(context.Background(), "存在しない")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(parts) != 0 {
		t.Fatalf("expected no hits, got %d", len(parts))
	}
}

func TestSearchEscapesWildcard(t *testing.T) {
	db, svc := setupServiceTest(t)

	testutil.SeedPart(t, db, &entity.Part{ProductionNo: "100%NO", RemainingQuantity: 1})
	testutil.SeedPart(t, db, &entity.Part{ProductionNo: "100ANO", RemainingQuantity: 1})

	parts, err := svc.Part.Search(context.Background(), "100%")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(parts) != 1 || parts[0].ProductionNo != "100%NO" {
		t.Fatalf("expected %% to match literally, got %+v", parts)
	}
}

func TestGetItemWithRelated(t *testing.T) {
	db, svc := setupServiceTest(t)

	p1 := testutil.SeedPart(t, db, &entity.Part{ProductionNo: "PRD-1", OrderSlipNo: "SLIP-9", RemainingQuantity: 2})
	testutil.SeedPart(t, db, &entity.Part{ProductionNo: "PRD-2", OrderSlipNo: "SLIP-9", RemainingQuantity: 4})
	testutil.SeedPart(t, db, &entity.Part{ProductionNo: "PRD-3", OrderSlipNo: "SLIP-other", RemainingQuantity: 1})

	detail, err := svc.Part.GetItem(context.Background(), p1.ID)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if detail.Part.ID != p1.ID {
		t.Fatalf("expected part %s, got %s", p1.ID, detail.Part.ID)
	}
	if len(detail.Related) != 1 || detail.Related[0].ProductionNo != "PRD-2" {
		t.Fatalf("expected one related part PRD-2, got %+v", detail.Related)
	}
}

func TestGetItemNotFound(t *testing.T) {
	_, svc := setupServiceTest(t)

	_, err := svc.Part.GetItem(context.Background(), "no-such-id")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateDelivery(t *testing.T) {
	db, svc := setupServiceTest(t)

	p := testutil.SeedPart(t, db, &entity.Part{
		ProductionNo:      "PRD-10",
		RemainingQuantity: 10,
		StorageLocation:   "大北1-1",
	})

	updated, err := svc.Part.UpdateDelivery(context.Background(), p.ID, &DeliveryInput{
		DeliveredQuantity: 4,
		StorageLocation:   "大北2-1",
		Notes:             "午前便",
	}, "tester")
	if err != nil {
		t.Fatalf("UpdateDelivery failed: %v", err)
	}
	if updated.RemainingQuantity != 6 {
		t.Fatalf("expected remaining 6, got %d", updated.RemainingQuantity)
	}
	if updated.StorageLocation != "大北2-1" {
		t.Fatalf("expected location 大北2-1, got %s", updated.StorageLocation)
	}

	hists, err := svc.Part.HistoryByPart(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("HistoryByPart failed: %v", err)
	}
	if len(hists) != 1 {
		t.Fatalf("expected 1 history row, got %d", len(hists))
	}
	h := hists[0]
	if h.PreviousQuantity != 10 || h.NewQuantity != 6 {
		t.Fatalf("expected quantity 10→6 in history, got %d→%d", h.PreviousQuantity, h.NewQuantity)
	}
	if !strings.HasPrefix(h.Notes, "[個別更新] 納入数量:4。") {
		t.Fatalf("unexpected history notes: %s", h.Notes)
	}
	if h.UpdatedBy != "tester" {
		t.Fatalf("expected updated_by tester, got %s", h.UpdatedBy)
	}
}

func TestUpdateDeliveryInsufficientQuantity(t *testing.T) {
	db, svc := setupServiceTest(t)

	p := testutil.SeedPart(t, db, &entity.Part{ProductionNo: "PRD-11", RemainingQuantity: 3})

	_, err := svc.Part.UpdateDelivery(context.Background(), p.ID, &DeliveryInput{DeliveredQuantity: 5}, "tester")
	if !errors.Is(err, ErrInsufficientQuantity) {
		t.Fatalf("expected ErrInsufficientQuantity, got %v", err)
	}

	// レコードも履歴も書き込まれていないこと
	var got entity.Part
	if err := db.Where("id = ?", p.ID).First(&got).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got.RemainingQuantity != 3 {
		t.Fatalf("record changed despite rejection: %d", got.RemainingQuantity)
	}
	hists, _ := svc.Part.HistoryByPart(context.Background(), p.ID)
	if len(hists) != 0 {
		t.Fatalf("expected no history rows, got %d", len(hists))
	}
}

func TestUpdateDeliveryRejectsNonPositive(t *testing.T) {
	db, svc := setupServiceTest(t)

	p := testutil.SeedPart(t, db, &entity.Part{ProductionNo: "PRD-12", RemainingQuantity: 3})

	for _, qty := range []int{0, -1} {
		_, err := svc.Part.UpdateDelivery(context.Background(), p.ID, &DeliveryInput{DeliveredQuantity: qty}, "tester")
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("qty %d: expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
}

func TestMoveExternal(t *testing.T) {
	db, svc := setupServiceTest(t)

	p := testutil.SeedPart(t, db, &entity.Part{
		ProductionNo:      "PRD-20",
		RemainingQuantity: 7,
		StorageLocation:   "大北3-2",
	})

	moved, err := svc.Part.Move(context.Background(), p.ID, &MoveInput{NewLocation: "第2工場"}, "tester")
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if moved.Status != entity.StatusMovedOut {
		t.Fatalf("expected status moved_out, got %s", moved.Status)
	}
	if moved.MovedOutTo != "第2工場" {
		t.Fatalf("expected moved_out_to 第2工場, got %s", moved.MovedOutTo)
	}
	if moved.MovedOutAt == nil {
		t.Fatal("expected moved_out_at to be set")
	}
	if moved.RemainingQuantity != 7 {
		t.Fatalf("quantity should be unchanged, got %d", moved.RemainingQuantity)
	}
}

func TestMoveInternalKeepsStatus(t *testing.T) {
	db, svc := setupServiceTest(t)

	p := testutil.SeedPart(t, db, &entity.Part{
		ProductionNo:      "PRD-21",
		RemainingQuantity: 7,
		StorageLocation:   "大北3-2",
	})

	moved, err := svc.Part.Move(context.Background(), p.ID, &MoveInput{NewLocation: "小左2段"}, "tester")
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if moved.Status != entity.StatusInWarehouse {
		t.Fatalf("expected status in_warehouse, got %s", moved.Status)
	}
	if moved.MovedOutAt != nil {
		t.Fatal("moved_out_at should not be set for an internal move")
	}
	if moved.StorageLocation != "小左2段" {
		t.Fatalf("expected location 小左2段, got %s", moved.StorageLocation)
	}
}

func TestMoveWithQuantity(t *testing.T) {
	db, svc := setupServiceTest(t)

	p := testutil.SeedPart(t, db, &entity.Part{ProductionNo: "PRD-22", RemainingQuantity: 10, StorageLocation: "大南1-1"})

	moved, err := svc.Part.Move(context.Background(), p.ID, &MoveInput{NewLocation: "組立ライン", MovedQuantity: 10}, "tester")
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if moved.RemainingQuantity != 0 {
		t.Fatalf("expected remaining 0, got %d", moved.RemainingQuantity)
	}

	// 残数を超える移動は拒否
	p2 := testutil.SeedPart(t, db, &entity.Part{ProductionNo: "PRD-23", RemainingQuantity: 2})
	if _, err := svc.Part.Move(context.Background(), p2.ID, &MoveInput{NewLocation: "組立ライン", MovedQuantity: 3}, "tester"); !errors.Is(err, ErrInsufficientQuantity) {
		t.Fatalf("expected ErrInsufficientQuantity, got %v", err)
	}
}

func TestMoveEmptyLocation(t *testing.T) {
	db, svc := setupServiceTest(t)

	p := testutil.SeedPart(t, db, &entity.Part{ProductionNo: "PRD-24", RemainingQuantity: 1})

	if _, err := svc.Part.Move(context.Background(), p.ID, &MoveInput{NewLocation: "   "}, "tester"); !errors.Is(err, ErrLocationRequired) {
		t.Fatalf("expected ErrLocationRequired, got %v", err)
	}
}

func TestBulkMoveByProduction(t *testing.T) {
	db, svc := setupServiceTest(t)

	for i := 0; i < 3; i++ {
		testutil.SeedPart(t, db, &entity.Part{
			ProductionNo:      "PRD-30",
			PartsNo:           "P-" + string(rune('A'+i)),
			RemainingQuantity: 1,
			StorageLocation:   "大北1-1",
		})
	}
	// 製番は同じだが場所が違う行は対象外
	testutil.SeedPart(t, db, &entity.Part{ProductionNo: "PRD-30", RemainingQuantity: 1, StorageLocation: "大北9-3"})

	result, err := svc.Part.BulkMoveByProduction(context.Background(), "PRD-30", "大北1-1", "大南2-2", "tester")
	if err != nil {
		t.Fatalf("BulkMoveByProduction failed: %v", err)
	}
	if result.Updated != 3 {
		t.Fatalf("expected 3 updated, got %d", result.Updated)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected row errors: %v", result.Errors)
	}

	// 同条件の再実行は対象0件になる
	result, err = svc.Part.BulkMoveByProduction(context.Background(), "PRD-30", "大北1-1", "大南2-2", "tester")
	if err != nil {
		t.Fatalf("second BulkMoveByProduction failed: %v", err)
	}
	if result.Updated != 0 {
		t.Fatalf("expected 0 updated on rerun, got %d", result.Updated)
	}

	var count int64
	db.Model(&entity.Part{}).Where("storage_location = ?", "大南2-2").Count(&count)
	if count != 3 {
		t.Fatalf("expected 3 records at 大南2-2, got %d", count)
	}
}

func TestBulkUpdateBySlip(t *testing.T) {
	db, svc := setupServiceTest(t)

	testutil.SeedPart(t, db, &entity.Part{ProductionNo: "PRD-40", OrderSlipNo: "SLIP-1", RemainingQuantity: 2, StorageLocation: "小左1段"})
	testutil.SeedPart(t, db, &entity.Part{ProductionNo: "PRD-41", OrderSlipNo: "SLIP-1", RemainingQuantity: 4, StorageLocation: "小左1段"})
	testutil.SeedPart(t, db, &entity.Part{ProductionNo: "PRD-42", OrderSlipNo: "SLIP-2", RemainingQuantity: 1})

	result, err := svc.Part.BulkUpdateBySlip(context.Background(), "SLIP-1", "小右3段", "棚替え", "tester")
	if err != nil {
		t.Fatalf("BulkUpdateBySlip failed: %v", err)
	}
	if result.Updated != 2 {
		t.Fatalf("expected 2 updated, got %d", result.Updated)
	}

	var hists []entity.WorkHistory
	db.Where("order_slip_no = ?", "SLIP-1").Find(&hists)
	if len(hists) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(hists))
	}
	for _, h := range hists {
		if !strings.HasPrefix(h.Notes, "[一括更新] ") {
			t.Fatalf("unexpected history notes: %s", h.Notes)
		}
	}
}

func TestCreateManualPart(t *testing.T) {
	_, svc := setupServiceTest(t)

	part, err := svc.Part.Create(context.Background(), &CreateInput{
		ProductionNo:      " PRD-50 ",
		PartsName:         "カバー",
		RemainingQuantity: 8,
		StorageLocation:   "大北5-1",
	}, "tester")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if part.ProductionNo != "PRD-50" {
		t.Fatalf("expected trimmed production no, got %q", part.ProductionNo)
	}
	if part.Status != entity.StatusInWarehouse {
		t.Fatalf("expected status in_warehouse, got %s", part.Status)
	}
	if len(part.ID) != 32 {
		t.Fatalf("expected 32-char id, got %d chars", len(part.ID))
	}

	hists, _ := svc.Part.HistoryByPart(context.Background(), part.ID)
	if len(hists) != 1 || hists[0].Action != entity.ActionManualAdd {
		t.Fatalf("expected one manual_add history row, got %+v", hists)
	}

	if _, err := svc.Part.Create(context.Background(), &CreateInput{ProductionNo: "  "}, "tester"); !errors.Is(err, ErrProductionNoRequired) {
		t.Fatalf("expected ErrProductionNoRequired, got %v", err)
	}
}

func TestDeleteKeepsHistory(t *testing.T) {
	db, svc := setupServiceTest(t)

	p := testutil.SeedPart(t, db, &entity.Part{ProductionNo: "PRD-60", RemainingQuantity: 5, StorageLocation: "大北1-1"})

	if err := svc.Part.Delete(context.Background(), p.ID, "tester"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := svc.Part.GetItem(context.Background(), p.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	hists, err := svc.Part.HistoryByPart(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("HistoryByPart failed: %v", err)
	}
	if len(hists) != 1 || hists[0].Action != entity.ActionDelete {
		t.Fatalf("expected one delete history row, got %+v", hists)
	}
	if hists[0].ProductionNo != "PRD-60" {
		t.Fatalf("history should keep identifying fields, got %+v", hists[0])
	}
}

func TestClearMovedOut(t *testing.T) {
	db, svc := setupServiceTest(t)

	testutil.SeedPart(t, db, &entity.Part{ProductionNo: "PRD-70", Status: entity.StatusMovedOut, MovedOutTo: "第2工場"})
	testutil.SeedPart(t, db, &entity.Part{ProductionNo: "PRD-71", Status: entity.StatusMovedOut, MovedOutTo: "外注"})
	keep := testutil.SeedPart(t, db, &entity.Part{ProductionNo: "PRD-72", RemainingQuantity: 1})

	purged, err := svc.Part.ClearMovedOut(context.Background(), "tester")
	if err != nil {
		t.Fatalf("ClearMovedOut failed: %v", err)
	}
	if purged != 2 {
		t.Fatalf("expected 2 purged, got %d", purged)
	}

	var count int64
	db.Model(&entity.Part{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 remaining part, got %d", count)
	}
	var got entity.Part
	if err := db.Where("id = ?", keep.ID).First(&got).Error; err != nil {
		t.Fatalf("in-warehouse part should survive: %v", err)
	}
}

func TestNormalizeLocations(t *testing.T) {
	db, svc := setupServiceTest(t)

	corrupted := testutil.SeedPart(t, db, &entity.Part{
		ProductionNo:      "PRD-80",
		RemainingQuantity: 1,
		StorageLocation:   `<div id="大北2-1" class="zone"><span class="zone-name">大北3-1</span></div>`,
	})
	freeText := testutil.SeedPart(t, db, &entity.Part{
		ProductionNo:      "PRD-81",
		RemainingQuantity: 1,
		StorageLocation:   "事務所保管",
	})

	result, err := svc.Part.NormalizeLocations(context.Background())
	if err != nil {
		t.Fatalf("NormalizeLocations failed: %v", err)
	}
	if result.Scanned != 2 || result.Updated != 1 {
		t.Fatalf("expected scanned=2 updated=1, got %+v", result)
	}

	var got entity.Part
	db.Where("id = ?", corrupted.ID).First(&got)
	if got.StorageLocation != "大北2-1, 大北3-1" {
		t.Fatalf("expected normalized location, got %q", got.StorageLocation)
	}
	got = entity.Part{}
	db.Where("id = ?", freeText.ID).First(&got)
	if got.StorageLocation != "事務所保管" {
		t.Fatalf("free-text location should be untouched, got %q", got.StorageLocation)
	}

	// 履歴は作らない
	var histCount int64
	db.Model(&entity.WorkHistory{}).Count(&histCount)
	if histCount != 0 {
		t.Fatalf("normalization must not write history, got %d rows", histCount)
	}

	// 再実行しても変化なし
	result, err = svc.Part.NormalizeLocations(context.Background())
	if err != nil {
		t.Fatalf("second NormalizeLocations failed: %v", err)
	}
	if result.Updated != 0 {
		t.Fatalf("expected idempotent rerun, got updated=%d", result.Updated)
	}
}

func TestGroupByLocation(t *testing.T) {
	parts := []entity.Part{
		{ProductionNo: "PRD-1", StorageLocation: "大北1-1"},
		{ProductionNo: "PRD-2", StorageLocation: "大北1-1"},
		{ProductionNo: "PRD-1", StorageLocation: "大北1-1"},
		{ProductionNo: "PRD-3", StorageLocation: ""},
	}

	groups := GroupByLocation(parts)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Location != "大北1-1" || groups[0].Count != 3 {
		t.Fatalf("unexpected first group: %+v", groups[0])
	}
	if len(groups[0].ProductionNos) != 2 {
		t.Fatalf("expected deduped production nos, got %v", groups[0].ProductionNos)
	}
	if groups[1].Location != "未設定" || groups[1].Count != 1 {
		t.Fatalf("unexpected fallback group: %+v", groups[1])
	}
}

func TestHistoryPagination(t *testing.T) {
	db, svc := setupServiceTest(t)

	p := testutil.SeedPart(t, db, &entity.Part{ProductionNo: "PRD-90", RemainingQuantity: 100, StorageLocation: "大北1-1"})
	for i := 0; i < 5; i++ {
		if _, err := svc.Part.UpdateDelivery(context.Background(), p.ID, &DeliveryInput{DeliveredQuantity: 1}, "tester"); err != nil {
			t.Fatalf("UpdateDelivery failed: %v", err)
		}
	}

	hists, total, err := svc.Part.History(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected total 5, got %d", total)
	}
	if len(hists) != 3 {
		t.Fatalf("expected page of 3, got %d", len(hists))
	}

	hists, _, err = svc.Part.History(context.Background(), 2, 3)
	if err != nil {
		t.Fatalf("History page 2 failed: %v", err)
	}
	if len(hists) != 2 {
		t.Fatalf("expected 2 rows on second page, got %d", len(hists))
	}
}
