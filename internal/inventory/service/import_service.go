package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/entity"
	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/repository"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 取り込み列: 日付(未使用), 製番, 品名, 保管場所, 部品No, 納入残数, 発注伝票No
// 先頭4列は旧CSV様式のまま。5列目以降は任意。
const (
	colProductionNo = 1
	colPartsName    = 2
	colLocation     = 3
	colPartsNo      = 4
	colQuantity     = 5
	colOrderSlipNo  = 6
)

var exportHeaders = []string{
	"製番", "部品No", "品名", "図番", "発注伝票No",
	"納入残数", "保管場所", "納期", "ステータス", "持ち出し先", "持ち出し日時",
}

// ImportResult 取り込み結果。行単位の失敗は処理を止めず報告する。
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportService 部品一覧の取り込みと書き出し
type ImportService struct {
	partRepo *repository.PartRepository
	mapSvc   *MapService
	logger   *zap.Logger
}

func NewImportService(repos *repository.Repositories, mapSvc *MapService, logger *zap.Logger) *ImportService {
	return &ImportService{partRepo: repos.Part, mapSvc: mapSvc, logger: logger}
}

// ImportCSV CSVから部品を取り込む。先頭行はヘッダとして読み飛ばす。
func (s *ImportService) ImportCSV(ctx context.Context, r io.Reader, operator string) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("CSVの解析に失敗: %w", err)
	}
	return s.importRows(ctx, rows, operator)
}

// ImportExcel Excelの先頭シートから部品を取り込む。列構成はCSVと同じ。
func (s *ImportService) ImportExcel(ctx context.Context, f *excelize.File, operator string) (*ImportResult, error) {
	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("シートの読み取りに失敗: %w", err)
	}
	return s.importRows(ctx, rows, operator)
}

func (s *ImportService) importRows(ctx context.Context, rows [][]string, operator string) (*ImportResult, error) {
	result := &ImportResult{}
	if len(rows) <= 1 {
		return result, nil
	}

	for i, row := range rows[1:] {
		rowNo := i + 2 // 1始まり + ヘッダ行

		cell := func(idx int) string {
			if idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}

		productionNo := cell(colProductionNo)
		if productionNo == "" {
			result.Skipped++
			continue
		}

		now := time.Now()
		part := &entity.Part{
			ID:                uuid.New().String()[:32],
			ProductionNo:      productionNo,
			PartsName:         cell(colPartsName),
			StorageLocation:   cell(colLocation),
			PartsNo:           cell(colPartsNo),
			RemainingQuantity: atoiDefault(cell(colQuantity), 0),
			OrderSlipNo:       cell(colOrderSlipNo),
			Status:            entity.StatusInWarehouse,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if part.RemainingQuantity < 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("%d行目: 納入残数が負数", rowNo))
			continue
		}

		hist := newHistory(part, entity.ActionImport, 0, part.RemainingQuantity,
			"", part.StorageLocation, part.DeliveryDate, fmt.Sprintf("一覧取り込み %d行目", rowNo), operator)

		err := s.partRepo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(part).Error; err != nil {
				return err
			}
			return tx.Create(hist).Error
		})
		if err != nil {
			s.logger.Warn("取り込みに失敗した行をスキップ",
				zap.Int("row", rowNo), zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("%d行目: %v", rowNo, err))
			continue
		}
		result.Imported++
	}

	if result.Imported > 0 {
		s.mapSvc.InvalidateCache(ctx)
	}
	return result, nil
}

// ExportExcel 部品一覧をxlsxへ書き出す。ファイル名も併せて返す。
func (s *ImportService) ExportExcel(ctx context.Context, status string) (*excelize.File, string, error) {
	if status == "" {
		status = entity.StatusInWarehouse
	}
	if status != entity.StatusInWarehouse && status != entity.StatusMovedOut {
		return nil, "", ErrInvalidStatus
	}

	parts, err := s.partRepo.ListByStatus(ctx, status)
	if err != nil {
		return nil, "", fmt.Errorf("部品一覧の取得に失敗: %w", err)
	}

	f := excelize.NewFile()
	sheet := "部品一覧"
	f.SetSheetName("Sheet1", sheet)

	// ヘッダ: 太字 + 下線
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range exportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for rowIdx, part := range parts {
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), part.ProductionNo)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), part.PartsNo)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), part.PartsName)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), part.DrawingNo)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), part.OrderSlipNo)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), part.RemainingQuantity)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), part.StorageLocation)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), part.DeliveryDate)
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), part.Status)
		f.SetCellValue(sheet, fmt.Sprintf("J%d", row), part.MovedOutTo)
		if part.MovedOutAt != nil {
			f.SetCellValue(sheet, fmt.Sprintf("K%d", row), part.MovedOutAt.Format("2006-01-02 15:04:05"))
		}
	}

	colWidths := []float64{14, 14, 24, 12, 14, 10, 20, 12, 14, 14, 20}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("parts_%s_%s.xlsx", status, time.Now().Format("20060102_150405"))
	return f, filename, nil
}
