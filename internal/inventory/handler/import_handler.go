package handler

import (
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/service"
	"github.com/xuri/excelize/v2"
)

// ImportHandler 部品一覧の取り込みと書き出し
type ImportHandler struct {
	svc *service.ImportService
}

func NewImportHandler(svc *service.ImportService) *ImportHandler {
	return &ImportHandler{svc: svc}
}

// Import POST /parts/import
// multipartのfileフィールドで .csv / .xlsx を受け付ける。
func (h *ImportHandler) Import(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "ファイルをアップロードしてください")
		return
	}
	defer file.Close()

	operator := GetOperator(c)

	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".csv":
		result, err := h.svc.ImportCSV(c.Request.Context(), file, operator)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		Success(c, result)
	case ".xlsx":
		f, err := excelize.OpenReader(file)
		if err != nil {
			BadRequest(c, "Excelファイルを解析できません: "+err.Error())
			return
		}
		defer f.Close()
		result, err := h.svc.ImportExcel(c.Request.Context(), f, operator)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		Success(c, result)
	default:
		BadRequest(c, "CSVまたはxlsxのみ取り込めます")
	}
}

// Export GET /parts/export?status=
func (h *ImportHandler) Export(c *gin.Context) {
	f, filename, err := h.svc.ExportExcel(c.Request.Context(), c.Query("status"))
	if err != nil {
		serviceError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "書き出しに失敗: "+err.Error())
	}
}
