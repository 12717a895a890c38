package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/service"
)

// PartHandler 部品ワークフローの薄いHTTPアダプタ。
// バリデーションと履歴の追記はサービス側に寄せてある。
type PartHandler struct {
	svc *service.PartService
}

func NewPartHandler(svc *service.PartService) *PartHandler {
	return &PartHandler{svc: svc}
}

// List GET /parts?status=
func (h *PartHandler) List(c *gin.Context) {
	parts, err := h.svc.ListByStatus(c.Request.Context(), c.Query("status"))
	if err != nil {
		serviceError(c, err)
		return
	}
	Success(c, gin.H{"items": parts, "total": len(parts)})
}

// Search GET /parts/search?q=
func (h *PartHandler) Search(c *gin.Context) {
	parts, err := h.svc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		serviceError(c, err)
		return
	}
	Success(c, gin.H{"items": parts, "total": len(parts)})
}

// Get GET /parts/:id
func (h *PartHandler) Get(c *gin.Context) {
	detail, err := h.svc.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	Success(c, detail)
}

// Create POST /parts
func (h *PartHandler) Create(c *gin.Context) {
	var input service.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "パラメータ不正: "+err.Error())
		return
	}
	part, err := h.svc.Create(c.Request.Context(), &input, GetOperator(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	Created(c, part)
}

// Delete DELETE /parts/:id
func (h *PartHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), GetOperator(c)); err != nil {
		serviceError(c, err)
		return
	}
	Success(c, nil)
}

// Move POST /parts/:id/move
func (h *PartHandler) Move(c *gin.Context) {
	var input service.MoveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "パラメータ不正: "+err.Error())
		return
	}
	part, err := h.svc.Move(c.Request.Context(), c.Param("id"), &input, GetOperator(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	Success(c, part)
}

// Delivery POST /parts/:id/delivery
func (h *PartHandler) Delivery(c *gin.Context) {
	var input service.DeliveryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "パラメータ不正: "+err.Error())
		return
	}
	part, err := h.svc.UpdateDelivery(c.Request.Context(), c.Param("id"), &input, GetOperator(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	Success(c, part)
}

// BulkMoveInput 一括移動の入力
type BulkMoveInput struct {
	ProductionNo string `json:"production_no"`
	FromLocation string `json:"from_location"`
	ToLocation   string `json:"to_location"`
}

// BulkMove POST /parts/bulk-move
func (h *PartHandler) BulkMove(c *gin.Context) {
	var input BulkMoveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "パラメータ不正: "+err.Error())
		return
	}
	result, err := h.svc.BulkMoveByProduction(c.Request.Context(),
		input.ProductionNo, input.FromLocation, input.ToLocation, GetOperator(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	Success(c, result)
}

// SlipLocationInput 伝票単位の保管場所更新の入力
type SlipLocationInput struct {
	StorageLocation string `json:"storage_location"`
	Notes           string `json:"notes"`
}

// UpdateSlipLocation POST /order-slips/:slipNo/location
func (h *PartHandler) UpdateSlipLocation(c *gin.Context) {
	var input SlipLocationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "パラメータ不正: "+err.Error())
		return
	}
	result, err := h.svc.BulkUpdateBySlip(c.Request.Context(),
		c.Param("slipNo"), input.StorageLocation, input.Notes, GetOperator(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	Success(c, result)
}

// HistoryByPart GET /parts/:id/history
func (h *PartHandler) HistoryByPart(c *gin.Context) {
	items, err := h.svc.HistoryByPart(c.Request.Context(), c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	Success(c, gin.H{"items": items, "total": len(items)})
}

// History GET /history
func (h *PartHandler) History(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.History(c.Request.Context(), page, pageSize)
	if err != nil {
		serviceError(c, err)
		return
	}
	Success(c, gin.H{
		"items": items,
		"pagination": gin.H{
			"page":      page,
			"page_size": pageSize,
			"total":     total,
		},
	})
}

// ClearMovedOut DELETE /moved-out
func (h *PartHandler) ClearMovedOut(c *gin.Context) {
	purged, err := h.svc.ClearMovedOut(c.Request.Context(), GetOperator(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	Success(c, gin.H{"purged": purged})
}

// NormalizeLocations POST /admin/normalize-locations
func (h *PartHandler) NormalizeLocations(c *gin.Context) {
	result, err := h.svc.NormalizeLocations(c.Request.Context())
	if err != nil {
		serviceError(c, err)
		return
	}
	Success(c, result)
}
