package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/service"
)

// MapHandler 在庫マップ
type MapHandler struct {
	svc *service.MapService
}

func NewMapHandler(svc *service.MapService) *MapHandler {
	return &MapHandler{svc: svc}
}

// WarehouseMap GET /warehouse/map
func (h *MapHandler) WarehouseMap(c *gin.Context) {
	m, err := h.svc.GetWarehouseMap(c.Request.Context())
	if err != nil {
		serviceError(c, err)
		return
	}
	Success(c, m)
}

// Locations GET /warehouse/locations
func (h *MapHandler) Locations(c *gin.Context) {
	groups, err := h.svc.GroupedLocations(c.Request.Context())
	if err != nil {
		serviceError(c, err)
		return
	}
	Success(c, gin.H{"items": groups, "total": len(groups)})
}
