package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/repository"
	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/service"
)

// Handlers ハンドラ集合
type Handlers struct {
	Part   *PartHandler
	Map    *MapHandler
	Import *ImportHandler
}

// NewHandlers ハンドラ集合を作成
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Part:   NewPartHandler(svc.Part),
		Map:    NewMapHandler(svc.Map),
		Import: NewImportHandler(svc.Import),
	}
}

// Response 共通レスポンス構造
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功レスポンス
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{Code: 0, Message: "success", Data: data})
}

// Created 作成成功レスポンス
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{Code: 0, Message: "success", Data: data})
}

// Error エラーレスポンス
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{Code: code, Message: message})
}

// BadRequest 入力エラー
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// NotFound 対象なし
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 業務ルール違反
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError サーバエラー
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// serviceError 業務エラーをHTTPレスポンスへ変換する。
// ストア起因の失敗はここで50000へ落とし、例外を上へ漏らさない。
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "部品が見つかりません")
	case errors.Is(err, service.ErrInsufficientQuantity):
		Conflict(c, err.Error())
	case errors.Is(err, service.ErrEmptySearchTerm),
		errors.Is(err, service.ErrProductionNoRequired),
		errors.Is(err, service.ErrLocationRequired),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidStatus):
		BadRequest(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetOperator 作業者識別子をコンテキストから取得
func GetOperator(c *gin.Context) string {
	return c.GetString("operator")
}

// GetPagination ページングパラメータの取得
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}
	return page, pageSize
}
