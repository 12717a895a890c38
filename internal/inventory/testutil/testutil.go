package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/entity"
	"github.com/ko-matsushita2404/inventory-dashboard/internal/middleware"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// SetupTestDB はテスト専用のインメモリDBを作る。
// 共有キャッシュ付きの名前付きDSNにしないと、コネクションプール経由で
// 別々の空DBに繋がってしまう。
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// 共有インメモリDBは接続が全て閉じると消えるので1本に固定する
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&entity.Part{}, &entity.WorkHistory{}); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

// SetupRouter はテスト用のginルーターを作る
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Operator())
	return r
}

// DoRequest はテストルーターへJSONリクエストを投げる
func DoRequest(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse はレスポンスのJSONをmapへ展開する
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedPart は部品レコードを1件登録する
func SeedPart(t *testing.T, db *gorm.DB, p *entity.Part) *entity.Part {
	t.Helper()
	if p.ID == "" {
		p.ID = uuid.New().String()[:32]
	}
	if p.Status == "" {
		p.Status = entity.StatusInWarehouse
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("Failed to seed part: %v", err)
	}
	return p
}
