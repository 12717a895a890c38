package repository

import (
	"errors"

	"gorm.io/gorm"
)

// エラー定義
var (
	ErrNotFound = errors.New("record not found")
)

// Repositories リポジトリ集合
type Repositories struct {
	Part    *PartRepository
	History *WorkHistoryRepository
}

// NewRepositories リポジトリ集合を作成
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Part:    NewPartRepository(db),
		History: NewWorkHistoryRepository(db),
	}
}
