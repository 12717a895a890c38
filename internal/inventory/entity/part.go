package entity

import "time"

// 在庫ステータス
const (
	StatusInWarehouse = "in_warehouse" // 倉庫内
	StatusMovedOut    = "moved_out"    // 持ち出し済み
)

// Part 部品レコード。発注伝票単位で納入される部品1件分。
type Part struct {
	ID           string `json:"id" gorm:"primaryKey;size:32"`
	ProductionNo string `json:"production_no" gorm:"size:50;not null;index"`
	PartsNo      string `json:"parts_no" gorm:"size:50;index"`
	PartsName    string `json:"parts_name" gorm:"size:200"`
	DrawingNo    string `json:"drawing_no" gorm:"size:50"`
	OrderSlipNo  string `json:"order_slip_no" gorm:"size:50;index"`

	RemainingQuantity int `json:"remaining_quantity" gorm:"not null;default:0"` // 納入残数。負数は許さない

	// 旧スキーマでは在庫マップのHTML断片が混入していることがある。
	// 読み取り側は location.ExtractCodes で正規化してから扱う。
	StorageLocation string `json:"storage_location" gorm:"size:255"`
	DeliveryDate    string `json:"delivery_date" gorm:"size:20"`

	Status     string     `json:"status" gorm:"size:20;not null;default:'in_warehouse';index"`
	MovedOutTo string     `json:"moved_out_to" gorm:"size:100"`
	MovedOutAt *time.Time `json:"moved_out_at"`

	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Part) TableName() string {
	return "parts"
}
