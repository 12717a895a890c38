package entity

import "time"

// 作業履歴のaction
const (
	ActionUpdate    = "update"     // 納入更新
	ActionMove      = "move"       // 移動
	ActionBulkMove  = "bulk_move"  // 一括移動
	ActionManualAdd = "manual_add" // 手動追加
	ActionDelete    = "delete"     // 削除
	ActionImport    = "import"     // 取り込み
)

// WorkHistory 作業履歴。追記専用で、更新も削除もしない。
// 部品本体が削除されても履歴は残るため、識別項目を非正規化して持つ。
type WorkHistory struct {
	ID     string `json:"id" gorm:"primaryKey;size:32"`
	PartID string `json:"part_id" gorm:"size:32;index"` // 削除済み部品を指すことがある

	ProductionNo string `json:"production_no" gorm:"size:50"`
	PartsNo      string `json:"parts_no" gorm:"size:50"`
	OrderSlipNo  string `json:"order_slip_no" gorm:"size:50"`

	Action string `json:"action" gorm:"size:20;not null;index"`

	PreviousQuantity     int    `json:"previous_quantity"`
	NewQuantity          int    `json:"new_quantity"`
	PreviousLocation     string `json:"previous_location" gorm:"size:255"`
	NewLocation          string `json:"new_location" gorm:"size:255"`
	PreviousDeliveryDate string `json:"previous_delivery_date" gorm:"size:20"`
	NewDeliveryDate      string `json:"new_delivery_date" gorm:"size:20"`

	Notes     string    `json:"notes" gorm:"type:text"`
	UpdatedBy string    `json:"updated_by" gorm:"size:50"`
	CreatedAt time.Time `json:"created_at"`
}

func (WorkHistory) TableName() string {
	return "work_history"
}
