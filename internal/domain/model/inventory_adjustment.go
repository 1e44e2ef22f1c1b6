package model

import "time"

//在庫変動の履歴（売上の作成・数量変更で記録）

type InventoryAdjustment struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64     `gorm:"not null;index" json:"product_id"`
	SaleID      int64     `gorm:"not null;index" json:"sale_id"`
	ActorUserID int64     `gorm:"not null;index" json:"actor_user_id"`
	Delta       int64     `gorm:"not null" json:"delta"`
	Reason      string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

const (
	AdjustmentReasonSaleCreated = "sale_created"
	AdjustmentReasonSaleUpdated = "sale_updated"
)
