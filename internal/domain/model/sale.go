package model

import "time"

// 売上。total_priceは常に round(price * quantity, 2)。
type Sale struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID int64     `gorm:"not null;index" json:"customer_id"`
	ProductID  int64     `gorm:"not null;index" json:"product_id"`
	Quantity   int64     `gorm:"not null;check:chk_sales_quantity_positive,quantity >= 1" json:"quantity"`
	TotalPrice Money     `gorm:"type:decimal(12,2);not null" json:"total_price"`
	SaleDate   time.Time `gorm:"not null;index" json:"sale_date"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	//顧客削除で売上も消える。参照中の商品は消せない
	Customer *Customer `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Product  *Product  `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}
