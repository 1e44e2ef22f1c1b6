package model

import "time"

// 在庫ステータス
const (
	StockStatusOutOfStock = "out_of_stock"
	StockStatusLow        = "low"
	StockStatusOK         = "ok"
)

// 在庫がこれ未満なら low
const LowStockThreshold = 10

// 商品。stockは作成後、売上台帳だけが書き換える。
type Product struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(200);not null;index" json:"name"`
	Price     Money     `gorm:"type:decimal(10,2);not null" json:"price"`
	Category  string    `gorm:"type:varchar(100);not null;default:'';index" json:"category"`
	Stock     int64     `gorm:"not null;default:0;check:chk_products_stock_non_negative,stock >= 0" json:"stock"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (p Product) StockStatus() string {
	switch {
	case p.Stock <= 0:
		return StockStatusOutOfStock
	case p.Stock < LowStockThreshold:
		return StockStatusLow
	default:
		return StockStatusOK
	}
}
