package repository

import (
	"context"

	"revintel/internal/domain/model"
)

type InventoryRepository interface {
	// 在庫が足りるときだけ減算。足りなければ false
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫戻し（数量を減らした更新）
	IncreaseStock(ctx context.Context, productID int64, qty int64) error

	// 変動履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error

	ListAdjustments(ctx context.Context, productID int64, limit int) ([]model.InventoryAdjustment, error)
}
