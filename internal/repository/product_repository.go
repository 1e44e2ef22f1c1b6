package repository

import (
	"context"

	"revintel/internal/domain/model"
)

// 一覧検索
type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	Category string
}

// 商品の永続化。stockはここでは書き換えない（InventoryRepositoryだけ）。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	// name / price / category
	Update(ctx context.Context, p model.Product) error
	UpdatePrice(ctx context.Context, id int64, price model.Money) error
	Delete(ctx context.Context, id int64) error
}
