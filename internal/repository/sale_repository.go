package repository

import (
	"context"

	"revintel/internal/domain/model"
)

// 売上台帳の書き込み側。
type SaleRepository interface {
	FindByID(ctx context.Context, id int64) (model.Sale, error)

	// 行ロック（SELECT ... FOR UPDATE）付きで取得。tx内で使う。
	FindByIDForUpdate(ctx context.Context, id int64) (model.Sale, error)

	Create(ctx context.Context, s model.Sale) (model.Sale, error)

	// quantity / total_price / customer_id だけ更新。sale_dateは触らない。
	Update(ctx context.Context, s model.Sale) error

	Delete(ctx context.Context, id int64) error

	CountByProduct(ctx context.Context, productID int64) (int64, error)
	DeleteByCustomer(ctx context.Context, customerID int64) (int64, error)
}
