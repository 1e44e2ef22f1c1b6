package repository

import (
	"context"

	"revintel/internal/domain/model"
)

// 顧客一覧の検索条件
type CustomerListQuery struct {
	Page  int
	Limit int
	Q     string // name / email
}

type CustomerRepository interface {
	List(ctx context.Context, q CustomerListQuery) ([]model.Customer, int64, error)
	FindByID(ctx context.Context, id int64) (model.Customer, error)
	Create(ctx context.Context, c model.Customer) (model.Customer, error)

	// 連絡先（name / email / phone）だけ更新
	UpdateContact(ctx context.Context, c model.Customer) error

	// 売上ごと削除する。売上の削除は呼び出し側のtxで先に行う。
	Delete(ctx context.Context, id int64) error
}
