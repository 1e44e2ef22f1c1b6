package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// 集計で共通に使う絞り込み条件。
// 空のフィールドは条件なし。
type SaleFilter struct {
	DateFrom   *time.Time // この日の00:00以降
	DateTo     *time.Time // この日の翌日00:00より前
	Category   string     // 部分一致（大文字小文字無視）
	ProductID  *int64
	CustomerID *int64
	Search     string // 顧客名 OR 商品名の部分一致
}

// キャッシュキー用の正規化文字列
func (f SaleFilter) CacheKey() string {
	var b strings.Builder
	if f.DateFrom != nil {
		fmt.Fprintf(&b, "from=%d;", f.DateFrom.Unix())
	}
	if f.DateTo != nil {
		fmt.Fprintf(&b, "to=%d;", f.DateTo.Unix())
	}
	if f.Category != "" {
		fmt.Fprintf(&b, "cat=%q;", f.Category)
	}
	if f.ProductID != nil {
		fmt.Fprintf(&b, "product=%d;", *f.ProductID)
	}
	if f.CustomerID != nil {
		fmt.Fprintf(&b, "customer=%d;", *f.CustomerID)
	}
	if f.Search != "" {
		fmt.Fprintf(&b, "q=%q;", f.Search)
	}
	return b.String()
}

// 売上に顧客・商品を結合した1行。
type SaleRow struct {
	SaleID       int64           `json:"id"`
	SaleDate     time.Time       `json:"sale_date"`
	CustomerID   int64           `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Category     string          `json:"category"`
	Quantity     int64           `json:"quantity"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

// 集計用の読み取り専用リポジトリ。ロックは取らない。
type SaleQueryRepository interface {
	// 絞り込み済みの全行
	ListRows(ctx context.Context, f SaleFilter) ([]SaleRow, error)

	// 新しい順（sale_date DESC, id DESC）でページング
	PageRows(ctx context.Context, f SaleFilter, page, perPage int) ([]SaleRow, int64, error)
}
