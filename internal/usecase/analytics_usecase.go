package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"revintel/internal/analytics"
	"revintel/internal/cache"
	"revintel/internal/domain/model"
	repo "revintel/internal/repository"
)

const (
	DefaultRankLimit = 10
	MaxRankLimit     = 100
	DefaultPerPage   = 25
	MaxPerPage       = 100
)

// 集計API。読み取りだけでロックは取らない。
type AnalyticsUsecase struct {
	query repo.SaleQueryRepository
	cache cache.AnalyticsCache
	ttl   time.Duration
	loc   *time.Location
	log   *slog.Logger
}

// DI
func NewAnalyticsUsecase(
	query repo.SaleQueryRepository,
	c cache.AnalyticsCache,
	ttl time.Duration,
	loc *time.Location,
	log *slog.Logger,
) *AnalyticsUsecase {
	if c == nil {
		c = cache.NoopAnalyticsCache{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AnalyticsUsecase{query: query, cache: c, ttl: ttl, loc: loc, log: log}
}

type KPIOutput struct {
	TotalSales     model.Money `json:"total_sales"`
	TotalOrders    int64       `json:"total_orders"`
	AverageOrder   model.Money `json:"average_order"`
	TotalCustomers int64       `json:"total_customers"`
}

type PeriodOutput struct {
	Period string      `json:"period"`
	Total  model.Money `json:"total"`
	Count  int64       `json:"count"`
}

type CategoryOutput struct {
	Category string      `json:"category"`
	Total    model.Money `json:"total"`
	Count    int64       `json:"count"`
}

type TopCustomerOutput struct {
	CustomerID   int64       `json:"customer_id"`
	CustomerName string      `json:"customer_name"`
	TotalSpent   model.Money `json:"total_spent"`
	OrderCount   int64       `json:"order_count"`
}

type ProductSalesOutput struct {
	ProductID    int64       `json:"product_id"`
	ProductName  string      `json:"product_name"`
	QuantitySold int64       `json:"quantity_sold"`
	Revenue      model.Money `json:"revenue"`
}

type SaleListItem struct {
	ID           int64       `json:"id"`
	SaleDate     time.Time   `json:"sale_date"`
	CustomerID   int64       `json:"customer_id"`
	CustomerName string      `json:"customer_name"`
	ProductID    int64       `json:"product_id"`
	ProductName  string      `json:"product_name"`
	Category     string      `json:"category"`
	Quantity     int64       `json:"quantity"`
	TotalPrice   model.Money `json:"total_price"`
}

type SaleListOutput struct {
	Data       []SaleListItem `json:"data"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page"`
	TotalPages int64          `json:"total_pages"`
}

// 絞り込み条件のチェック
func ValidateSaleFilter(f repo.SaleFilter) error {
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return NewHTTPError(http.StatusBadRequest, "date_from must be <= date_to")
	}
	if f.ProductID != nil && *f.ProductID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product")
	}
	if f.CustomerID != nil && *f.CustomerID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid customer")
	}
	if len(f.Category) > 100 {
		return NewHTTPError(http.StatusBadRequest, "category too long")
	}
	if len(f.Search) > 200 {
		return NewHTTPError(http.StatusBadRequest, "search too long")
	}
	return nil
}

func (u *AnalyticsUsecase) KPIs(ctx context.Context, f repo.SaleFilter) (KPIOutput, error) {
	if err := ValidateSaleFilter(f); err != nil {
		return KPIOutput{}, err
	}
	return cached(ctx, u, "kpis", f, "", func(rows []repo.SaleRow) KPIOutput {
		k := analytics.Summarize(rows)
		return KPIOutput{
			TotalSales:     model.NewMoney(k.TotalSales),
			TotalOrders:    k.TotalOrders,
			AverageOrder:   model.NewMoney(k.AverageOrder),
			TotalCustomers: k.TotalCustomers,
		}
	})
}

func (u *AnalyticsUsecase) ByPeriod(ctx context.Context, f repo.SaleFilter, groupBy string) ([]PeriodOutput, error) {
	if err := ValidateSaleFilter(f); err != nil {
		return nil, err
	}
	g, ok := analytics.ParseGranularity(groupBy)
	if !ok {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid group_by")
	}
	return cached(ctx, u, "by-period", f, string(g), func(rows []repo.SaleRow) []PeriodOutput {
		buckets := analytics.GroupByPeriod(rows, g, u.loc)
		out := make([]PeriodOutput, 0, len(buckets))
		for _, b := range buckets {
			out = append(out, PeriodOutput{Period: b.Period, Total: model.NewMoney(b.Total), Count: b.Count})
		}
		return out
	})
}

func (u *AnalyticsUsecase) ByCategory(ctx context.Context, f repo.SaleFilter) ([]CategoryOutput, error) {
	if err := ValidateSaleFilter(f); err != nil {
		return nil, err
	}
	return cached(ctx, u, "by-category", f, "", func(rows []repo.SaleRow) []CategoryOutput {
		buckets := analytics.GroupByCategory(rows)
		out := make([]CategoryOutput, 0, len(buckets))
		for _, b := range buckets {
			out = append(out, CategoryOutput{Category: b.Category, Total: model.NewMoney(b.Total), Count: b.Count})
		}
		return out
	})
}

func (u *AnalyticsUsecase) TopCustomers(ctx context.Context, f repo.SaleFilter, limit int) ([]TopCustomerOutput, error) {
	if err := ValidateSaleFilter(f); err != nil {
		return nil, err
	}
	if limit < 1 || limit > MaxRankLimit {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	return cached(ctx, u, "top-customers", f, fmt.Sprint(limit), func(rows []repo.SaleRow) []TopCustomerOutput {
		ranks := analytics.RankCustomers(rows, limit)
		out := make([]TopCustomerOutput, 0, len(ranks))
		for _, r := range ranks {
			out = append(out, TopCustomerOutput{
				CustomerID:   r.CustomerID,
				CustomerName: r.CustomerName,
				TotalSpent:   model.NewMoney(r.TotalSpent),
				OrderCount:   r.OrderCount,
			})
		}
		return out
	})
}

func (u *AnalyticsUsecase) Products(ctx context.Context, f repo.SaleFilter, limit int) ([]ProductSalesOutput, error) {
	if err := ValidateSaleFilter(f); err != nil {
		return nil, err
	}
	if limit < 1 || limit > MaxRankLimit {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	return cached(ctx, u, "products", f, fmt.Sprint(limit), func(rows []repo.SaleRow) []ProductSalesOutput {
		ranks := analytics.RankProducts(rows, limit)
		out := make([]ProductSalesOutput, 0, len(ranks))
		for _, r := range ranks {
			out = append(out, ProductSalesOutput{
				ProductID:    r.ProductID,
				ProductName:  r.ProductName,
				QuantitySold: r.QuantitySold,
				Revenue:      model.NewMoney(r.Revenue),
			})
		}
		return out
	})
}

// 新しい順のページング。キャッシュしない
func (u *AnalyticsUsecase) List(ctx context.Context, f repo.SaleFilter, page, perPage int) (SaleListOutput, error) {
	if err := ValidateSaleFilter(f); err != nil {
		return SaleListOutput{}, err
	}
	if page < 1 {
		return SaleListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if perPage < 1 || perPage > MaxPerPage {
		return SaleListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid per_page")
	}

	rows, total, err := u.query.PageRows(ctx, f, page, perPage)
	if err != nil {
		return SaleListOutput{}, dbError(err)
	}

	data := make([]SaleListItem, 0, len(rows))
	for _, r := range rows {
		data = append(data, toSaleListItem(r))
	}
	return SaleListOutput{
		Data:       data,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: analytics.TotalPages(total, perPage),
	}, nil
}

// CSV出力用。新しい順
func (u *AnalyticsUsecase) ExportRows(ctx context.Context, f repo.SaleFilter) ([]SaleListItem, error) {
	if err := ValidateSaleFilter(f); err != nil {
		return nil, err
	}
	rows, err := u.query.ListRows(ctx, f)
	if err != nil {
		return nil, dbError(err)
	}
	out := make([]SaleListItem, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, toSaleListItem(rows[i]))
	}
	return out, nil
}

func (u *AnalyticsUsecase) Location() *time.Location {
	return u.loc
}

func toSaleListItem(r repo.SaleRow) SaleListItem {
	return SaleListItem{
		ID:           r.SaleID,
		SaleDate:     r.SaleDate.UTC(),
		CustomerID:   r.CustomerID,
		CustomerName: r.CustomerName,
		ProductID:    r.ProductID,
		ProductName:  r.ProductName,
		Category:     r.Category,
		Quantity:     r.Quantity,
		TotalPrice:   model.NewMoney(r.TotalPrice),
	}
}

// キャッシュを見て、なければ行を読んで集計する。
// キャッシュの失敗はログに残してDBから返す。
func cached[T any](
	ctx context.Context,
	u *AnalyticsUsecase,
	op string,
	f repo.SaleFilter,
	extra string,
	build func(rows []repo.SaleRow) T,
) (T, error) {
	// 世代は最初に一度だけ決める。途中で無効化されたら古い世代に書かれる
	key, err := u.cache.Key(ctx, op+":"+extra+":"+f.CacheKey())
	if err != nil {
		u.warn(ctx, "analytics cache key failed", err)
		key = ""
	}

	if key != "" {
		var hit T
		ok, err := u.cache.Get(ctx, key, &hit)
		if err != nil {
			u.warn(ctx, "analytics cache get failed", err)
		} else if ok {
			return hit, nil
		}
	}

	rows, err := u.query.ListRows(ctx, f)
	if err != nil {
		var zero T
		return zero, dbError(err)
	}
	out := build(rows)

	if key != "" {
		if err := u.cache.Set(ctx, key, out, u.ttl); err != nil {
			u.warn(ctx, "analytics cache set failed", err)
		}
	}
	return out, nil
}

func (u *AnalyticsUsecase) warn(ctx context.Context, msg string, err error) {
	if u.log != nil {
		u.log.WarnContext(ctx, msg, slog.Any("err", err))
	}
}
