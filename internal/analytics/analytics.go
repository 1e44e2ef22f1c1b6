// Package analytics は絞り込み済みの売上行から集計を作る純粋関数群。
// DBには触らない。同じ行を渡せば何度呼んでも同じ結果になる。
package analytics

import (
	"sort"
	"strings"
	"time"

	"revintel/internal/repository"

	"github.com/shopspring/decimal"
)

// カテゴリ未設定の集計先
const UncategorizedLabel = "Uncategorized"

type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
)

func ParseGranularity(s string) (Granularity, bool) {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case "", GranularityDay:
		return GranularityDay, true
	case GranularityMonth:
		return GranularityMonth, true
	}
	return "", false
}

func (g Granularity) layout() string {
	if g == GranularityMonth {
		return "2006-01"
	}
	return "2006-01-02"
}

type KPIs struct {
	TotalSales     decimal.Decimal
	TotalOrders    int64
	AverageOrder   decimal.Decimal
	TotalCustomers int64
}

type PeriodBucket struct {
	Period string
	Total  decimal.Decimal
	Count  int64
}

type CategoryBucket struct {
	Category string
	Total    decimal.Decimal
	Count    int64
}

type CustomerRank struct {
	CustomerID   int64
	CustomerName string
	TotalSpent   decimal.Decimal
	OrderCount   int64
}

type ProductRank struct {
	ProductID    int64
	ProductName  string
	QuantitySold int64
	Revenue      decimal.Decimal
}

// 空なら全部0
func Summarize(rows []repository.SaleRow) KPIs {
	k := KPIs{TotalSales: decimal.Zero, AverageOrder: decimal.Zero}
	customers := make(map[int64]struct{})
	for _, r := range rows {
		k.TotalSales = k.TotalSales.Add(r.TotalPrice)
		k.TotalOrders++
		customers[r.CustomerID] = struct{}{}
	}
	k.TotalCustomers = int64(len(customers))
	if k.TotalOrders > 0 {
		k.AverageOrder = k.TotalSales.DivRound(decimal.NewFromInt(k.TotalOrders), 2)
	}
	return k
}

// 期間の昇順。sale_dateがゼロの行は落とす
func GroupByPeriod(rows []repository.SaleRow, g Granularity, loc *time.Location) []PeriodBucket {
	if loc == nil {
		loc = time.UTC
	}
	layout := g.layout()
	idx := make(map[string]int)
	out := []PeriodBucket{}
	for _, r := range rows {
		if r.SaleDate.IsZero() {
			continue
		}
		key := r.SaleDate.In(loc).Format(layout)
		i, ok := idx[key]
		if !ok {
			i = len(out)
			idx[key] = i
			out = append(out, PeriodBucket{Period: key, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(r.TotalPrice)
		out[i].Count++
	}
	// 書式が固定長なので文字列順＝時系列順
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// 売上の降順、同額はカテゴリ名の昇順
func GroupByCategory(rows []repository.SaleRow) []CategoryBucket {
	idx := make(map[string]int)
	out := []CategoryBucket{}
	for _, r := range rows {
		key := strings.TrimSpace(r.Category)
		if key == "" {
			key = UncategorizedLabel
		}
		i, ok := idx[key]
		if !ok {
			i = len(out)
			idx[key] = i
			out = append(out, CategoryBucket{Category: key, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(r.TotalPrice)
		out[i].Count++
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// 購入額の降順で上位limit件。同額は顧客IDの昇順
func RankCustomers(rows []repository.SaleRow, limit int) []CustomerRank {
	idx := make(map[int64]int)
	out := []CustomerRank{}
	for _, r := range rows {
		i, ok := idx[r.CustomerID]
		if !ok {
			i = len(out)
			idx[r.CustomerID] = i
			out = append(out, CustomerRank{CustomerID: r.CustomerID, CustomerName: r.CustomerName, TotalSpent: decimal.Zero})
		}
		out[i].TotalSpent = out[i].TotalSpent.Add(r.TotalPrice)
		out[i].OrderCount++
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].TotalSpent.Cmp(out[j].TotalSpent); c != 0 {
			return c > 0
		}
		return out[i].CustomerID < out[j].CustomerID
	})
	return truncate(out, limit)
}

// 売上額の降順で上位limit件。同額は商品名、商品IDの昇順
func RankProducts(rows []repository.SaleRow, limit int) []ProductRank {
	idx := make(map[int64]int)
	out := []ProductRank{}
	for _, r := range rows {
		i, ok := idx[r.ProductID]
		if !ok {
			i = len(out)
			idx[r.ProductID] = i
			out = append(out, ProductRank{ProductID: r.ProductID, ProductName: r.ProductName, Revenue: decimal.Zero})
		}
		out[i].Revenue = out[i].Revenue.Add(r.TotalPrice)
		out[i].QuantitySold += r.Quantity
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		if out[i].ProductName != out[j].ProductName {
			return out[i].ProductName < out[j].ProductName
		}
		return out[i].ProductID < out[j].ProductID
	})
	return truncate(out, limit)
}

// ceil(total / perPage)
func TotalPages(total int64, perPage int) int64 {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	p := int64(perPage)
	return (total + p - 1) / p
}

func truncate[T any](s []T, limit int) []T {
	if limit >= 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
