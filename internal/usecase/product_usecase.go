package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"revintel/internal/cache"
	"revintel/internal/domain/model"
	repo "revintel/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	DefaultDiscountPercent = 10
	maxDiscountPercent     = 90
)

type ProductUsecase struct {
	tx            repo.TransactionManager
	productRepo   repo.ProductRepository
	inventoryRepo repo.InventoryRepository
	cache         cache.AnalyticsCache
	clock         Clock
	log           *slog.Logger
}

// DI
func NewProductUsecase(
	tx repo.TransactionManager,
	productRepo repo.ProductRepository,
	inventoryRepo repo.InventoryRepository,
	c cache.AnalyticsCache,
	clock Clock,
	log *slog.Logger,
) *ProductUsecase {
	if c == nil {
		c = cache.NoopAnalyticsCache{}
	}
	return &ProductUsecase{
		tx:            tx,
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		cache:         c,
		clock:         clock,
		log:           log,
	}
}

type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	Category string
}

// 在庫ステータス付き
type ProductOutput struct {
	model.Product
	StockStatus string `json:"stock_status"`
}

type ProductListOutput struct {
	Items []ProductOutput `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func toProductOutput(p model.Product) ProductOutput {
	return ProductOutput{Product: p, StockStatus: p.StockStatus()}
}

func (u *ProductUsecase) ListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}

	items, total, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		Category: strings.TrimSpace(in.Category),
	})
	if err != nil {
		return ProductListOutput{}, dbError(err)
	}

	out := make([]ProductOutput, 0, len(items))
	for _, p := range items {
		out = append(out, toProductOutput(p))
	}
	return ProductListOutput{Items: out, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

func (u *ProductUsecase) GetProduct(ctx context.Context, productID int64) (ProductOutput, error) {
	if productID <= 0 {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	p, err := u.productRepo.FindByID(ctx, productID)
	if err != nil {
		return ProductOutput{}, notFoundOr(err, "product not found")
	}
	return toProductOutput(p), nil
}

type AdminProductInput struct {
	Name     string
	Price    model.Money
	Category string
	Stock    int64 // 作成時だけ使う
}

func validateProductInput(in AdminProductInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if len(name) > 200 {
		return NewHTTPError(http.StatusBadRequest, "name too long")
	}
	if in.Price.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if !in.Price.Equal(in.Price.Round(2)) {
		return NewHTTPError(http.StatusBadRequest, "price must have at most 2 decimals")
	}
	if len(strings.TrimSpace(in.Category)) > 100 {
		return NewHTTPError(http.StatusBadRequest, "category too long")
	}
	return nil
}

func (u *ProductUsecase) CreateProduct(ctx context.Context, in AdminProductInput) (ProductOutput, error) {
	if err := validateProductInput(in); err != nil {
		return ProductOutput{}, err
	}
	if in.Stock < 0 {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}

	p, err := u.productRepo.Create(ctx, model.Product{
		Name:     strings.TrimSpace(in.Name),
		Price:    in.Price,
		Category: strings.TrimSpace(in.Category),
		Stock:    in.Stock,
	})
	if err != nil {
		return ProductOutput{}, dbError(err)
	}
	return toProductOutput(p), nil
}

// name / price / category。在庫は売上台帳だけが動かす
func (u *ProductUsecase) UpdateProduct(ctx context.Context, actorID int64, productID int64, in AdminProductInput) (ProductOutput, error) {
	if productID <= 0 {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := validateProductInput(in); err != nil {
		return ProductOutput{}, err
	}

	var out model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if err != nil {
			return notFoundOr(err, "product not found")
		}

		if err := r.Products().Update(ctx, model.Product{
			ID:       productID,
			Name:     strings.TrimSpace(in.Name),
			Price:    in.Price,
			Category: strings.TrimSpace(in.Category),
		}); err != nil {
			return notFoundOr(err, "product not found")
		}

		after, err := r.Products().FindByID(ctx, productID)
		if err != nil {
			return dbError(err)
		}

		//価格が変わったときだけ残す
		if !before.Price.Equal(after.Price.Decimal) {
			if err := writeAudit(ctx, r, u.clock, actorID, model.AuditActionUpdatePrice, model.AuditResourceProduct, productID,
				priceSnapshot{Price: before.Price}, priceSnapshot{Price: after.Price}); err != nil {
				return err
			}
		}
		out = after
		return nil
	})
	if err != nil {
		return ProductOutput{}, err
	}
	//商品名とカテゴリは集計結果に出る
	u.invalidate(ctx)
	return toProductOutput(out), nil
}

type priceSnapshot struct {
	Price model.Money `json:"price"`
}

// 値下げ：price = round(price * (100 - pct) / 100, 2)
func DiscountedPrice(price model.Money, percent int) model.Money {
	factor := decimal.NewFromInt(int64(100 - percent)).Div(decimal.NewFromInt(100))
	return model.NewMoney(price.Mul(factor).Round(2))
}

func (u *ProductUsecase) DiscountProduct(ctx context.Context, actorID int64, productID int64, percent int) (ProductOutput, error) {
	if productID <= 0 {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if percent < 1 || percent > maxDiscountPercent {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "percent must be between 1 and 90")
	}

	var out model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if err != nil {
			return notFoundOr(err, "product not found")
		}
		newPrice := DiscountedPrice(p.Price, percent)
		if err := r.Products().UpdatePrice(ctx, productID, newPrice); err != nil {
			return notFoundOr(err, "product not found")
		}
		if err := writeAudit(ctx, r, u.clock, actorID, model.AuditActionUpdatePrice, model.AuditResourceProduct, productID,
			priceSnapshot{Price: p.Price}, priceSnapshot{Price: newPrice}); err != nil {
			return err
		}
		p.Price = newPrice
		out = p
		return nil
	})
	if err != nil {
		return ProductOutput{}, err
	}
	u.invalidate(ctx)
	return toProductOutput(out), nil
}

// 売上から参照されていれば409
func (u *ProductUsecase) DeleteProduct(ctx context.Context, actorID int64, productID int64) error {
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if err != nil {
			return notFoundOr(err, "product not found")
		}
		n, err := r.Sales().CountByProduct(ctx, productID)
		if err != nil {
			return dbError(err)
		}
		if n > 0 {
			return NewHTTPError(http.StatusConflict, "product is referenced by sales")
		}
		if err := r.Products().Delete(ctx, productID); err != nil {
			if errors.Is(err, repo.ErrReferenced) {
				return NewHTTPError(http.StatusConflict, "product is referenced by sales")
			}
			return notFoundOr(err, "product not found")
		}
		return writeAudit(ctx, r, u.clock, actorID, model.AuditActionDeleteProduct, model.AuditResourceProduct, productID, p, nil)
	})
	if err != nil {
		return err
	}
	u.invalidate(ctx)
	return nil
}

// 在庫変動の履歴（新しい順）
func (u *ProductUsecase) ListAdjustments(ctx context.Context, productID int64, limit int) ([]model.InventoryAdjustment, error) {
	if productID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if _, err := u.productRepo.FindByID(ctx, productID); err != nil {
		return nil, notFoundOr(err, "product not found")
	}
	adjs, err := u.inventoryRepo.ListAdjustments(ctx, productID, limit)
	if err != nil {
		return nil, dbError(err)
	}
	return adjs, nil
}

func (u *ProductUsecase) invalidate(ctx context.Context) {
	if err := u.cache.Invalidate(ctx); err != nil && u.log != nil {
		u.log.WarnContext(ctx, "analytics cache invalidate failed", slog.Any("err", err))
	}
}
