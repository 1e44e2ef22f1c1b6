package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"revintel/internal/cache"
	"revintel/internal/domain/model"
	repo "revintel/internal/repository"

	"github.com/shopspring/decimal"
)

// 売上台帳。在庫の増減・合計金額・売上行の書き込みは必ず1つのtxで行う。
type SaleUsecase struct {
	tx    repo.TransactionManager
	sales repo.SaleRepository
	cache cache.AnalyticsCache
	clock Clock
	log   *slog.Logger
}

// DI
func NewSaleUsecase(
	tx repo.TransactionManager,
	sales repo.SaleRepository,
	c cache.AnalyticsCache,
	clock Clock,
	log *slog.Logger,
) *SaleUsecase {
	if c == nil {
		c = cache.NoopAnalyticsCache{}
	}
	return &SaleUsecase{tx: tx, sales: sales, cache: c, clock: clock, log: log}
}

type CreateSaleInput struct {
	CustomerID int64
	ProductID  int64
	Quantity   int64
}

type UpdateSaleInput struct {
	Quantity   int64
	CustomerID *int64 // nilなら変更なし
	ProductID  *int64 // 変更不可。違う値なら400
}

// round(price * qty, 2)
func LineTotal(price model.Money, qty int64) model.Money {
	return model.NewMoney(price.Mul(decimal.NewFromInt(qty)).Round(2))
}

func (u *SaleUsecase) GetSale(ctx context.Context, saleID int64) (model.Sale, error) {
	if saleID <= 0 {
		return model.Sale{}, NewHTTPError(http.StatusBadRequest, "invalid sale id")
	}
	s, err := u.sales.FindByID(ctx, saleID)
	if err != nil {
		return model.Sale{}, notFoundOr(err, "sale not found")
	}
	return s, nil
}

func (u *SaleUsecase) CreateSale(ctx context.Context, actorID int64, in CreateSaleInput) (model.Sale, error) {
	if in.CustomerID <= 0 {
		return model.Sale{}, NewHTTPError(http.StatusBadRequest, "invalid customer_id")
	}
	if in.ProductID <= 0 {
		return model.Sale{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return model.Sale{}, NewHTTPError(http.StatusBadRequest, "quantity must be >= 1")
	}

	var out model.Sale
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Customers().FindByID(ctx, in.CustomerID); err != nil {
			return notFoundOr(err, "customer not found")
		}
		if _, err := r.Products().FindByID(ctx, in.ProductID); err != nil {
			return notFoundOr(err, "product not found")
		}

		//在庫減算（足りないなら false）
		ok, err := r.Inventory().DecreaseStockIfEnough(ctx, in.ProductID, in.Quantity)
		if err != nil {
			return dbError(err)
		}
		if !ok {
			return NewHTTPError(http.StatusBadRequest, repo.ErrInsufficientStock.Error())
		}

		//行ロックを持った状態で価格を読む
		p, err := r.Products().FindByID(ctx, in.ProductID)
		if err != nil {
			return notFoundOr(err, "product not found")
		}

		s, err := r.Sales().Create(ctx, model.Sale{
			CustomerID: in.CustomerID,
			ProductID:  in.ProductID,
			Quantity:   in.Quantity,
			TotalPrice: LineTotal(p.Price, in.Quantity),
			SaleDate:   u.clock.Now().UTC(),
		})
		if err != nil {
			return dbError(err)
		}

		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   s.ProductID,
			SaleID:      s.ID,
			ActorUserID: actorID,
			Delta:       -in.Quantity,
			Reason:      model.AdjustmentReasonSaleCreated,
			CreatedAt:   u.clock.Now().UTC(),
		}); err != nil {
			return dbError(err)
		}

		if err := writeAudit(ctx, r, u.clock, actorID, model.AuditActionCreateSale, model.AuditResourceSale, s.ID, nil, s); err != nil {
			return err
		}

		out = s
		return nil
	})
	if err != nil {
		return model.Sale{}, err
	}

	u.invalidate(ctx)
	return out, nil
}

func (u *SaleUsecase) UpdateSale(ctx context.Context, actorID int64, saleID int64, in UpdateSaleInput) (model.Sale, error) {
	if saleID <= 0 {
		return model.Sale{}, NewHTTPError(http.StatusBadRequest, "invalid sale id")
	}
	if in.Quantity < 1 {
		return model.Sale{}, NewHTTPError(http.StatusBadRequest, "quantity must be >= 1")
	}
	if in.CustomerID != nil && *in.CustomerID <= 0 {
		return model.Sale{}, NewHTTPError(http.StatusBadRequest, "invalid customer_id")
	}

	var out model.Sale
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//commitまで売上行をロック
		s, err := r.Sales().FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return notFoundOr(err, "sale not found")
		}
		before := s

		if in.ProductID != nil && *in.ProductID != s.ProductID {
			return NewHTTPError(http.StatusBadRequest, "product cannot be changed")
		}
		if in.CustomerID != nil && *in.CustomerID != s.CustomerID {
			if _, err := r.Customers().FindByID(ctx, *in.CustomerID); err != nil {
				return notFoundOr(err, "customer not found")
			}
			s.CustomerID = *in.CustomerID
		}

		//差分だけ在庫を動かす
		diff := in.Quantity - s.Quantity
		switch {
		case diff > 0:
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, s.ProductID, diff)
			if err != nil {
				return dbError(err)
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, repo.ErrInsufficientStock.Error())
			}
		case diff < 0:
			if err := r.Inventory().IncreaseStock(ctx, s.ProductID, -diff); err != nil {
				return notFoundOr(err, "product not found")
			}
		}

		p, err := r.Products().FindByID(ctx, s.ProductID)
		if err != nil {
			return notFoundOr(err, "product not found")
		}
		s.Quantity = in.Quantity
		s.TotalPrice = LineTotal(p.Price, in.Quantity)

		if err := r.Sales().Update(ctx, s); err != nil {
			return notFoundOr(err, "sale not found")
		}

		if diff != 0 {
			if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
				ProductID:   s.ProductID,
				SaleID:      s.ID,
				ActorUserID: actorID,
				Delta:       -diff,
				Reason:      model.AdjustmentReasonSaleUpdated,
				CreatedAt:   u.clock.Now().UTC(),
			}); err != nil {
				return dbError(err)
			}
		}

		updated, err := r.Sales().FindByID(ctx, s.ID)
		if err != nil {
			return dbError(err)
		}
		if err := writeAudit(ctx, r, u.clock, actorID, model.AuditActionUpdateSale, model.AuditResourceSale, s.ID, before, updated); err != nil {
			return err
		}

		out = updated
		return nil
	})
	if err != nil {
		return model.Sale{}, err
	}

	u.invalidate(ctx)
	return out, nil
}

// 在庫は戻さない
func (u *SaleUsecase) DeleteSale(ctx context.Context, actorID int64, saleID int64) error {
	if saleID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid sale id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		s, err := r.Sales().FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return notFoundOr(err, "sale not found")
		}
		if err := r.Sales().Delete(ctx, saleID); err != nil {
			return notFoundOr(err, "sale not found")
		}
		return writeAudit(ctx, r, u.clock, actorID, model.AuditActionDeleteSale, model.AuditResourceSale, saleID, s, nil)
	})
	if err != nil {
		return err
	}

	u.invalidate(ctx)
	return nil
}

// キャッシュの失敗はログだけ
func (u *SaleUsecase) invalidate(ctx context.Context) {
	if err := u.cache.Invalidate(ctx); err != nil && u.log != nil {
		u.log.WarnContext(ctx, "analytics cache invalidate failed", slog.Any("err", err))
	}
}

// 監査ログを同じtxで残す。before/afterはJSON文字列
func writeAudit(
	ctx context.Context,
	r repo.TxRepos,
	clock Clock,
	actorID int64,
	action model.AuditAction,
	resource model.AuditResourceType,
	resourceID int64,
	before, after interface{},
) error {
	beforeJSON, err := toJSON(before)
	if err != nil {
		return err
	}
	afterJSON, err := toJSON(after)
	if err != nil {
		return err
	}
	if err := r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		ResourceType: resource,
		ResourceID:   resourceID,
		BeforeJSON:   beforeJSON,
		AfterJSON:    afterJSON,
		CreatedAt:    clock.Now().UTC(),
	}); err != nil {
		return dbError(err)
	}
	return nil
}

func toJSON(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal audit payload: %w", err)
	}
	return string(b), nil
}
