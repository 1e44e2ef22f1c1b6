package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"revintel/internal/analytics"
	"revintel/internal/cache"
	"revintel/internal/domain/model"
	repo "revintel/internal/repository"
)

type CustomerUsecase struct {
	tx        repo.TransactionManager
	customers repo.CustomerRepository
	query     repo.SaleQueryRepository
	cache     cache.AnalyticsCache
	clock     Clock
	log       *slog.Logger
}

// DI
func NewCustomerUsecase(
	tx repo.TransactionManager,
	customers repo.CustomerRepository,
	query repo.SaleQueryRepository,
	c cache.AnalyticsCache,
	clock Clock,
	log *slog.Logger,
) *CustomerUsecase {
	if c == nil {
		c = cache.NoopAnalyticsCache{}
	}
	return &CustomerUsecase{tx: tx, customers: customers, query: query, cache: c, clock: clock, log: log}
}

type ListCustomersInput struct {
	Page  int
	Limit int
	Q     string
}

type CustomerListOutput struct {
	Items []model.Customer `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

type CustomerInput struct {
	Name  string
	Email string
	Phone string
}

// 顧客ごとの購入実績
type CustomerStatsOutput struct {
	CustomerID      int64       `json:"customer_id"`
	Name            string      `json:"name"`
	SalesCount      int64       `json:"sales_count"`
	TotalSpent      model.Money `json:"total_spent"`
	AveragePurchase model.Money `json:"average_purchase"`
	Status          string      `json:"status"`
}

func (u *CustomerUsecase) ListCustomers(ctx context.Context, in ListCustomersInput) (CustomerListOutput, error) {
	if in.Page < 1 {
		return CustomerListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return CustomerListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return CustomerListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}

	items, total, err := u.customers.List(ctx, repo.CustomerListQuery{Page: in.Page, Limit: in.Limit, Q: strings.TrimSpace(in.Q)})
	if err != nil {
		return CustomerListOutput{}, dbError(err)
	}
	return CustomerListOutput{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

func (u *CustomerUsecase) GetCustomer(ctx context.Context, id int64) (model.Customer, error) {
	if id <= 0 {
		return model.Customer{}, NewHTTPError(http.StatusBadRequest, "invalid customer id")
	}
	c, err := u.customers.FindByID(ctx, id)
	if err != nil {
		return model.Customer{}, notFoundOr(err, "customer not found")
	}
	return c, nil
}

func normalizeCustomerInput(in CustomerInput) (CustomerInput, error) {
	out := CustomerInput{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.ToLower(strings.TrimSpace(in.Email)),
		Phone: strings.TrimSpace(in.Phone),
	}
	if out.Name == "" {
		return out, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if len(out.Name) > 150 {
		return out, NewHTTPError(http.StatusBadRequest, "name too long")
	}
	if out.Email == "" || len(out.Email) > 254 {
		return out, NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if addr, err := mail.ParseAddress(out.Email); err != nil || addr.Address != out.Email {
		return out, NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if len(out.Phone) > 20 {
		return out, NewHTTPError(http.StatusBadRequest, "phone too long")
	}
	return out, nil
}

func (u *CustomerUsecase) CreateCustomer(ctx context.Context, in CustomerInput) (model.Customer, error) {
	n, err := normalizeCustomerInput(in)
	if err != nil {
		return model.Customer{}, err
	}
	c, err := u.customers.Create(ctx, model.Customer{Name: n.Name, Email: n.Email, Phone: n.Phone})
	if errors.Is(err, repo.ErrDuplicate) {
		return model.Customer{}, NewHTTPError(http.StatusConflict, "email already exists")
	}
	if err != nil {
		return model.Customer{}, dbError(err)
	}
	return c, nil
}

// 連絡先だけ変更できる
func (u *CustomerUsecase) UpdateCustomer(ctx context.Context, id int64, in CustomerInput) (model.Customer, error) {
	if id <= 0 {
		return model.Customer{}, NewHTTPError(http.StatusBadRequest, "invalid customer id")
	}
	n, err := normalizeCustomerInput(in)
	if err != nil {
		return model.Customer{}, err
	}
	err = u.customers.UpdateContact(ctx, model.Customer{ID: id, Name: n.Name, Email: n.Email, Phone: n.Phone})
	if errors.Is(err, repo.ErrDuplicate) {
		return model.Customer{}, NewHTTPError(http.StatusConflict, "email already exists")
	}
	if err != nil {
		return model.Customer{}, notFoundOr(err, "customer not found")
	}

	// 集計の顧客名が変わる
	u.invalidate(ctx)
	return u.GetCustomer(ctx, id)
}

type deletedCustomerSnapshot struct {
	Customer     model.Customer `json:"customer"`
	DeletedSales int64          `json:"deleted_sales"`
}

// 売上ごと削除する
func (u *CustomerUsecase) DeleteCustomer(ctx context.Context, actorID int64, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid customer id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Customers().FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "customer not found")
		}
		n, err := r.Sales().DeleteByCustomer(ctx, id)
		if err != nil {
			return dbError(err)
		}
		if err := r.Customers().Delete(ctx, id); err != nil {
			return notFoundOr(err, "customer not found")
		}
		return writeAudit(ctx, r, u.clock, actorID, model.AuditActionDeleteCustomer, model.AuditResourceCustomer, id,
			deletedCustomerSnapshot{Customer: c, DeletedSales: n}, nil)
	})
	if err != nil {
		return err
	}

	u.invalidate(ctx)
	return nil
}

// 集計エンジンを顧客で絞って使う
func (u *CustomerUsecase) CustomerStats(ctx context.Context, id int64) (CustomerStatsOutput, error) {
	c, err := u.GetCustomer(ctx, id)
	if err != nil {
		return CustomerStatsOutput{}, err
	}
	rows, err := u.query.ListRows(ctx, repo.SaleFilter{CustomerID: &id})
	if err != nil {
		return CustomerStatsOutput{}, dbError(err)
	}
	k := analytics.Summarize(rows)
	return CustomerStatsOutput{
		CustomerID:      c.ID,
		Name:            c.Name,
		SalesCount:      k.TotalOrders,
		TotalSpent:      model.NewMoney(k.TotalSales),
		AveragePurchase: model.NewMoney(k.AverageOrder),
		Status:          analytics.CustomerStatus(k.TotalOrders),
	}, nil
}

func (u *CustomerUsecase) invalidate(ctx context.Context) {
	if err := u.cache.Invalidate(ctx); err != nil && u.log != nil {
		u.log.WarnContext(ctx, "analytics cache invalidate failed", slog.Any("err", err))
	}
}
