// Package seed はYAMLのフィクスチャを売上台帳経由で投入する。
package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"revintel/internal/domain/model"
	"revintel/internal/usecase"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Fixtures struct {
	Customers []CustomerFixture `yaml:"customers"`
	Products  []ProductFixture  `yaml:"products"`
	Sales     []SaleFixture     `yaml:"sales"`
}

type CustomerFixture struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Phone string `yaml:"phone"`
}

type ProductFixture struct {
	Name     string `yaml:"name"`
	Price    string `yaml:"price"`
	Category string `yaml:"category"`
	Stock    int64  `yaml:"stock"`
}

// 顧客はemail、商品はnameで参照する
type SaleFixture struct {
	Customer string `yaml:"customer"`
	Product  string `yaml:"product"`
	Quantity int64  `yaml:"quantity"`
}

type Result struct {
	Customers int
	Products  int
	Sales     int
}

// 未知のキーはエラー
func Decode(r io.Reader) (Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		if err == io.EOF {
			return Fixtures{}, nil
		}
		return Fixtures{}, fmt.Errorf("decode fixtures: %w", err)
	}
	return fx, nil
}

type Seeder struct {
	customers *usecase.CustomerUsecase
	products  *usecase.ProductUsecase
	sales     *usecase.SaleUsecase
	log       *slog.Logger
}

func NewSeeder(
	customers *usecase.CustomerUsecase,
	products *usecase.ProductUsecase,
	sales *usecase.SaleUsecase,
	log *slog.Logger,
) *Seeder {
	return &Seeder{customers: customers, products: products, sales: sales, log: log}
}

// 顧客→商品→売上の順に投入する。売上は在庫チェックを通る
func (s *Seeder) Apply(ctx context.Context, fx Fixtures) (Result, error) {
	var res Result
	customerIDs := make(map[string]int64, len(fx.Customers))
	productIDs := make(map[string]int64, len(fx.Products))

	for i, c := range fx.Customers {
		created, err := s.customers.CreateCustomer(ctx, usecase.CustomerInput{Name: c.Name, Email: c.Email, Phone: c.Phone})
		if err != nil {
			return res, fmt.Errorf("customers[%d] %s: %w", i, c.Email, err)
		}
		customerIDs[created.Email] = created.ID
		res.Customers++
	}

	for i, p := range fx.Products {
		price, err := decimal.NewFromString(strings.TrimSpace(p.Price))
		if err != nil {
			return res, fmt.Errorf("products[%d] %s: invalid price %q", i, p.Name, p.Price)
		}
		created, err := s.products.CreateProduct(ctx, usecase.AdminProductInput{
			Name:     p.Name,
			Price:    model.NewMoney(price),
			Category: p.Category,
			Stock:    p.Stock,
		})
		if err != nil {
			return res, fmt.Errorf("products[%d] %s: %w", i, p.Name, err)
		}
		productIDs[created.Name] = created.ID
		res.Products++
	}

	for i, sf := range fx.Sales {
		customerID, ok := customerIDs[strings.ToLower(strings.TrimSpace(sf.Customer))]
		if !ok {
			return res, fmt.Errorf("sales[%d]: unknown customer %q", i, sf.Customer)
		}
		productID, ok := productIDs[strings.TrimSpace(sf.Product)]
		if !ok {
			return res, fmt.Errorf("sales[%d]: unknown product %q", i, sf.Product)
		}
		// CLIからなのでactorは0
		if _, err := s.sales.CreateSale(ctx, 0, usecase.CreateSaleInput{
			CustomerID: customerID,
			ProductID:  productID,
			Quantity:   sf.Quantity,
		}); err != nil {
			return res, fmt.Errorf("sales[%d]: %w", i, err)
		}
		res.Sales++
	}

	if s.log != nil {
		s.log.InfoContext(ctx, "seed applied",
			slog.Int("customers", res.Customers),
			slog.Int("products", res.Products),
			slog.Int("sales", res.Sales))
	}
	return res, nil
}
