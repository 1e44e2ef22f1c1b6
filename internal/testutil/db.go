// Package testutil はテスト用のDBとデータ作成をまとめる。
package testutil

import (
	"fmt"
	"testing"
	"time"

	"revintel/internal/domain/model"
	"revintel/internal/infra/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// テストごとに独立したインメモリsqlite（マイグレーション済み）
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	gdb, err := db.OpenSQLite(dsn, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

func CreateCustomer(t *testing.T, gdb *gorm.DB, name, email string) model.Customer {
	t.Helper()
	c := model.Customer{Name: name, Email: email}
	require.NoError(t, gdb.Create(&c).Error)
	return c
}

func CreateProduct(t *testing.T, gdb *gorm.DB, name, price, category string, stock int64) model.Product {
	t.Helper()
	p := model.Product{Name: name, Price: model.MustMoney(price), Category: category, Stock: stock}
	require.NoError(t, gdb.Create(&p).Error)
	return p
}

// 台帳を通さずに売上行を直接入れる（集計・絞り込みのテスト用）
func InsertSale(t *testing.T, gdb *gorm.DB, customerID, productID, qty int64, total string, at time.Time) model.Sale {
	t.Helper()
	s := model.Sale{
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   qty,
		TotalPrice: model.MustMoney(total),
		SaleDate:   at.UTC(),
	}
	require.NoError(t, gdb.Create(&s).Error)
	return s
}

func ReloadProduct(t *testing.T, gdb *gorm.DB, id int64) model.Product {
	t.Helper()
	var p model.Product
	require.NoError(t, gdb.First(&p, id).Error)
	return p
}

// 固定時刻の時計
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }
