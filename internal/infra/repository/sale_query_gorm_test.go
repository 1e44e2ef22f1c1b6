package repository

import (
	"context"
	"testing"
	"time"

	repo "revintel/internal/repository"
	"revintel/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func ptr(v int64) *int64 { return &v }

type queryFixture struct {
	db       *gorm.DB
	repo     *SaleQueryGormRepository
	ana      int64
	bruno    int64
	laptop   int64
	chair    int64
	discount int64
}

// Ana: Laptop(1/5), Chair(1/20)
// Bruno: Chair(1/31 23:59), "50% Off" (2/1 00:00)
func seedQueryFixture(t *testing.T) queryFixture {
	t.Helper()
	gdb := testutil.OpenDB(t)

	ana := testutil.CreateCustomer(t, gdb, "Ana Lopez", "ana@example.com")
	bruno := testutil.CreateCustomer(t, gdb, "Bruno Diaz", "bruno@example.com")
	laptop := testutil.CreateProduct(t, gdb, "Laptop Pro", "1200.00", "Electronics", 10)
	chair := testutil.CreateProduct(t, gdb, "Office Chair", "149.90", "Furniture", 10)
	discount := testutil.CreateProduct(t, gdb, "50% Off Voucher", "5.00", "", 10)

	utc := func(s string) time.Time {
		v, err := time.Parse(time.RFC3339, s)
		require.NoError(t, err)
		return v
	}
	testutil.InsertSale(t, gdb, ana.ID, laptop.ID, 1, "1200.00", utc("2024-01-05T10:00:00Z"))
	testutil.InsertSale(t, gdb, ana.ID, chair.ID, 1, "149.90", utc("2024-01-20T09:00:00Z"))
	testutil.InsertSale(t, gdb, bruno.ID, chair.ID, 2, "299.80", utc("2024-01-31T23:59:59Z"))
	testutil.InsertSale(t, gdb, bruno.ID, discount.ID, 1, "5.00", utc("2024-02-01T00:00:00Z"))

	return queryFixture{
		db:       gdb,
		repo:     NewSaleQueryGormRepository(gdb),
		ana:      ana.ID,
		bruno:    bruno.ID,
		laptop:   laptop.ID,
		chair:    chair.ID,
		discount: discount.ID,
	}
}

func TestListRows_NoFilter_ReturnsAllJoined(t *testing.T) {
	fx := seedQueryFixture(t)

	rows, err := fx.repo.ListRows(context.Background(), repo.SaleFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 4)

	first := rows[0]
	assert.Equal(t, "Ana Lopez", first.CustomerName)
	assert.Equal(t, "Laptop Pro", first.ProductName)
	assert.Equal(t, "Electronics", first.Category)
	assert.Equal(t, int64(1), first.Quantity)
	assert.Equal(t, "1200.00", first.TotalPrice.StringFixed(2))
	assert.Equal(t, "", rows[3].Category)
}

func TestListRows_CategoryIsCaseInsensitiveSubstring(t *testing.T) {
	fx := seedQueryFixture(t)

	rows, err := fx.repo.ListRows(context.Background(), repo.SaleFilter{Category: "electro"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, fx.laptop, rows[0].ProductID)

	rows, err = fx.repo.ListRows(context.Background(), repo.SaleFilter{Category: "FURN"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestListRows_CaseInsensitiveMatchFoldsNonASCII(t *testing.T) {
	gdb := testutil.OpenDB(t)
	r := NewSaleQueryGormRepository(gdb)
	ctx := context.Background()

	ines := testutil.CreateCustomer(t, gdb, "INÉS MUÑOZ", "ines@example.com")
	tv := testutil.CreateProduct(t, gdb, "Télévision 4K", "499.00", "ÉLECTRONIQUE", 5)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	testutil.InsertSale(t, gdb, ines.ID, tv.ID, 1, "499.00", at)

	rows, err := r.ListRows(ctx, repo.SaleFilter{Category: "électro"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, tv.ID, rows[0].ProductID)

	rows, err = r.ListRows(ctx, repo.SaleFilter{Search: "inés muñoz"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = r.ListRows(ctx, repo.SaleFilter{Search: "TÉLÉ"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestListRows_DateBoundsAreInclusiveDays(t *testing.T) {
	fx := seedQueryFixture(t)

	rows, err := fx.repo.ListRows(context.Background(), repo.SaleFilter{
		DateFrom: day("2024-01-20"),
		DateTo:   day("2024-01-31"),
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// 終了日の23:59:59も含む
	assert.Equal(t, fx.bruno, rows[1].CustomerID)

	rows, err = fx.repo.ListRows(context.Background(), repo.SaleFilter{DateFrom: day("2024-02-01")})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, fx.discount, rows[0].ProductID)
}

func TestListRows_SearchMatchesCustomerOrProductName(t *testing.T) {
	fx := seedQueryFixture(t)

	rows, err := fx.repo.ListRows(context.Background(), repo.SaleFilter{Search: "bruno"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = fx.repo.ListRows(context.Background(), repo.SaleFilter{Search: "chair"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = fx.repo.ListRows(context.Background(), repo.SaleFilter{Search: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestListRows_SearchEscapesWildcards(t *testing.T) {
	fx := seedQueryFixture(t)

	rows, err := fx.repo.ListRows(context.Background(), repo.SaleFilter{Search: "50%"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, fx.discount, rows[0].ProductID)

	// "_" も1文字ワイルドカードにならない
	rows, err = fx.repo.ListRows(context.Background(), repo.SaleFilter{Search: "_"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestListRows_FiltersCombineWithAnd(t *testing.T) {
	fx := seedQueryFixture(t)

	rows, err := fx.repo.ListRows(context.Background(), repo.SaleFilter{
		CustomerID: ptr(fx.ana),
		ProductID:  ptr(fx.chair),
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "149.90", rows[0].TotalPrice.StringFixed(2))

	rows, err = fx.repo.ListRows(context.Background(), repo.SaleFilter{
		CustomerID: ptr(fx.ana),
		Category:   "voucher",
	})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestPageRows_NewestFirstWithTotal(t *testing.T) {
	fx := seedQueryFixture(t)

	rows, total, err := fx.repo.PageRows(context.Background(), repo.SaleFilter{}, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, rows, 3)
	assert.Equal(t, fx.discount, rows[0].ProductID)
	assert.True(t, !rows[0].SaleDate.Before(rows[1].SaleDate))
	assert.True(t, !rows[1].SaleDate.Before(rows[2].SaleDate))

	rows, total, err = fx.repo.PageRows(context.Background(), repo.SaleFilter{}, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, rows, 1)
	assert.Equal(t, fx.laptop, rows[0].ProductID)
}

func TestPageRows_TotalFollowsFilter(t *testing.T) {
	fx := seedQueryFixture(t)

	rows, total, err := fx.repo.PageRows(context.Background(), repo.SaleFilter{Search: "ana"}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, rows, 1)

	rows, total, err = fx.repo.PageRows(context.Background(), repo.SaleFilter{Search: "ana"}, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Empty(t, rows)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%electro%", likePattern("Electro"))
	assert.Equal(t, `%50\%%`, likePattern("50%"))
	assert.Equal(t, `%a\_b%`, likePattern("a_b"))
	assert.Equal(t, `%c:\\tmp%`, likePattern(`C:\tmp`))
}
