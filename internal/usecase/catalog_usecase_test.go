package usecase

import (
	"context"
	"net/http"
	"testing"

	"revintel/internal/domain/model"
	gormrepo "revintel/internal/infra/repository"
	"revintel/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type catalogFixture struct {
	db        *gorm.DB
	products  *ProductUsecase
	customers *CustomerUsecase
	sales     *SaleUsecase
	audit     *AuditUsecase
	cache     *countingCache
}

func newCatalogFixture(t *testing.T) catalogFixture {
	t.Helper()
	gdb := testutil.OpenDB(t)
	tx := gormrepo.NewTxManagerGorm(gdb)
	clock := testutil.FixedClock{T: fixedNow}
	c := &countingCache{}

	return catalogFixture{
		db: gdb,
		products: NewProductUsecase(tx,
			gormrepo.NewProductGormRepository(gdb),
			gormrepo.NewInventoryGormRepository(gdb),
			c, clock, nil),
		customers: NewCustomerUsecase(tx,
			gormrepo.NewCustomerGormRepository(gdb),
			gormrepo.NewSaleQueryGormRepository(gdb),
			c, clock, nil),
		sales: NewSaleUsecase(tx, gormrepo.NewSaleGormRepository(gdb), c, clock, nil),
		audit: NewAuditUsecase(gormrepo.NewAuditLogGormRepository(gdb)),
		cache: c,
	}
}

func TestDiscountedPrice(t *testing.T) {
	assert.Equal(t, "90.00", DiscountedPrice(model.MustMoney("100.00"), DefaultDiscountPercent).StringFixed(2))
	assert.Equal(t, "13.49", DiscountedPrice(model.MustMoney("14.99"), 10).StringFixed(2))
	assert.Equal(t, "0.10", DiscountedPrice(model.MustMoney("1.00"), 90).StringFixed(2))
}

func TestCreateProduct_Validation(t *testing.T) {
	fx := newCatalogFixture(t)
	ctx := context.Background()

	_, err := fx.products.CreateProduct(ctx, AdminProductInput{Name: " ", Price: model.MustMoney("1.00")})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = fx.products.CreateProduct(ctx, AdminProductInput{Name: "Pen", Price: model.MustMoney("-1.00")})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = fx.products.CreateProduct(ctx, AdminProductInput{Name: "Pen", Price: model.MustMoney("1.005")})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = fx.products.CreateProduct(ctx, AdminProductInput{Name: "Pen", Price: model.MustMoney("1.00"), Stock: -1})
	requireStatus(t, err, http.StatusBadRequest)

	out, err := fx.products.CreateProduct(ctx, AdminProductInput{Name: " Pen ", Price: model.MustMoney("1.50"), Category: "Office", Stock: 3})
	require.NoError(t, err)
	assert.Equal(t, "Pen", out.Name)
	assert.Equal(t, model.StockStatusLow, out.StockStatus)
}

func TestUpdateProduct_AuditsPriceChangeOnly(t *testing.T) {
	fx := newCatalogFixture(t)
	ctx := context.Background()
	p := testutil.CreateProduct(t, fx.db, "Lamp", "20.00", "Home", 15)

	out, err := fx.products.UpdateProduct(ctx, 1, p.ID, AdminProductInput{Name: "Desk Lamp", Price: model.MustMoney("20.00"), Category: "Home"})
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", out.Name)
	// 在庫は変わらない
	assert.Equal(t, int64(15), out.Stock)

	_, err = fx.products.UpdateProduct(ctx, 1, p.ID, AdminProductInput{Name: "Desk Lamp", Price: model.MustMoney("22.50"), Category: "Home"})
	require.NoError(t, err)

	logs, err := fx.audit.ListAuditLogs(ctx, ListAuditLogsInput{Action: string(model.AuditActionUpdatePrice), Limit: 50})
	require.NoError(t, err)
	require.Equal(t, int64(1), logs.Total)
	assert.JSONEq(t, `{"price":"20.00"}`, logs.Items[0].BeforeJSON)
	assert.JSONEq(t, `{"price":"22.50"}`, logs.Items[0].AfterJSON)
}

func TestDiscountProduct(t *testing.T) {
	fx := newCatalogFixture(t)
	ctx := context.Background()
	p := testutil.CreateProduct(t, fx.db, "Kettle", "40.00", "Kitchen", 2)

	out, err := fx.products.DiscountProduct(ctx, 1, p.ID, 25)
	require.NoError(t, err)
	assert.Equal(t, "30.00", out.Price.StringFixed(2))
	assert.Equal(t, "30.00", testutil.ReloadProduct(t, fx.db, p.ID).Price.StringFixed(2))
	assert.Equal(t, int64(1), fx.cache.invalidations.Load())

	_, err = fx.products.DiscountProduct(ctx, 1, p.ID, 0)
	requireStatus(t, err, http.StatusBadRequest)
	_, err = fx.products.DiscountProduct(ctx, 1, p.ID, 91)
	requireStatus(t, err, http.StatusBadRequest)
	_, err = fx.products.DiscountProduct(ctx, 1, 999, 10)
	requireStatus(t, err, http.StatusNotFound)
}

func TestDeleteProduct_ReferencedBySales_Conflict(t *testing.T) {
	fx := newCatalogFixture(t)
	ctx := context.Background()
	c := testutil.CreateCustomer(t, fx.db, "Ana", "ana@example.com")
	used := testutil.CreateProduct(t, fx.db, "Used", "5.00", "", 5)
	unused := testutil.CreateProduct(t, fx.db, "Unused", "5.00", "", 5)

	_, err := fx.sales.CreateSale(ctx, 1, CreateSaleInput{CustomerID: c.ID, ProductID: used.ID, Quantity: 1})
	require.NoError(t, err)

	err = fx.products.DeleteProduct(ctx, 1, used.ID)
	requireStatus(t, err, http.StatusConflict)

	require.NoError(t, fx.products.DeleteProduct(ctx, 1, unused.ID))
	_, err = fx.products.GetProduct(ctx, unused.ID)
	requireStatus(t, err, http.StatusNotFound)
}

func TestListAdjustments_NewestFirst(t *testing.T) {
	fx := newCatalogFixture(t)
	ctx := context.Background()
	c := testutil.CreateCustomer(t, fx.db, "Ana", "ana@example.com")
	p := testutil.CreateProduct(t, fx.db, "Cup", "2.00", "", 10)

	s, err := fx.sales.CreateSale(ctx, 1, CreateSaleInput{CustomerID: c.ID, ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)
	_, err = fx.sales.UpdateSale(ctx, 1, s.ID, UpdateSaleInput{Quantity: 1})
	require.NoError(t, err)

	adjs, err := fx.products.ListAdjustments(ctx, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, adjs, 2)
	assert.Equal(t, int64(2), adjs[0].Delta)
	assert.Equal(t, model.AdjustmentReasonSaleUpdated, adjs[0].Reason)
	assert.Equal(t, int64(-3), adjs[1].Delta)
}

func TestCreateCustomer_DuplicateEmail_Conflict(t *testing.T) {
	fx := newCatalogFixture(t)
	ctx := context.Background()

	c, err := fx.customers.CreateCustomer(ctx, CustomerInput{Name: "Ana", Email: "Ana@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", c.Email)

	_, err = fx.customers.CreateCustomer(ctx, CustomerInput{Name: "Other", Email: "ana@example.com"})
	requireStatus(t, err, http.StatusConflict)

	_, err = fx.customers.CreateCustomer(ctx, CustomerInput{Name: "Bad", Email: "not-an-email"})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestUpdateCustomer_InvalidatesCache(t *testing.T) {
	fx := newCatalogFixture(t)
	ctx := context.Background()
	c := testutil.CreateCustomer(t, fx.db, "Ana", "ana@example.com")
	testutil.CreateCustomer(t, fx.db, "Bruno", "bruno@example.com")

	out, err := fx.customers.UpdateCustomer(ctx, c.ID, CustomerInput{Name: "Ana María", Email: "ana@example.com", Phone: "600111222"})
	require.NoError(t, err)
	assert.Equal(t, "Ana María", out.Name)
	assert.Equal(t, "600111222", out.Phone)
	assert.Equal(t, int64(1), fx.cache.invalidations.Load())

	_, err = fx.customers.UpdateCustomer(ctx, c.ID, CustomerInput{Name: "Ana", Email: "bruno@example.com"})
	requireStatus(t, err, http.StatusConflict)

	_, err = fx.customers.UpdateCustomer(ctx, 999, CustomerInput{Name: "X", Email: "x@example.com"})
	requireStatus(t, err, http.StatusNotFound)
}

func TestDeleteCustomer_CascadesSales(t *testing.T) {
	fx := newCatalogFixture(t)
	ctx := context.Background()
	ana := testutil.CreateCustomer(t, fx.db, "Ana", "ana@example.com")
	bruno := testutil.CreateCustomer(t, fx.db, "Bruno", "bruno@example.com")
	p := testutil.CreateProduct(t, fx.db, "Cup", "2.00", "", 10)

	for _, id := range []int64{ana.ID, ana.ID, bruno.ID} {
		_, err := fx.sales.CreateSale(ctx, 1, CreateSaleInput{CustomerID: id, ProductID: p.ID, Quantity: 1})
		require.NoError(t, err)
	}

	require.NoError(t, fx.customers.DeleteCustomer(ctx, 5, ana.ID))

	var n int64
	require.NoError(t, fx.db.Model(&model.Sale{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
	// 在庫は戻さない
	assert.Equal(t, int64(7), testutil.ReloadProduct(t, fx.db, p.ID).Stock)

	logs, err := fx.audit.ListAuditLogs(ctx, ListAuditLogsInput{ResourceType: string(model.AuditResourceCustomer), Limit: 10})
	require.NoError(t, err)
	require.Len(t, logs.Items, 1)
	assert.Equal(t, int64(5), logs.Items[0].ActorUserID)
	assert.Contains(t, logs.Items[0].BeforeJSON, `"deleted_sales":2`)

	err = fx.customers.DeleteCustomer(ctx, 5, ana.ID)
	requireStatus(t, err, http.StatusNotFound)
}

func TestCustomerStats(t *testing.T) {
	fx := newCatalogFixture(t)
	ctx := context.Background()
	ana := testutil.CreateCustomer(t, fx.db, "Ana", "ana@example.com")
	idle := testutil.CreateCustomer(t, fx.db, "Idle", "idle@example.com")
	p := testutil.CreateProduct(t, fx.db, "Cup", "2.50", "", 100)

	for _, qty := range []int64{1, 2, 3, 4, 5} {
		_, err := fx.sales.CreateSale(ctx, 1, CreateSaleInput{CustomerID: ana.ID, ProductID: p.ID, Quantity: qty})
		require.NoError(t, err)
	}

	st, err := fx.customers.CustomerStats(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), st.SalesCount)
	assert.Equal(t, "37.50", st.TotalSpent.StringFixed(2))
	assert.Equal(t, "7.50", st.AveragePurchase.StringFixed(2))
	assert.Equal(t, "active", st.Status)

	st, err = fx.customers.CustomerStats(ctx, idle.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.SalesCount)
	assert.Equal(t, "0.00", st.TotalSpent.StringFixed(2))
	assert.Equal(t, "inactive", st.Status)

	_, err = fx.customers.CustomerStats(ctx, 999)
	requireStatus(t, err, http.StatusNotFound)
}

func TestListAuditLogs_Validation(t *testing.T) {
	fx := newCatalogFixture(t)
	ctx := context.Background()

	_, err := fx.audit.ListAuditLogs(ctx, ListAuditLogsInput{Limit: 0})
	requireStatus(t, err, http.StatusBadRequest)
	_, err = fx.audit.ListAuditLogs(ctx, ListAuditLogsInput{Limit: 10, Action: "DROP_TABLE"})
	requireStatus(t, err, http.StatusBadRequest)
	_, err = fx.audit.ListAuditLogs(ctx, ListAuditLogsInput{Limit: 10, ResourceType: "order"})
	requireStatus(t, err, http.StatusBadRequest)

	out, err := fx.audit.ListAuditLogs(ctx, ListAuditLogsInput{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, out.Items)
}
