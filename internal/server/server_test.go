package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"revintel/internal/domain/model"
	"revintel/internal/handler"
	infraRepo "revintel/internal/infra/repository"
	"revintel/internal/testutil"
	"revintel/internal/usecase"
	auth "revintel/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	testSecret   = "test-secret-test-secret-test-secret"
	testPassword = "CorrectHorse42!"
)

type testServer struct {
	e  *echo.Echo
	db *gorm.DB
}

// cmd/api の serve と同じ組み立てをsqliteで行う
func newTestServer(t *testing.T) testServer {
	t.Helper()
	gdb := testutil.OpenDB(t)

	txm := infraRepo.NewTxManagerGorm(gdb)
	queryRepo := infraRepo.NewSaleQueryGormRepository(gdb)
	userRepo := infraRepo.NewUserGormRepository(gdb)
	clock := usecase.SystemClock{}

	analytics := usecase.NewAnalyticsUsecase(queryRepo, nil, time.Minute, time.UTC, nil)
	loginUC := auth.NewLoginUsecase(userRepo, auth.NewBcryptPasswordVerifier(), auth.NewJWTIssuer(testSecret, 15*time.Minute), clock)

	createUser := auth.NewCreateUserUsecase(userRepo, auth.NewBcryptPasswordHasher(bcrypt.MinCost))
	for _, u := range []struct {
		email string
		role  model.Role
	}{
		{"admin@example.com", model.RoleAdmin},
		{"manager@example.com", model.RoleManager},
		{"analyst@example.com", model.RoleAnalyst},
	} {
		_, err := createUser.Execute(context.Background(), auth.CreateUserInput{Email: u.email, Password: testPassword, Role: u.role})
		require.NoError(t, err)
	}

	e := New(Options{JWTSecret: testSecret, FEURL: "http://localhost:5173"}, Handlers{
		Auth:          handler.NewAuthHandler(loginUC),
		Analytics:     handler.NewAnalyticsHandler(analytics),
		Report:        handler.NewReportHandler(analytics),
		AdminCustomer: handler.NewAdminCustomerHandler(usecase.NewCustomerUsecase(txm, infraRepo.NewCustomerGormRepository(gdb), queryRepo, nil, clock, nil)),
		AdminProduct:  handler.NewAdminProductHandler(usecase.NewProductUsecase(txm, infraRepo.NewProductGormRepository(gdb), infraRepo.NewInventoryGormRepository(gdb), nil, clock, nil)),
		AdminSale:     handler.NewAdminSaleHandler(usecase.NewSaleUsecase(txm, infraRepo.NewSaleGormRepository(gdb), nil, clock, nil)),
		AdminAudit:    handler.NewAdminAuditHandler(usecase.NewAuditUsecase(infraRepo.NewAuditLogGormRepository(gdb))),
	})
	return testServer{e: e, db: gdb}
}

func (s testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s testServer) login(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out auth.LoginOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token.AccessToken)
	return out.Token.AccessToken
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestLogin_WrongPassword_Unauthorized(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "admin@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "admin@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutes_RoleGuards(t *testing.T) {
	s := newTestServer(t)
	analyst := s.login(t, "analyst@example.com")
	manager := s.login(t, "manager@example.com")
	admin := s.login(t, "admin@example.com")

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/admin/products", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/admin/products", analyst, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/admin/products", manager, nil).Code)

	// 監査ログはadminだけ
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/admin/audit-logs", manager, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/admin/audit-logs", admin, nil).Code)

	// 集計APIは認証なし
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/sales/kpis", "", nil).Code)
}

func TestLedgerFlow_ThroughHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@example.com")

	rec := s.do(t, http.MethodPost, "/admin/customers", admin, map[string]string{"name": "Ana", "email": "ana@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	customer := decode[model.Customer](t, rec)

	rec = s.do(t, http.MethodPost, "/admin/products", admin, map[string]interface{}{
		"name": "Mug", "price": "10.00", "category": "Kitchen", "stock": 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	product := decode[usecase.ProductOutput](t, rec)
	assert.Equal(t, model.StockStatusLow, product.StockStatus)

	// 作成：2個 → 在庫3 / 20.00
	rec = s.do(t, http.MethodPost, "/admin/sales", admin, map[string]int64{
		"customer_id": customer.ID, "product_id": product.ID, "quantity": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sale := decode[model.Sale](t, rec)
	assert.Equal(t, "20.00", sale.TotalPrice.StringFixed(2))
	assert.Equal(t, int64(3), testutil.ReloadProduct(t, s.db, product.ID).Stock)

	salePath := "/admin/sales/" + strconv.FormatInt(sale.ID, 10)

	// 更新：4個 → 在庫1 / 40.00
	rec = s.do(t, http.MethodPut, salePath, admin, map[string]int64{"quantity": 4})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "40.00", decode[model.Sale](t, rec).TotalPrice.StringFixed(2))
	assert.Equal(t, int64(1), testutil.ReloadProduct(t, s.db, product.ID).Stock)

	// 10個は在庫不足
	rec = s.do(t, http.MethodPut, salePath, admin, map[string]int64{"quantity": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"insufficient stock"}`, rec.Body.String())
	assert.Equal(t, int64(1), testutil.ReloadProduct(t, s.db, product.ID).Stock)

	// 集計に反映される
	rec = s.do(t, http.MethodGet, "/api/sales/kpis", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_sales":"40.00","total_orders":1,"average_order":"40.00","total_customers":1}`, rec.Body.String())

	// 参照中の商品は消せない
	rec = s.do(t, http.MethodDelete, "/admin/products/"+strconv.FormatInt(product.ID, 10), admin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// 削除しても在庫は戻らない
	rec = s.do(t, http.MethodDelete, salePath, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), testutil.ReloadProduct(t, s.db, product.ID).Stock)

	rec = s.do(t, http.MethodGet, "/admin/audit-logs?resource_type=sale", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	logs := decode[usecase.AuditLogListOutput](t, rec)
	require.Equal(t, int64(3), logs.Total)
	assert.Equal(t, model.AuditActionDeleteSale, logs.Items[0].Action)
	assert.Equal(t, model.AuditActionCreateSale, logs.Items[2].Action)
}

func TestDiscountProduct_DefaultPercent(t *testing.T) {
	s := newTestServer(t)
	manager := s.login(t, "manager@example.com")
	p := testutil.CreateProduct(t, s.db, "Kettle", "40.00", "Kitchen", 20)

	rec := s.do(t, http.MethodPost, "/admin/products/"+strconv.FormatInt(p.ID, 10)+"/discount", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[usecase.ProductOutput](t, rec)
	assert.Equal(t, "36.00", out.Price.StringFixed(2))
	assert.Equal(t, model.StockStatusOK, out.StockStatus)
}

func TestCORS_AllowsFrontend(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/sales/kpis", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
