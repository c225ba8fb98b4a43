package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appcatalog "github.com/Rmontilla83/saldobirras-pro/internal/application/catalog"
	appledger "github.com/Rmontilla83/saldobirras-pro/internal/application/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/application/apptest"
	apporder "github.com/Rmontilla83/saldobirras-pro/internal/application/order"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/identity"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/auth"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/config"
	"github.com/Rmontilla83/saldobirras-pro/internal/interfaces/http/dto"
	"github.com/Rmontilla83/saldobirras-pro/internal/interfaces/http/handler"
	"github.com/Rmontilla83/saldobirras-pro/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	e      *apptest.Engine
	engine *gin.Engine
	tokens *auth.JWTService
	tenant uuid.UUID
}

func newAPI(t *testing.T, limiter *middleware.RateLimiter) *apiFixture {
	t.Helper()
	e := apptest.New(t)
	sqlDB, err := e.DB.DB()
	require.NoError(t, err)

	tokens := auth.NewJWTService(config.JWTConfig{
		Secret:                "router-test-secret-long-enough-32chars",
		AccessTokenExpiration: time.Hour,
		Issuer:                "saldobirras",
	})
	engine, err := New(Deps{
		HTTP:          config.HTTPConfig{MaxBodySize: 1 << 20},
		Tokens:        tokens,
		Policy:        identity.NewPolicy(),
		PortalLimiter: limiter,
	}, Handlers{
		Transactions: handler.NewTransactionHandler(e.Processor, e.CustomerSvc),
		Customers:    handler.NewCustomerHandler(e.CustomerSvc, e.Reports),
		Orders:       handler.NewOrderHandler(e.Fulfillment),
		Catalog:      handler.NewCatalogHandler(e.Catalog),
		Reports:      handler.NewReportHandler(e.Reports),
		Portal:       handler.NewPortalHandler(e.CustomerSvc, e.Catalog, e.Fulfillment),
		Health:       handler.NewHealthHandler(sqlDB),
	})
	require.NoError(t, err)
	return &apiFixture{e: e, engine: engine, tokens: tokens, tenant: uuid.New()}
}

func (f *apiFixture) token(t *testing.T, tenant uuid.UUID, role identity.Role, perms ...identity.Permission) string {
	t.Helper()
	set := identity.PermissionSet{}
	for _, p := range perms {
		set[p] = true
	}
	tok, _, err := f.tokens.GenerateAccessToken(auth.GenerateTokenInput{
		TenantID:    tenant,
		UserID:      uuid.New(),
		Name:        "Ana",
		Role:        role,
		Permissions: set,
	})
	require.NoError(t, err)
	return tok
}

type call struct {
	method  string
	path    string
	body    any
	token   string
	headers map[string]string
}

func (f *apiFixture) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse[T] {
	t.Helper()
	var out handler.APIResponse[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out handler.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	require.NotNil(t, out.Error)
	return out.Error.Code
}

func TestHealth(t *testing.T) {
	f := newAPI(t, nil)
	w := f.do(t, call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestStaffRoutesRequireToken(t *testing.T) {
	f := newAPI(t, nil)
	for _, path := range []string{"/api/v1/customers", "/api/v1/transactions", "/api/v1/orders", "/api/v1/reports/dashboard"} {
		w := f.do(t, call{method: http.MethodGet, path: path})
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestTransactionRoutes(t *testing.T) {
	f := newAPI(t, nil)
	cust := f.e.Customer(t, f.tenant, "Ana", "20")
	cashier := f.token(t, f.tenant, identity.RoleCashier, identity.PermRecharge, identity.PermTransactions)

	t.Run("recharge with permission", func(t *testing.T) {
		w := f.do(t, call{method: http.MethodPost, path: "/api/v1/transactions", token: cashier, body: map[string]any{
			"customer_id": cust.ID,
			"type":        "recharge",
			"amount":      "5.50",
			"payment":     map[string]any{"method": "cash"},
		}})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		resp := decode[appledger.EntryResult](t, w)
		assert.True(t, resp.Success)
		assert.True(t, decimal.RequireFromString("25.50").Equal(resp.Data.NewBalance))
		assert.Equal(t, "recharge", resp.Data.Type)
	})

	t.Run("consume permission is resolved from the body", func(t *testing.T) {
		w := f.do(t, call{method: http.MethodPost, path: "/api/v1/transactions", token: cashier, body: map[string]any{
			"customer_id": cust.ID,
			"type":        "consume",
			"amount":      "1",
		}})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, w))
	})

	t.Run("unknown type is rejected before authorization", func(t *testing.T) {
		w := f.do(t, call{method: http.MethodPost, path: "/api/v1/transactions", token: cashier, body: map[string]any{
			"customer_id": cust.ID,
			"type":        "refund",
			"amount":      "1",
		}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("overdraw is refused", func(t *testing.T) {
		owner := f.token(t, f.tenant, identity.RoleOwner)
		w := f.do(t, call{method: http.MethodPost, path: "/api/v1/transactions", token: owner, body: map[string]any{
			"customer_id": cust.ID,
			"type":        "consume",
			"amount":      "100",
		}})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeInsufficientBalance, errorCode(t, w))
	})

	t.Run("list ledger", func(t *testing.T) {
		w := f.do(t, call{method: http.MethodGet, path: "/api/v1/transactions?customer_id=" + cust.ID.String(), token: cashier})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode[[]appledger.TransactionResponse](t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(2), resp.Meta.Total)
		assert.Len(t, resp.Data, 2)
	})

	t.Run("auditor may read but not write", func(t *testing.T) {
		auditor := f.token(t, f.tenant, identity.RoleAuditor, identity.PermTransactions, identity.PermRecharge)
		w := f.do(t, call{method: http.MethodGet, path: "/api/v1/transactions", token: auditor})
		assert.Equal(t, http.StatusOK, w.Code)

		w = f.do(t, call{method: http.MethodPost, path: "/api/v1/transactions", token: auditor, body: map[string]any{
			"customer_id": cust.ID,
			"type":        "recharge",
			"amount":      "1",
		}})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCustomerRoutes(t *testing.T) {
	f := newAPI(t, nil)
	owner := f.token(t, f.tenant, identity.RoleOwner)

	w := f.do(t, call{method: http.MethodPost, path: "/api/v1/customers", token: owner, body: map[string]any{
		"name":            "Luis",
		"initial_balance": "12",
		"pin":             "4321",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[appledger.CustomerResponse](t, w).Data
	assert.True(t, created.HasPIN)
	assert.NotEmpty(t, created.QRCode)

	path := "/api/v1/customers/" + created.ID.String()

	t.Run("other tenants cannot see the customer", func(t *testing.T) {
		stranger := f.token(t, uuid.New(), identity.RoleOwner)
		w := f.do(t, call{method: http.MethodGet, path: path, token: stranger})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("update profile", func(t *testing.T) {
		w := f.do(t, call{method: http.MethodPut, path: path, token: owner, body: map[string]any{"phone": "555-0101"}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "555-0101", decode[appledger.CustomerResponse](t, w).Data.Phone)
	})

	t.Run("reconciliation is balanced", func(t *testing.T) {
		w := f.do(t, call{method: http.MethodGet, path: path + "/reconciliation", token: owner})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var body struct {
			Data map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, true, body.Data["balanced"])
	})

	t.Run("deactivate", func(t *testing.T) {
		w := f.do(t, call{method: http.MethodPost, path: path + "/deactivate", token: owner})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.False(t, decode[appledger.CustomerResponse](t, w).Data.IsActive)
	})

	t.Run("bad id", func(t *testing.T) {
		w := f.do(t, call{method: http.MethodGet, path: "/api/v1/customers/not-a-uuid", token: owner})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPortalOrderFlow(t *testing.T) {
	f := newAPI(t, nil)
	cust := f.e.Customer(t, f.tenant, "Marta", "20")
	ipa := f.e.Product(t, f.tenant, "IPA", "4.50")
	portalHeaders := map[string]string{middleware.TenantHeaderKey: f.tenant.String()}

	w := f.do(t, call{method: http.MethodGet, path: "/api/v1/portal/lookup?token=" + cust.QRCode, headers: portalHeaders})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	lookup := decode[handler.PortalLookupResponse](t, w).Data
	assert.Equal(t, "Marta", lookup.Customer.Name)
	require.Len(t, lookup.Products, 1)

	orderBody := map[string]any{
		"token": cust.QRCode,
		"items": []map[string]any{{"product_id": ipa.ID, "quantity": 2}},
	}
	headers := map[string]string{
		middleware.TenantHeaderKey: f.tenant.String(),
		middleware.IdempotencyKey:  "order-1",
	}
	w = f.do(t, call{method: http.MethodPost, path: "/api/v1/portal/orders", headers: headers, body: orderBody})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	placed := decode[apporder.CreateOrderResult](t, w).Data
	assert.True(t, decimal.NewFromInt(9).Equal(placed.BalanceHeld))
	assert.True(t, decimal.NewFromInt(11).Equal(placed.Available))

	w = f.do(t, call{method: http.MethodPost, path: "/api/v1/portal/orders", headers: headers, body: orderBody})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeDuplicateRequest, errorCode(t, w))

	staff := f.token(t, f.tenant, identity.RoleCashier, identity.PermOrders)
	statusPath := "/api/v1/orders/" + placed.Order.ID.String() + "/status"

	w = f.do(t, call{method: http.MethodPut, path: statusPath, token: staff, body: map[string]string{"status": "delivered"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	advanced := decode[apporder.AdvanceResult](t, w).Data
	assert.Equal(t, "delivered", advanced.Order.Status)
	require.NotNil(t, advanced.NewBalance)
	assert.True(t, decimal.NewFromInt(11).Equal(*advanced.NewBalance))

	w = f.do(t, call{method: http.MethodPut, path: statusPath, token: staff, body: map[string]string{"status": "cancelled"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = f.do(t, call{method: http.MethodGet, path: "/api/v1/orders?status=delivered", token: staff})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]apporder.OrderResponse](t, w).Data, 1)

	stored := f.e.Reload(t, f.tenant, cust.ID)
	assert.True(t, decimal.NewFromInt(11).Equal(stored.Balance))
	assert.True(t, stored.BalanceHeld.IsZero())
}

func TestStaffOrderRoute(t *testing.T) {
	f := newAPI(t, nil)
	cust := f.e.Customer(t, f.tenant, "Marta", "20")
	stout := f.e.Product(t, f.tenant, "Stout", "6")
	body := map[string]any{
		"customer_id": cust.ID,
		"items":       []map[string]any{{"product_id": stout.ID, "quantity": 2}},
	}

	w := f.do(t, call{method: http.MethodPost, path: "/api/v1/orders", body: body,
		token: f.token(t, f.tenant, identity.RoleCashier, identity.PermRecharge)})
	assert.Equal(t, http.StatusForbidden, w.Code, "orders permission is required")

	staff := f.token(t, f.tenant, identity.RoleCashier, identity.PermOrders)
	w = f.do(t, call{method: http.MethodPost, path: "/api/v1/orders", token: staff, body: body})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	placed := decode[apporder.CreateOrderResult](t, w).Data
	assert.Equal(t, cust.ID, placed.Order.CustomerID)
	assert.True(t, decimal.NewFromInt(12).Equal(placed.BalanceHeld))

	w = f.do(t, call{method: http.MethodPost, path: "/api/v1/orders", token: staff, body: map[string]any{
		"customer_id": "not-a-uuid",
		"items":       []map[string]any{{"product_id": stout.ID, "quantity": 1}},
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, call{method: http.MethodPost, path: "/api/v1/orders", token: staff, body: map[string]any{
		"customer_id": uuid.New(),
		"items":       []map[string]any{{"product_id": stout.ID, "quantity": 1}},
	}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNew_RejectsInvalidTrustedProxies(t *testing.T) {
	_, err := New(Deps{HTTP: config.HTTPConfig{TrustedProxies: []string{"not-an-ip"}}}, Handlers{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trusted proxies")
}

func TestPortalTenantAndRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(2, time.Minute)
	t.Cleanup(limiter.Stop)
	f := newAPI(t, limiter)

	w := f.do(t, call{method: http.MethodGet, path: "/api/v1/portal/lookup?token=x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	headers := map[string]string{middleware.TenantHeaderKey: f.tenant.String()}
	w = f.do(t, call{method: http.MethodGet, path: "/api/v1/portal/lookup?token=SB-UNKNOWN", headers: headers})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, call{method: http.MethodGet, path: "/api/v1/portal/lookup?token=SB-UNKNOWN", headers: headers})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestCatalogRoutes(t *testing.T) {
	f := newAPI(t, nil)
	owner := f.token(t, f.tenant, identity.RoleOwner)
	viewer := f.token(t, f.tenant, identity.RoleCashier, identity.PermDashboard)

	w := f.do(t, call{method: http.MethodPost, path: "/api/v1/catalog/products", token: viewer, body: map[string]any{"name": "Stout", "price": "5"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, call{method: http.MethodPost, path: "/api/v1/catalog/products", token: owner, body: map[string]any{"name": "Stout", "price": "5"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := decode[appcatalog.ProductResponse](t, w).Data

	w = f.do(t, call{method: http.MethodPut, path: "/api/v1/catalog/products/" + product.ID.String(), token: owner, body: map[string]any{"is_available": false}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, call{method: http.MethodGet, path: "/api/v1/catalog/products?available=true", token: viewer})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]appcatalog.ProductResponse](t, w).Data)

	w = f.do(t, call{method: http.MethodPost, path: "/api/v1/catalog/zones", token: owner, body: map[string]any{"name": "Terraza", "color": "not-a-color"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w))

	w = f.do(t, call{method: http.MethodPost, path: "/api/v1/catalog/zones", token: owner, body: map[string]any{"name": "Terraza", "color": "#F5A623"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Terraza", decode[appcatalog.ZoneResponse](t, w).Data.Name)
}

func TestReportRoutes(t *testing.T) {
	f := newAPI(t, nil)
	f.e.Customer(t, f.tenant, "Ana", "5")
	stats := f.token(t, f.tenant, identity.RoleCashier, identity.PermStats, identity.PermExport)

	w := f.do(t, call{method: http.MethodGet, path: "/api/v1/reports/dashboard", token: stats})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var dash struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dash))
	assert.EqualValues(t, 1, dash.Data["customers"])

	today := time.Now().UTC().Format(time.DateOnly)
	w = f.do(t, call{method: http.MethodGet, path: "/api/v1/reports/transactions/export?from=" + today + "&to=" + today, token: stats})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	w = f.do(t, call{method: http.MethodGet, path: "/api/v1/reports/transactions/export", token: stats})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
