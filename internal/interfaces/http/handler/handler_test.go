package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appledger "github.com/Rmontilla83/saldobirras-pro/internal/application/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/application/report"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/identity"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/Rmontilla83/saldobirras-pro/internal/interfaces/http/dto"
	"github.com/Rmontilla83/saldobirras-pro/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) Recharge(ctx context.Context, cmd appledger.RechargeCommand) (*appledger.EntryResult, error) {
	args := m.Called(ctx, cmd)
	if r := args.Get(0); r != nil {
		return r.(*appledger.EntryResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProcessor) Consume(ctx context.Context, cmd appledger.ConsumeCommand) (*appledger.EntryResult, error) {
	args := m.Called(ctx, cmd)
	if r := args.Get(0); r != nil {
		return r.(*appledger.EntryResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockReports struct {
	mock.Mock
}

func (m *mockReports) Dashboard(ctx context.Context, tenantID uuid.UUID, now time.Time) (*report.Dashboard, error) {
	args := m.Called(ctx, tenantID, now)
	if r := args.Get(0); r != nil {
		return r.(*report.Dashboard), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReports) ExportTransactions(ctx context.Context, tenantID uuid.UUID, req report.ExportRequest) (*report.ExportFile, error) {
	args := m.Called(ctx, tenantID, req)
	if r := args.Get(0); r != nil {
		return r.(*report.ExportFile), args.Error(1)
	}
	return nil, args.Error(1)
}

// asStaff installs a principal the way JWTAuth does
func asStaff(p *identity.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p != nil {
			c.Set(middleware.JWTPrincipalKey, p)
		}
		c.Next()
	}
}

func newPrincipal() *identity.Principal {
	return &identity.Principal{UserID: uuid.New(), TenantID: uuid.New(), Role: identity.RoleOwner}
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestTransactionHandler_Create(t *testing.T) {
	principal := newPrincipal()
	customerID := uuid.New()

	newRouter := func(p TransactionProcessor) *gin.Engine {
		r := gin.New()
		r.Use(middleware.RequestID(), asStaff(principal))
		r.POST("/transactions", NewTransactionHandler(p, nil).Create)
		return r
	}

	t.Run("recharge passes tenant staff and key through", func(t *testing.T) {
		proc := new(mockProcessor)
		proc.On("Recharge", mock.Anything, mock.MatchedBy(func(cmd appledger.RechargeCommand) bool {
			return cmd.TenantID == principal.TenantID &&
				cmd.CustomerID == customerID &&
				cmd.StaffID != nil && *cmd.StaffID == principal.UserID &&
				cmd.Amount.Equal(decimal.NewFromInt(10)) &&
				cmd.Payment != nil && cmd.Payment.Method == ledger.PaymentMethod("transfer")
		})).Return(&appledger.EntryResult{CustomerID: customerID, Type: "recharge", NewBalance: decimal.NewFromInt(30)}, nil)

		w := postJSON(newRouter(proc), "/transactions", map[string]any{
			"customer_id": customerID,
			"type":        "recharge",
			"amount":      "10",
			"payment":     map[string]any{"method": "transfer", "bank": "Banco Uno"},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp APIResponse[appledger.EntryResult]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.True(t, decimal.NewFromInt(30).Equal(resp.Data.NewBalance))
		proc.AssertExpectations(t)
	})

	t.Run("consume carries line items", func(t *testing.T) {
		proc := new(mockProcessor)
		proc.On("Consume", mock.Anything, mock.MatchedBy(func(cmd appledger.ConsumeCommand) bool {
			return len(cmd.Items) == 1 && cmd.Items[0].Quantity == 2
		})).Return(&appledger.EntryResult{Type: "consume"}, nil)

		w := postJSON(newRouter(proc), "/transactions", map[string]any{
			"customer_id": customerID,
			"type":        "consume",
			"amount":      "9",
			"items":       []map[string]any{{"name": "IPA", "quantity": 2, "unit_price": "4.50"}},
		})
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		proc.AssertExpectations(t)
	})

	t.Run("validation errors name the field", func(t *testing.T) {
		proc := new(mockProcessor)
		w := postJSON(newRouter(proc), "/transactions", map[string]any{
			"customer_id": customerID,
			"type":        "recharge",
			"amount":      "-3",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		info := decodeError(t, w)
		assert.Equal(t, dto.ErrCodeValidation, info.Code)
		require.NotEmpty(t, info.Details)
		assert.Equal(t, "amount", info.Details[0].Field)
		proc.AssertNotCalled(t, "Recharge", mock.Anything, mock.Anything)
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"store outage", shared.WrapStoreError("ledger.recharge", errors.New("connection reset")), http.StatusServiceUnavailable, dto.ErrCodeStoreUnavailable},
		{"unknown customer", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"version conflict", shared.ErrConcurrencyConflict, http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := new(mockProcessor)
			proc.On("Recharge", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := postJSON(newRouter(proc), "/transactions", map[string]any{
				"customer_id": customerID,
				"type":        "recharge",
				"amount":      "1",
			})
			assert.Equal(t, tt.wantStatus, w.Code)
			info := decodeError(t, w)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.NotEmpty(t, info.RequestID)
			assert.NotContains(t, info.Message, "connection reset")
			assert.NotContains(t, info.Message, "boom")
		})
	}
}

func TestTransactionHandler_RequiresPrincipal(t *testing.T) {
	r := gin.New()
	r.POST("/transactions", NewTransactionHandler(new(mockProcessor), nil).Create)

	w := postJSON(r, "/transactions", map[string]any{"type": "recharge"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, decodeError(t, w).Code)
}

func TestEntryPermission(t *testing.T) {
	tests := []struct {
		body    string
		want    identity.Permission
		wantErr bool
	}{
		{`{"type":"recharge"}`, identity.PermRecharge, false},
		{`{"type":"consume"}`, identity.PermConsume, false},
		{`{"type":"adjust"}`, "", true},
		{`{"type":`, "", true},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString(tt.body))
		c.Request.Header.Set("Content-Type", "application/json")

		perm, err := EntryPermission(c)
		if tt.wantErr {
			assert.ErrorIs(t, err, shared.ErrInvalidInput, tt.body)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, perm)
	}
}

func TestReportHandler(t *testing.T) {
	principal := newPrincipal()
	now := time.Date(2026, 5, 1, 22, 0, 0, 0, time.UTC)

	reports := new(mockReports)
	reports.On("Dashboard", mock.Anything, principal.TenantID, now).
		Return(&report.Dashboard{Customers: 3, TransactionsToday: 7}, nil)
	reports.On("ExportTransactions", mock.Anything, principal.TenantID, report.ExportRequest{From: "2026-05-01", To: "2026-05-01"}).
		Return(&report.ExportFile{Filename: "transactions_2026-05-01_2026-05-01.xlsx", Content: []byte("PK\x03\x04"), Rows: 1}, nil)

	h := NewReportHandler(reports)
	h.now = func() time.Time { return now }
	r := gin.New()
	r.Use(asStaff(principal))
	r.GET("/dashboard", h.Dashboard)
	r.GET("/export", h.Export)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var dash APIResponse[report.Dashboard]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dash))
	assert.Equal(t, 3, dash.Data.Customers)
	assert.Equal(t, int64(7), dash.Data.TransactionsToday)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export?from=2026-05-01&to=2026-05-01", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="transactions_2026-05-01_2026-05-01.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, []byte("PK\x03\x04"), w.Body.Bytes())

	reports.AssertExpectations(t)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		pinger Pinger
		want   int
	}{
		{"no database", nil, http.StatusOK},
		{"database up", pingFunc(func(context.Context) error { return nil }), http.StatusOK},
		{"database down", pingFunc(func(context.Context) error { return errors.New("refused") }), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewHealthHandler(tt.pinger).Health)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestPortalHandler_RequiresTenant(t *testing.T) {
	r := gin.New()
	r.GET("/lookup", NewPortalHandler(nil, nil, nil).Lookup)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/lookup?token=SB-1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
