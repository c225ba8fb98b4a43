package handler

import (
	"context"

	appledger "github.com/Rmontilla83/saldobirras-pro/internal/application/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/application/report"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerManager registers and maintains customers
type CustomerManager interface {
	Register(ctx context.Context, tenantID uuid.UUID, staffID *uuid.UUID, req appledger.RegisterCustomerRequest) (*appledger.CustomerResponse, error)
	Update(ctx context.Context, tenantID, customerID uuid.UUID, staffID *uuid.UUID, u ledger.ProfileUpdate) (*appledger.CustomerResponse, error)
	Deactivate(ctx context.Context, tenantID, customerID uuid.UUID, staffID *uuid.UUID) error
	Get(ctx context.Context, tenantID, customerID uuid.UUID) (*appledger.CustomerResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter ledger.CustomerFilter) (shared.Paginated[appledger.CustomerResponse], error)
}

// Reconciler checks stored balances against the ledger
type Reconciler interface {
	Reconcile(ctx context.Context, tenantID, customerID uuid.UUID) (*report.Reconciliation, error)
}

// CustomerHandler handles customer endpoints
type CustomerHandler struct {
	BaseHandler
	customers  CustomerManager
	reconciler Reconciler
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customers CustomerManager, reconciler Reconciler) *CustomerHandler {
	return &CustomerHandler{customers: customers, reconciler: reconciler}
}

// RegisterCustomerRequest represents a request to register a customer
// @Description Request body for registering a customer
type RegisterCustomerRequest struct {
	Name           string          `json:"name" binding:"required,min=1,max=200" example:"Ana Torres"`
	Email          string          `json:"email" binding:"omitempty,email,max=200"`
	Phone          string          `json:"phone" binding:"max=50"`
	BalanceType    string          `json:"balance_type" binding:"omitempty,oneof=money units" example:"money"`
	InitialBalance decimal.Decimal `json:"initial_balance" binding:"decimal_gte0" swaggertype:"string" example:"20.00"`
	AllowNegative  bool            `json:"allow_negative"`
	PIN            string          `json:"pin" binding:"omitempty,len=4,numeric" example:"1234"`
}

// UpdateCustomerRequest represents a request to update a customer profile.
// Balance fields cannot be changed here.
// @Description Request body for updating a customer
type UpdateCustomerRequest struct {
	Name          *string `json:"name" binding:"omitempty,min=1,max=200"`
	Email         *string `json:"email" binding:"omitempty,max=200"`
	Phone         *string `json:"phone" binding:"omitempty,max=50"`
	PIN           *string `json:"pin" binding:"omitempty,max=4"`
	AllowNegative *bool   `json:"allow_negative"`
}

// Register godoc
// @ID           registerCustomer
// @Summary      Register a customer with an optional opening balance
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body RegisterCustomerRequest true "Customer"
// @Success      201 {object} APIResponse[appledger.CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers [post]
func (h *CustomerHandler) Register(c *gin.Context) {
	tenantID, staffID, ok := h.requireStaff(c)
	if !ok {
		return
	}
	var req RegisterCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	balanceType := ledger.BalanceTypeMoney
	if req.BalanceType != "" {
		balanceType = ledger.BalanceType(req.BalanceType)
	}
	customer, err := h.customers.Register(c.Request.Context(), tenantID, staffID, appledger.RegisterCustomerRequest{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		BalanceType:    balanceType,
		InitialBalance: req.InitialBalance,
		AllowNegative:  req.AllowNegative,
		PIN:            req.PIN,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, customer)
}

// List godoc
// @ID           listCustomers
// @Summary      List customers
// @Tags         customers
// @Produce      json
// @Param        search query string false "Name, email, phone or QR code"
// @Param        include_inactive query bool false "Include deactivated customers"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]appledger.CustomerResponse]
// @Security     BearerAuth
// @Router       /customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	tenantID, _, ok := h.requireStaff(c)
	if !ok {
		return
	}
	page, err := h.customers.List(c.Request.Context(), tenantID, ledger.CustomerFilter{
		Search:          c.Query("search"),
		IncludeInactive: c.Query("include_inactive") == "true",
		Page:            pageFromQuery(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// Get godoc
// @ID           getCustomer
// @Summary      Get a customer
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID"
// @Success      200 {object} APIResponse[appledger.CustomerResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id} [get]
func (h *CustomerHandler) Get(c *gin.Context) {
	tenantID, _, ok := h.requireStaff(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	customer, err := h.customers.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// Update godoc
// @ID           updateCustomer
// @Summary      Update a customer profile
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID"
// @Param        request body UpdateCustomerRequest true "Changes"
// @Success      200 {object} APIResponse[appledger.CustomerResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	tenantID, staffID, ok := h.requireStaff(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	customer, err := h.customers.Update(c.Request.Context(), tenantID, id, staffID, ledger.ProfileUpdate{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		PIN:           req.PIN,
		AllowNegative: req.AllowNegative,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// Deactivate godoc
// @ID           deactivateCustomer
// @Summary      Deactivate a customer
// @Tags         customers
// @Param        id path string true "Customer ID"
// @Success      200 {object} APIResponse[appledger.CustomerResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id}/deactivate [post]
func (h *CustomerHandler) Deactivate(c *gin.Context) {
	tenantID, staffID, ok := h.requireStaff(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.customers.Deactivate(ctx, tenantID, id, staffID); err != nil {
		h.HandleError(c, err)
		return
	}
	customer, err := h.customers.Get(ctx, tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// Reconciliation godoc
// @ID           reconcileCustomer
// @Summary      Recompute a customer's balances from the ledger
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID"
// @Success      200 {object} APIResponse[report.Reconciliation]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id}/reconciliation [get]
func (h *CustomerHandler) Reconciliation(c *gin.Context) {
	tenantID, _, ok := h.requireStaff(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	rec, err := h.reconciler.Reconcile(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rec)
}
