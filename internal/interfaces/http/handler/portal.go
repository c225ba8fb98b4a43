package handler

import (
	"context"

	appcatalog "github.com/Rmontilla83/saldobirras-pro/internal/application/catalog"
	apporder "github.com/Rmontilla83/saldobirras-pro/internal/application/order"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerLookup resolves a QR code or PIN to an active customer
type CustomerLookup interface {
	Lookup(ctx context.Context, tenantID uuid.UUID, token string) (*ledger.Customer, error)
}

// MenuSource lists what the portal can order
type MenuSource interface {
	ListProducts(ctx context.Context, tenantID uuid.UUID, availableOnly bool) ([]appcatalog.ProductResponse, error)
	ListZones(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]appcatalog.ZoneResponse, error)
}

// OrderPlacer places portal orders
type OrderPlacer interface {
	CreateOrder(ctx context.Context, cmd apporder.CreateOrderCommand) (*apporder.CreateOrderResult, error)
}

// PortalHandler handles the unauthenticated customer portal
type PortalHandler struct {
	BaseHandler
	lookup CustomerLookup
	menu   MenuSource
	orders OrderPlacer
}

// NewPortalHandler creates a new PortalHandler
func NewPortalHandler(lookup CustomerLookup, menu MenuSource, orders OrderPlacer) *PortalHandler {
	return &PortalHandler{lookup: lookup, menu: menu, orders: orders}
}

// PortalCustomer is the part of a customer the portal may see
type PortalCustomer struct {
	Name        string             `json:"name"`
	BalanceType ledger.BalanceType `json:"balance_type"`
	Balance     decimal.Decimal    `json:"balance"`
	BalanceHeld decimal.Decimal    `json:"balance_held"`
	Available   decimal.Decimal    `json:"available"`
}

// PortalLookupResponse is the portal landing payload
type PortalLookupResponse struct {
	Customer PortalCustomer               `json:"customer"`
	Products []appcatalog.ProductResponse `json:"products"`
	Zones    []appcatalog.ZoneResponse    `json:"zones"`
}

// PortalItemRequest is one requested product
type PortalItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,min=1,max=99"`
}

// PortalOrderRequest places an order from the portal
// @Description Request body for a portal order
type PortalOrderRequest struct {
	Token  string              `json:"token" binding:"required,max=64" example:"SB-3F9A1C2B7D"`
	Items  []PortalItemRequest `json:"items" binding:"required,min=1,max=50,dive"`
	ZoneID string              `json:"zone_id" binding:"omitempty,uuid"`
	Note   string              `json:"note" binding:"max=500"`
}

func (h *PortalHandler) tenant(c *gin.Context) (uuid.UUID, bool) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		h.BadRequest(c, "Tenant is required")
	}
	return tenantID, ok
}

// Lookup godoc
// @ID           portalLookup
// @Summary      Resolve a QR code or PIN and return balance and menu
// @Tags         portal
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant"
// @Param        token query string true "QR code or PIN"
// @Success      200 {object} APIResponse[PortalLookupResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Router       /portal/lookup [get]
func (h *PortalHandler) Lookup(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	cust, err := h.lookup.Lookup(ctx, tenantID, c.Query("token"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	products, err := h.menu.ListProducts(ctx, tenantID, true)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	zones, err := h.menu.ListZones(ctx, tenantID, true)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, PortalLookupResponse{
		Customer: PortalCustomer{
			Name:        cust.Name,
			BalanceType: cust.BalanceType,
			Balance:     cust.Balance,
			BalanceHeld: cust.BalanceHeld,
			Available:   cust.Available(),
		},
		Products: products,
		Zones:    zones,
	})
}

// CreateOrder godoc
// @ID           portalCreateOrder
// @Summary      Place an order; the total is held against the balance
// @Tags         portal
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant"
// @Param        Idempotency-Key header string false "Replay protection key"
// @Param        request body PortalOrderRequest true "Order"
// @Success      201 {object} APIResponse[apporder.CreateOrderResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /portal/orders [post]
func (h *PortalHandler) CreateOrder(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req PortalOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	items := make([]apporder.ItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, apporder.ItemRequest{ProductID: uuid.MustParse(it.ProductID), Quantity: it.Quantity})
	}
	zoneID, err := optionalUUID(req.ZoneID)
	if err != nil {
		h.BadRequest(c, "Invalid zone_id format")
		return
	}

	result, err := h.orders.CreateOrder(c.Request.Context(), apporder.CreateOrderCommand{
		TenantID:       tenantID,
		LookupToken:    req.Token,
		Items:          items,
		ZoneID:         zoneID,
		Note:           req.Note,
		IdempotencyKey: c.GetHeader(middleware.IdempotencyKey),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}
