package handler

import (
	"context"

	apporder "github.com/Rmontilla83/saldobirras-pro/internal/application/order"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/order"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/Rmontilla83/saldobirras-pro/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderFulfillment places and advances orders
type OrderFulfillment interface {
	CreateOrder(ctx context.Context, cmd apporder.CreateOrderCommand) (*apporder.CreateOrderResult, error)
	AdvanceStatus(ctx context.Context, cmd apporder.AdvanceCommand) (*apporder.AdvanceResult, error)
	Get(ctx context.Context, tenantID, orderID uuid.UUID) (*apporder.OrderResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter order.Filter) (shared.Paginated[apporder.OrderResponse], error)
}

// OrderHandler handles staff order endpoints
type OrderHandler struct {
	BaseHandler
	orders OrderFulfillment
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders OrderFulfillment) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// AdvanceStatusRequest moves an order to a new status
// @Description Request body for an order status change
type AdvanceStatusRequest struct {
	Status string `json:"status" binding:"required" example:"delivered"`
}

// StaffOrderRequest places an order for a known customer from the bar
// @Description Request body for a staff order
type StaffOrderRequest struct {
	CustomerID string              `json:"customer_id" binding:"required,uuid"`
	Items      []PortalItemRequest `json:"items" binding:"required,min=1,max=50,dive"`
	ZoneID     string              `json:"zone_id" binding:"omitempty,uuid"`
	Note       string              `json:"note" binding:"max=500"`
}

// Create godoc
// @ID           createOrder
// @Summary      Place an order for a customer; the total is held against the balance
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replay protection key"
// @Param        request body StaffOrderRequest true "Order"
// @Success      201 {object} APIResponse[apporder.CreateOrderResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	tenantID, _, ok := h.requireStaff(c)
	if !ok {
		return
	}
	var req StaffOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	customerID := uuid.MustParse(req.CustomerID)
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
		CustomerID:     &customerID,
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

// List godoc
// @ID           listOrders
// @Summary      List orders, newest first
// @Tags         orders
// @Produce      json
// @Param        status query string false "pending, preparing, ready, delivered or cancelled"
// @Param        customer_id query string false "Customer"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]apporder.OrderResponse]
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	tenantID, _, ok := h.requireStaff(c)
	if !ok {
		return
	}

	filter := order.Filter{Page: pageFromQuery(c)}
	if raw := c.Query("status"); raw != "" {
		status, err := order.ParseStatus(raw)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		filter.Status = &status
	}
	customerID, err := optionalUUID(c.Query("customer_id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer_id format")
		return
	}
	filter.CustomerID = customerID

	page, err := h.orders.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// Get godoc
// @ID           getOrder
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} APIResponse[apporder.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	tenantID, _, ok := h.requireStaff(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// AdvanceStatus godoc
// @ID           advanceOrderStatus
// @Summary      Advance an order. Delivering consumes the total exactly once; cancelling releases the hold.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body AdvanceStatusRequest true "Target status"
// @Success      200 {object} APIResponse[apporder.AdvanceResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/status [put]
func (h *OrderHandler) AdvanceStatus(c *gin.Context) {
	tenantID, staffID, ok := h.requireStaff(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req AdvanceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	target, err := order.ParseTargetStatus(req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.orders.AdvanceStatus(c.Request.Context(), apporder.AdvanceCommand{
		TenantID: tenantID,
		OrderID:  id,
		Target:   target,
		StaffID:  staffID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
