package handler

import (
	"context"
	"time"

	appledger "github.com/Rmontilla83/saldobirras-pro/internal/application/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/identity"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/Rmontilla83/saldobirras-pro/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionProcessor applies balance mutations
type TransactionProcessor interface {
	Recharge(ctx context.Context, cmd appledger.RechargeCommand) (*appledger.EntryResult, error)
	Consume(ctx context.Context, cmd appledger.ConsumeCommand) (*appledger.EntryResult, error)
}

// TransactionLister lists ledger entries
type TransactionLister interface {
	ListTransactions(ctx context.Context, tenantID uuid.UUID, filter ledger.TransactionFilter) (shared.Paginated[appledger.TransactionResponse], error)
}

// TransactionHandler handles ledger entry endpoints
type TransactionHandler struct {
	BaseHandler
	processor TransactionProcessor
	lister    TransactionLister
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(processor TransactionProcessor, lister TransactionLister) *TransactionHandler {
	return &TransactionHandler{processor: processor, lister: lister}
}

// PaymentRequest is optional recharge payment metadata
type PaymentRequest struct {
	Method    string `json:"method" binding:"omitempty,oneof=cash transfer card mobile other" example:"cash"`
	Bank      string `json:"bank" binding:"max=100"`
	Reference string `json:"reference" binding:"max=100"`
}

// LineItemRequest describes one consumed product
type LineItemRequest struct {
	ProductID string          `json:"product_id" binding:"omitempty,uuid"`
	Name      string          `json:"name" binding:"required,max=200"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"decimal_gte0"`
}

// CreateTransactionRequest records a recharge or a consume
// @Description Request body for a balance mutation
type CreateTransactionRequest struct {
	CustomerID string            `json:"customer_id" binding:"required,uuid"`
	Type       string            `json:"type" binding:"required,oneof=recharge consume" example:"recharge"`
	Amount     decimal.Decimal   `json:"amount" binding:"required,decimal_gt0" swaggertype:"string" example:"25.00"`
	Note       string            `json:"note" binding:"max=2000"`
	Payment    *PaymentRequest   `json:"payment"`
	Items      []LineItemRequest `json:"items" binding:"omitempty,dive"`
}

// EntryTypeHeader reads only the type of a transaction body
type EntryTypeHeader struct {
	Type string `json:"type"`
}

// Create godoc
// @ID           createTransaction
// @Summary      Recharge or consume a customer balance
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Caller idempotency key"
// @Param        request body CreateTransactionRequest true "Mutation"
// @Success      201 {object} APIResponse[appledger.EntryResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	tenantID, staffID, ok := h.requireStaff(c)
	if !ok {
		return
	}

	// ShouldBindBodyWith reuses the body already read by the permission check
	var req CreateTransactionRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		h.BindError(c, err)
		return
	}
	customerID := uuid.MustParse(req.CustomerID)
	idemKey := c.GetHeader(middleware.IdempotencyKey)

	var (
		result *appledger.EntryResult
		err    error
	)
	switch ledger.EntryType(req.Type) {
	case ledger.EntryTypeRecharge:
		cmd := appledger.RechargeCommand{
			TenantID:       tenantID,
			CustomerID:     customerID,
			Amount:         req.Amount,
			Note:           req.Note,
			StaffID:        staffID,
			IdempotencyKey: idemKey,
		}
		if req.Payment != nil {
			cmd.Payment = &ledger.Payment{
				Method:    ledger.PaymentMethod(req.Payment.Method),
				Bank:      req.Payment.Bank,
				Reference: req.Payment.Reference,
			}
		}
		result, err = h.processor.Recharge(c.Request.Context(), cmd)
	default:
		items, itemErr := toLineItems(req.Items)
		if itemErr != nil {
			h.HandleError(c, itemErr)
			return
		}
		result, err = h.processor.Consume(c.Request.Context(), appledger.ConsumeCommand{
			TenantID:       tenantID,
			CustomerID:     customerID,
			Amount:         req.Amount,
			Note:           req.Note,
			Items:          items,
			StaffID:        staffID,
			IdempotencyKey: idemKey,
		})
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

func toLineItems(reqs []LineItemRequest) ([]ledger.LineItem, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	items := make([]ledger.LineItem, 0, len(reqs))
	for _, r := range reqs {
		var productID uuid.UUID
		if r.ProductID != "" {
			productID = uuid.MustParse(r.ProductID)
		}
		item, err := ledger.NewLineItem(productID, shared.SanitizeText(r.Name), r.Quantity, r.UnitPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// List godoc
// @ID           listTransactions
// @Summary      List ledger entries, newest first
// @Tags         transactions
// @Produce      json
// @Param        customer_id query string false "Customer"
// @Param        type query string false "recharge or consume"
// @Param        from query string false "YYYY-MM-DD, inclusive"
// @Param        to query string false "YYYY-MM-DD, inclusive"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]appledger.TransactionResponse]
// @Security     BearerAuth
// @Router       /transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	tenantID, _, ok := h.requireStaff(c)
	if !ok {
		return
	}

	filter := ledger.TransactionFilter{Page: pageFromQuery(c)}
	customerID, err := optionalUUID(c.Query("customer_id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer_id format")
		return
	}
	filter.CustomerID = customerID

	if raw := c.Query("type"); raw != "" {
		t := ledger.EntryType(raw)
		if !t.IsValid() {
			h.BadRequest(c, "Type must be 'recharge' or 'consume'")
			return
		}
		filter.Type = &t
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			h.BadRequest(c, "'from' must be a YYYY-MM-DD date")
			return
		}
		filter.DateFrom = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			h.BadRequest(c, "'to' must be a YYYY-MM-DD date")
			return
		}
		// inclusive day: everything before the next midnight
		end := to.Add(24*time.Hour - time.Nanosecond)
		filter.DateTo = &end
	}

	page, err := h.lister.ListTransactions(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// EntryPermission resolves the permission for POST /transactions from the
// body's type: recharge needs recharge, consume needs consume.
func EntryPermission(c *gin.Context) (identity.Permission, error) {
	var head EntryTypeHeader
	if err := c.ShouldBindBodyWith(&head, binding.JSON); err != nil {
		return "", shared.NewDomainError(shared.CodeInvalidInput, "Malformed JSON body")
	}
	switch ledger.EntryType(head.Type) {
	case ledger.EntryTypeRecharge:
		return identity.PermRecharge, nil
	case ledger.EntryTypeConsume:
		return identity.PermConsume, nil
	}
	return "", shared.NewDomainError(shared.CodeInvalidInput, "Type must be 'recharge' or 'consume'")
}
