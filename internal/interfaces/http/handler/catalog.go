package handler

import (
	"context"
	"strconv"

	appcatalog "github.com/Rmontilla83/saldobirras-pro/internal/application/catalog"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/catalog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogService manages products and delivery zones
type CatalogService interface {
	ListProducts(ctx context.Context, tenantID uuid.UUID, availableOnly bool) ([]appcatalog.ProductResponse, error)
	CreateProduct(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, in catalog.ProductInput) (*appcatalog.ProductResponse, error)
	UpdateProduct(ctx context.Context, tenantID, productID uuid.UUID, userID *uuid.UUID, in catalog.ProductInput) (*appcatalog.ProductResponse, error)
	ListZones(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]appcatalog.ZoneResponse, error)
	CreateZone(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, in catalog.ZoneInput) (*appcatalog.ZoneResponse, error)
	UpdateZone(ctx context.Context, tenantID, zoneID uuid.UUID, userID *uuid.UUID, in catalog.ZoneInput) (*appcatalog.ZoneResponse, error)
}

// CatalogHandler handles product and zone endpoints
type CatalogHandler struct {
	BaseHandler
	catalog CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(svc CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: svc}
}

// ProductRequest creates or updates a product. Omitted fields are left
// unchanged on update.
// @Description Request body for a product
type ProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=200" example:"IPA 33cl"`
	Description *string          `json:"description" binding:"omitempty,max=1000"`
	Category    *string          `json:"category" binding:"omitempty,max=100" example:"beer"`
	Price       *decimal.Decimal `json:"price" binding:"omitempty,decimal_gte0" swaggertype:"string" example:"4.50"`
	IsAvailable *bool            `json:"is_available"`
	SortOrder   *int             `json:"sort_order" binding:"omitempty,min=0"`
}

func (r ProductRequest) input() catalog.ProductInput {
	return catalog.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Price:       r.Price,
		IsAvailable: r.IsAvailable,
		SortOrder:   r.SortOrder,
	}
}

// ZoneRequest creates or updates a delivery zone
// @Description Request body for a zone
type ZoneRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=1,max=100" example:"Terraza"`
	Color     *string `json:"color" binding:"omitempty,hexcolor" example:"#F5A623"`
	IsActive  *bool   `json:"is_active"`
	SortOrder *int    `json:"sort_order" binding:"omitempty,min=0"`
}

func (r ZoneRequest) input() catalog.ZoneInput {
	return catalog.ZoneInput{
		Name:      r.Name,
		Color:     r.Color,
		IsActive:  r.IsActive,
		SortOrder: r.SortOrder,
	}
}

// boolQuery reads an optional boolean query flag
func boolQuery(c *gin.Context, name string) bool {
	v, _ := strconv.ParseBool(c.Query(name))
	return v
}

// ListProducts godoc
// @ID           listProducts
// @Summary      List products
// @Tags         catalog
// @Produce      json
// @Param        available query bool false "Only available products"
// @Success      200 {object} APIResponse[[]appcatalog.ProductResponse]
// @Security     BearerAuth
// @Router       /catalog/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	tenantID, _, ok := h.requireStaff(c)
	if !ok {
		return
	}
	products, err := h.catalog.ListProducts(c.Request.Context(), tenantID, boolQuery(c, "available"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// CreateProduct godoc
// @ID           createProduct
// @Summary      Create a product
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        request body ProductRequest true "Product"
// @Success      201 {object} APIResponse[appcatalog.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /catalog/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	tenantID, staffID, ok := h.requireStaff(c)
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	p, err := h.catalog.CreateProduct(c.Request.Context(), tenantID, staffID, req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, p)
}

// UpdateProduct godoc
// @ID           updateProduct
// @Summary      Update a product
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID"
// @Param        request body ProductRequest true "Changed fields"
// @Success      200 {object} APIResponse[appcatalog.ProductResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /catalog/products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	tenantID, staffID, ok := h.requireStaff(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	p, err := h.catalog.UpdateProduct(c.Request.Context(), tenantID, id, staffID, req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// ListZones godoc
// @ID           listZones
// @Summary      List delivery zones
// @Tags         catalog
// @Produce      json
// @Param        active query bool false "Only active zones"
// @Success      200 {object} APIResponse[[]appcatalog.ZoneResponse]
// @Security     BearerAuth
// @Router       /catalog/zones [get]
func (h *CatalogHandler) ListZones(c *gin.Context) {
	tenantID, _, ok := h.requireStaff(c)
	if !ok {
		return
	}
	zones, err := h.catalog.ListZones(c.Request.Context(), tenantID, boolQuery(c, "active"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, zones)
}

// CreateZone godoc
// @ID           createZone
// @Summary      Create a delivery zone
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        request body ZoneRequest true "Zone"
// @Success      201 {object} APIResponse[appcatalog.ZoneResponse]
// @Security     BearerAuth
// @Router       /catalog/zones [post]
func (h *CatalogHandler) CreateZone(c *gin.Context) {
	tenantID, staffID, ok := h.requireStaff(c)
	if !ok {
		return
	}
	var req ZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	z, err := h.catalog.CreateZone(c.Request.Context(), tenantID, staffID, req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, z)
}

// UpdateZone godoc
// @ID           updateZone
// @Summary      Update a delivery zone
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Zone ID"
// @Param        request body ZoneRequest true "Changed fields"
// @Success      200 {object} APIResponse[appcatalog.ZoneResponse]
// @Security     BearerAuth
// @Router       /catalog/zones/{id} [put]
func (h *CatalogHandler) UpdateZone(c *gin.Context) {
	tenantID, staffID, ok := h.requireStaff(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	z, err := h.catalog.UpdateZone(c.Request.Context(), tenantID, id, staffID, req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, z)
}
