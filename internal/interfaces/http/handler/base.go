package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/logger"
	"github.com/Rmontilla83/saldobirras-pro/internal/interfaces/http/dto"
	"github.com/Rmontilla83/saldobirras-pro/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessPage sends a page of results with pagination meta
func SuccessPage[T any](c *gin.Context, page shared.Paginated[T]) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(page.Items, page.Total, page.Page, page.PageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// BindError answers a failed request binding
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	middleware.HandleBindError(c, err)
}

// HandleError converts an application error to the response envelope.
// Domain errors keep their message; anything else is logged and answered
// as an internal error without leaking the cause.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	log := logger.L(c.Request.Context())
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		status := dto.GetHTTPStatus(code)
		if status >= http.StatusInternalServerError {
			log.Error("Request failed", zap.String("code", code), zap.Error(err))
		}
		_ = c.Error(err)
		h.Error(c, status, code, domainErr.Message)
		return
	}

	log.Error("Unexpected error", zap.Error(err))
	_ = c.Error(err)
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// staffContext returns the tenant and acting staff member of an
// authenticated request.
func staffContext(c *gin.Context) (tenantID uuid.UUID, staffID *uuid.UUID, ok bool) {
	p := middleware.GetPrincipal(c)
	if p == nil {
		return uuid.Nil, nil, false
	}
	id := p.UserID
	return p.TenantID, &id, true
}

// requireStaff resolves the staff context or answers 401
func (h *BaseHandler) requireStaff(c *gin.Context) (uuid.UUID, *uuid.UUID, bool) {
	tenantID, staffID, ok := staffContext(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
	}
	return tenantID, staffID, ok
}

// pathID parses a uuid path parameter or answers 400
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// optionalUUID parses an optional uuid query parameter
func optionalUUID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// pageFromQuery reads page and page_size, leaving bounds to shared.Page
func pageFromQuery(c *gin.Context) shared.Page {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	return shared.Page{Page: page, PageSize: size}
}
