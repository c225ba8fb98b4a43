package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Rmontilla83/saldobirras-pro/internal/application/report"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportService builds dashboards and exports
type ReportService interface {
	Dashboard(ctx context.Context, tenantID uuid.UUID, now time.Time) (*report.Dashboard, error)
	ExportTransactions(ctx context.Context, tenantID uuid.UUID, req report.ExportRequest) (*report.ExportFile, error)
}

// ReportHandler handles dashboard and export endpoints
type ReportHandler struct {
	BaseHandler
	reports ReportService
	now     func() time.Time
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports ReportService) *ReportHandler {
	return &ReportHandler{reports: reports, now: func() time.Time { return time.Now().UTC() }}
}

// Dashboard godoc
// @ID           getDashboard
// @Summary      Balance totals, today's activity and low-balance customers
// @Tags         reports
// @Produce      json
// @Success      200 {object} APIResponse[report.Dashboard]
// @Security     BearerAuth
// @Router       /reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	tenantID, _, ok := h.requireStaff(c)
	if !ok {
		return
	}
	d, err := h.reports.Dashboard(c.Request.Context(), tenantID, h.now())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, d)
}

// Export godoc
// @ID           exportTransactions
// @Summary      Export ledger entries in a date range as a spreadsheet
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        from query string true "First day (YYYY-MM-DD)"
// @Param        to query string true "Last day (YYYY-MM-DD)"
// @Param        type query string false "Entry type"
// @Success      200 {file} file
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/transactions/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	tenantID, _, ok := h.requireStaff(c)
	if !ok {
		return
	}
	file, err := h.reports.ExportTransactions(c.Request.Context(), tenantID, report.ExportRequest{
		From: c.Query("from"),
		To:   c.Query("to"),
		Type: c.Query("type"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, file.Content)
}
