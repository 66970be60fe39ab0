package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	reportapp "github.com/janytree/orderdesk/internal/application/report"
	"github.com/janytree/orderdesk/internal/domain/order"
	"github.com/janytree/orderdesk/internal/interfaces/http/dto"
)

// ReconciliationHandler exposes reconciliation passes and their sessions
type ReconciliationHandler struct {
	BaseHandler
	service *reportapp.ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(service *reportapp.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{service: service}
}

// Reconcile joins posted order and item payloads into a new session
// POST /reconciliations
func (h *ReconciliationHandler) Reconcile(c *gin.Context) {
	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	orders, err := order.AsRecords(req.Orders)
	if err != nil {
		h.HandleError(c, fmt.Errorf("orders: %w", err))
		return
	}
	var items []order.RawRecord
	if req.Items != nil {
		if items, err = order.AsRecords(req.Items); err != nil {
			h.HandleError(c, fmt.Errorf("items: %w", err))
			return
		}
	}

	var dateRange *order.DateRange
	if req.StartDate != "" || req.EndDate != "" {
		if req.StartDate == "" || req.EndDate == "" {
			h.ValidationError(c, []dto.ValidationDetail{{
				Field:   "start_date",
				Message: "start_date and end_date must be given together",
			}})
			return
		}
		r, err := order.DayRange(req.StartDate, req.EndDate, h.service.Location())
		if err != nil {
			h.HandleError(c, err)
			return
		}
		dateRange = &r
	}

	summary, err := h.service.Reconcile(c.Request.Context(), reportapp.ReconcileRequest{
		Orders: orders,
		Items:  items,
		Range:  dateRange,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, summary)
}

// Sync pulls orders in a date range from the storefront and reconciles them
// POST /reconciliations/sync
func (h *ReconciliationHandler) Sync(c *gin.Context) {
	var req dto.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	r, err := order.DayRange(req.StartDate, req.EndDate, h.service.Location())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	summary, err := h.service.Sync(c.Request.Context(), reportapp.SyncRequest{Range: r})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, summary)
}

// ListRuns returns the reconciliation history, newest first
// GET /reconciliations
func (h *ReconciliationHandler) ListRuns(c *gin.Context) {
	var query dto.RunListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}
	runs, err := h.service.Runs(c.Request.Context(), query.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(runs))
}

// GetRun returns one reconciliation run
// GET /reconciliations/:id
func (h *ReconciliationHandler) GetRun(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	run, err := h.service.Run(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, run)
}

// GetSession returns a session summary
// GET /sessions/:id
func (h *ReconciliationHandler) GetSession(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	session, err := h.service.Session(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, reportapp.NewSessionSummary(session))
}

// DeleteSession discards a session
// DELETE /sessions/:id
func (h *ReconciliationHandler) DeleteSession(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.service.DiscardSession(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListLines returns the canonical order lines of a session
// GET /sessions/:id/lines?keyword=
func (h *ReconciliationHandler) ListLines(c *gin.Context) {
	id, keyword, ok := h.sessionQuery(c)
	if !ok {
		return
	}
	lines, err := h.service.Lines(c.Request.Context(), id, keyword)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(lines))
}

// ListInvoices returns one invoice record per order of a session
// GET /sessions/:id/invoices?keyword=
func (h *ReconciliationHandler) ListInvoices(c *gin.Context) {
	id, keyword, ok := h.sessionQuery(c)
	if !ok {
		return
	}
	invoices, err := h.service.Invoices(c.Request.Context(), id, keyword)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(invoices))
}

// ExportInvoices downloads the invoice workbook of a session
// GET /sessions/:id/invoices/export?keyword=
func (h *ReconciliationHandler) ExportInvoices(c *gin.Context) {
	id, keyword, ok := h.sessionQuery(c)
	if !ok {
		return
	}
	export, err := h.service.ExportInvoices(c.Request.Context(), id, keyword)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename))
	c.Data(http.StatusOK, export.ContentType, export.Content)
}

// PublishInvoices uploads the invoice workbook and returns a download link
// POST /sessions/:id/invoices/publish?keyword=
func (h *ReconciliationHandler) PublishInvoices(c *gin.Context) {
	id, keyword, ok := h.sessionQuery(c)
	if !ok {
		return
	}
	result, err := h.service.PublishInvoices(c.Request.Context(), id, keyword)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// GetReport returns sales aggregates of a session
// GET /sessions/:id/report?top_n=
func (h *ReconciliationHandler) GetReport(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var query dto.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}
	report, err := h.service.Report(c.Request.Context(), id, query.TopN)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

func (h *ReconciliationHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.SessionRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BindError(c, err)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ReconciliationHandler) sessionQuery(c *gin.Context) (uuid.UUID, string, bool) {
	id, ok := h.pathID(c)
	if !ok {
		return uuid.Nil, "", false
	}
	var query dto.KeywordQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return uuid.Nil, "", false
	}
	return id, query.Keyword, true
}
