package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"medrecon/internal/middleware"
	"medrecon/internal/report"
	"medrecon/internal/service"
)

// Multipart field names of a reconciliation request.
const (
	FieldWorkLogs      = "work_logs"
	FieldInvoiceSheets = "invoice_sheets"
	FieldInvoicePDFs   = "invoice_pdfs"
	FieldThreshold     = "threshold"
)

// ReconciliationHandler handles reconciliation endpoints.
type ReconciliationHandler struct {
	svc service.ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(svc service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{svc: svc}
}

// bindInput reads the multipart request. It writes the error response and
// returns false when the request is malformed.
func bindInput(c *gin.Context) (service.ReconcileInput, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FORM", "request must be multipart/form-data")
		return service.ReconcileInput{}, false
	}

	input := service.ReconcileInput{
		WorkLogs:      form.File[FieldWorkLogs],
		InvoiceSheets: form.File[FieldInvoiceSheets],
		InvoicePDFs:   form.File[FieldInvoicePDFs],
	}
	if len(input.WorkLogs) == 0 {
		RespondError(c, http.StatusBadRequest, "NO_WORK_LOGS", "at least one work_logs file is required")
		return service.ReconcileInput{}, false
	}

	if raw := strings.TrimSpace(c.PostForm(FieldThreshold)); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_THRESHOLD", "threshold must be a number between 0 and 100")
			return service.ReconcileInput{}, false
		}
		input.Threshold = &t
	}

	if subject, err := middleware.GetSubject(c); err == nil {
		input.CreatedBy = subject
	}
	return input, true
}

// Create handles POST /api/v1/reconciliations
func (h *ReconciliationHandler) Create(c *gin.Context) {
	input, ok := bindInput(c)
	if !ok {
		return
	}

	res, err := h.svc.Reconcile(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, res)
}

// Export handles POST /api/v1/reconciliations/export?format=xlsx|csv
// It streams the unpaid report without archiving the run.
func (h *ReconciliationHandler) Export(c *gin.Context) {
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be xlsx or csv")
		return
	}

	input, ok := bindInput(c)
	if !ok {
		return
	}

	out, err := h.svc.Export(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, format, out.Unpaid); err != nil {
		HandleError(c, err)
		return
	}

	filename := report.BuildFilename(c.DefaultQuery("name", report.DefaultBaseName), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("X-Unpaid-Count", strconv.Itoa(out.Stats.Unpaid))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// List handles GET /api/v1/reconciliations
func (h *ReconciliationHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	runs, total, err := h.svc.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, runs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/reconciliations/:id
func (h *ReconciliationHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid reconciliation ID")
		return
	}

	run, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, run)
}

// Report handles GET /api/v1/reconciliations/:id/report
func (h *ReconciliationHandler) Report(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid reconciliation ID")
		return
	}

	url, err := h.svc.ReportURL(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"download_url": url})
}

func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
