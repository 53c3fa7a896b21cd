package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"medrecon/internal/domain"
	"medrecon/internal/extractor"
	"medrecon/internal/handler"
	"medrecon/internal/matcher"
	"medrecon/internal/middleware"
	"medrecon/internal/pipeline"
	"medrecon/internal/service"
	"medrecon/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type part struct {
	field, name, body string
}

func multipartRequest(t *testing.T, url string, files []part, fields map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, f := range files {
		fw, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, _ = fw.Write([]byte(f.body))
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestReconciliationHandler_Create_Success(t *testing.T) {
	svc := new(mocks.MockReconciliationService)
	h := handler.NewReconciliationHandler(svc)

	run := &domain.ReconciliationRun{ID: uuid.New(), Threshold: 80, UnpaidCount: 1}
	svc.On("Reconcile", mock.Anything, mock.MatchedBy(func(in service.ReconcileInput) bool {
		return len(in.WorkLogs) == 2 && len(in.InvoicePDFs) == 1 &&
			in.Threshold != nil && *in.Threshold == 80 && in.CreatedBy == "billing-team"
	})).Return(&service.ReconcileResult{Run: run, Unpaid: []domain.Record{{Patient: "ana", Date: "01/02/2024", Exam: "rx"}}}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/reconciliations", []part{
		{"work_logs", "jan.xlsx", "PK"},
		{"work_logs", "feb.xlsx", "PK"},
		{"invoice_pdfs", "inv.pdf", "%PDF"},
	}, map[string]string{"threshold": "80"})
	c.Set(middleware.ContextKeySubject, "billing-team")

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decode(t, w).Success)
	svc.AssertExpectations(t)
}

func TestReconciliationHandler_Create_NoWorkLogs(t *testing.T) {
	svc := new(mocks.MockReconciliationService)
	h := handler.NewReconciliationHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/reconciliations", []part{{"invoice_sheets", "inv.xlsx", "PK"}}, nil)

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "NO_WORK_LOGS", decode(t, w).Error.Code)
	svc.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything)
}

func TestReconciliationHandler_Create_NotMultipart(t *testing.T) {
	h := handler.NewReconciliationHandler(new(mocks.MockReconciliationService))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/reconciliations", strings.NewReader("{}"))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FORM", decode(t, w).Error.Code)
}

func TestReconciliationHandler_Create_BadThreshold(t *testing.T) {
	h := handler.NewReconciliationHandler(new(mocks.MockReconciliationService))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/reconciliations",
		[]part{{"work_logs", "jan.xlsx", "PK"}}, map[string]string{"threshold": "high"})

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_THRESHOLD", decode(t, w).Error.Code)
}

func TestReconciliationHandler_Create_MissingFieldDetails(t *testing.T) {
	svc := new(mocks.MockReconciliationService)
	h := handler.NewReconciliationHandler(svc)

	missing := &domain.MissingFieldError{Source: "jan.xlsx", Fields: []string{"date", "exam"}}
	svc.On("Reconcile", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%s %q: %w", domain.SourceWorkLog, "jan.xlsx", missing))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/reconciliations", []part{{"work_logs", "jan.xlsx", "PK"}}, nil)

	h.Create(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "MISSING_FIELD", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "jan.xlsx")
	details, ok := resp.Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "jan.xlsx", details["source"])
	assert.Equal(t, []interface{}{"date", "exam"}, details["fields"])
}

func TestReconciliationHandler_Create_RateLimited(t *testing.T) {
	svc := new(mocks.MockReconciliationService)
	h := handler.NewReconciliationHandler(svc)

	rle := extractor.NewRateLimitError("all", errors.New("slow down"), 30)
	svc.On("Reconcile", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: %q: %w", domain.ErrExtractionFailed, "inv.pdf", rle))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/reconciliations", []part{
		{"work_logs", "jan.xlsx", "PK"},
		{"invoice_pdfs", "inv.pdf", "%PDF"},
	}, nil)

	h.Create(c)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
}

func TestReconciliationHandler_Export_CSV(t *testing.T) {
	svc := new(mocks.MockReconciliationService)
	h := handler.NewReconciliationHandler(svc)

	svc.On("Export", mock.Anything, mock.Anything).Return(&pipeline.Outcome{
		Unpaid: []domain.Record{{Patient: "ana lopez", Date: "01/02/2024", Exam: "rx torax"}},
		Stats:  matcher.Stats{Unpaid: 1},
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/reconciliations/export?format=csv&name=Enero%202024",
		[]part{{"work_logs", "jan.xlsx", "PK"}}, nil)

	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Enero_2024_")
	assert.Equal(t, "1", w.Header().Get("X-Unpaid-Count"))
	assert.Contains(t, w.Body.String(), "ana lopez")
	svc.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything)
}

func TestReconciliationHandler_Export_BadFormat(t *testing.T) {
	svc := new(mocks.MockReconciliationService)
	h := handler.NewReconciliationHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/reconciliations/export?format=pdf",
		[]part{{"work_logs", "jan.xlsx", "PK"}}, nil)

	h.Export(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Export", mock.Anything, mock.Anything)
}

func TestReconciliationHandler_List(t *testing.T) {
	svc := new(mocks.MockReconciliationService)
	h := handler.NewReconciliationHandler(svc)

	runs := []domain.ReconciliationRun{{ID: uuid.New()}, {ID: uuid.New()}}
	svc.On("List", mock.Anything, 10, 5).Return(runs, 12, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/reconciliations?offset=10&limit=5", http.NoBody)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 12, resp.Meta.Total)
	assert.Equal(t, 5, resp.Meta.Limit)
}

func TestReconciliationHandler_GetByID_InvalidID(t *testing.T) {
	h := handler.NewReconciliationHandler(new(mocks.MockReconciliationService))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/reconciliations/nope", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}

	h.GetByID(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReconciliationHandler_GetByID_NotFound(t *testing.T) {
	svc := new(mocks.MockReconciliationService)
	h := handler.NewReconciliationHandler(svc)
	id := uuid.New()
	svc.On("Get", mock.Anything, id).Return(nil, domain.ErrNotFound)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/reconciliations/"+id.String(), http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.GetByID(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReconciliationHandler_Report(t *testing.T) {
	svc := new(mocks.MockReconciliationService)
	h := handler.NewReconciliationHandler(svc)
	id := uuid.New()
	svc.On("ReportURL", mock.Anything, id).Return("https://signed.example/r.xlsx", nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/reconciliations/"+id.String()+"/report", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Report(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://signed.example/r.xlsx")
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrUnsupportedFileType, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE"},
		{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{domain.ErrNoWorkLogs, http.StatusBadRequest, "NO_WORK_LOGS"},
		{domain.ErrInvalidThreshold, http.StatusBadRequest, "INVALID_THRESHOLD"},
		{pipeline.ErrNoExtractor, http.StatusServiceUnavailable, "EXTRACTOR_UNAVAILABLE"},
		{fmt.Errorf("%w: boom", domain.ErrExtractionFailed), http.StatusBadGateway, "EXTRACTION_FAILED"},
		{domain.ErrUploadFailed, http.StatusInternalServerError, "UPLOAD_FAILED"},
		{errors.New("unexpected"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code, _ := handler.MapDomainError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestHealthHandler(t *testing.T) {
	svc := new(mocks.MockReconciliationService)
	h := handler.NewHealthHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	h.Liveness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	svc.On("Ready", mock.Anything).Return(errors.New("database: connection refused")).Once()
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/readyz", http.NoBody)
	h.Readiness(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	svc.On("Ready", mock.Anything).Return(nil).Once()
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/readyz", http.NoBody)
	h.Readiness(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
