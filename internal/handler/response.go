package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"medrecon/internal/domain"
	"medrecon/internal/extractor"
	"medrecon/internal/logger"
	"medrecon/internal/pipeline"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// MissingFieldDetails names the source and the columns it lacks.
type MissingFieldDetails struct {
	Source string   `json:"source"`
	Fields []string `json:"fields"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	var rle *extractor.RateLimitError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; work logs and invoice sheets must be xlsx, invoice documents pdf"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrMissingField):
		return http.StatusUnprocessableEntity, "MISSING_FIELD", "source document lacks a required column"
	case errors.Is(err, domain.ErrNoWorkLogs):
		return http.StatusBadRequest, "NO_WORK_LOGS", "at least one work log is required"
	case errors.Is(err, domain.ErrInvalidThreshold):
		return http.StatusBadRequest, "INVALID_THRESHOLD", "threshold must be between 0 and 100"
	case errors.Is(err, pipeline.ErrNoExtractor):
		return http.StatusServiceUnavailable, "EXTRACTOR_UNAVAILABLE", "pdf invoices are not supported by this deployment"
	case errors.As(err, &rle):
		return http.StatusTooManyRequests, "EXTRACTOR_RATE_LIMITED", "document extraction is rate limited; retry later"
	case errors.Is(err, domain.ErrExtractionFailed):
		return http.StatusBadGateway, "EXTRACTION_FAILED", "table extraction from document failed"
	case errors.Is(err, domain.ErrUploadFailed):
		return http.StatusInternalServerError, "UPLOAD_FAILED", "report upload to storage failed"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
// Client errors carry the wrapped message, which names the offending file.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log := logger.Component("http")
		log.Error().Err(err).Interface("request_id", requestID).Msg("internal error")
	} else if status != http.StatusNotFound && status != http.StatusUnauthorized {
		msg = err.Error()
	}

	apiErr := &APIError{Code: code, Message: msg}
	var mfe *domain.MissingFieldError
	if errors.As(err, &mfe) {
		apiErr.Details = MissingFieldDetails{Source: mfe.Source, Fields: mfe.Fields}
	}
	var rle *extractor.RateLimitError
	if errors.As(err, &rle) {
		c.Header("Retry-After", strconv.Itoa(int(rle.RetryAfter/time.Second)))
	}
	c.JSON(status, APIResponse{Success: false, Error: apiErr})
}
