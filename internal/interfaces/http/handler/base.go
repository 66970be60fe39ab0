package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	reportapp "github.com/janytree/orderdesk/internal/application/report"
	"github.com/janytree/orderdesk/internal/domain/order"
	"github.com/janytree/orderdesk/internal/infrastructure/ecommerce"
	"github.com/janytree/orderdesk/internal/infrastructure/logger"
	"github.com/janytree/orderdesk/internal/interfaces/http/dto"
	"github.com/janytree/orderdesk/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(logger.RequestIDContextKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeBadRequest, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		getRequestID(c),
		details,
	))
}

// BindError answers a failed ShouldBind* call
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	var maxBytesErr *http.MaxBytesError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case middleware.ValidationDetails(err) != nil:
		h.ValidationError(c, middleware.ValidationDetails(err))
	case errors.As(err, &maxBytesErr):
		h.ErrorWithCode(c, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		h.ErrorWithCode(c, dto.ErrCodeInvalidJSON, "Request body is not valid JSON")
	default:
		h.BadRequest(c, err.Error())
	}
}

// errorMapping maps a sentinel error to an API error code
type errorMapping struct {
	target  error
	code    string
	message string // empty uses err.Error()
}

var errorMappings = []errorMapping{
	{reportapp.ErrSessionNotFound, dto.ErrCodeSessionNotFound, "Session not found or expired"},
	{order.ErrRunNotFound, dto.ErrCodeRunNotFound, "Reconciliation run not found"},
	{order.ErrInvalidPayload, dto.ErrCodeInvalidPayload, ""},
	{order.ErrInvalidDateRange, dto.ErrCodeInvalidDateRange, ""},
	{reportapp.ErrNoOrderSource, dto.ErrCodeSourceDisabled, "Storefront sync is not configured"},
	{reportapp.ErrNoObjectStorage, dto.ErrCodeStorageDisabled, "Object storage is not configured"},
	{ecommerce.ErrPlatformUnavailable, dto.ErrCodeUpstream, "Storefront API is unavailable"},
	{ecommerce.ErrPlatformRequestFailed, dto.ErrCodeUpstream, "Storefront API request failed"},
}

// HandleError converts service errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			msg := m.message
			if msg == "" {
				msg = err.Error()
			}
			if dto.GetHTTPStatus(m.code) >= http.StatusInternalServerError {
				logger.L(c.Request.Context()).Warn("Dependency error", zap.Error(err))
			}
			h.ErrorWithCode(c, m.code, msg)
			return
		}
	}

	logger.L(c.Request.Context()).Error("Unhandled error", zap.Error(err))
	h.InternalError(c, "An unexpected error occurred")
}
