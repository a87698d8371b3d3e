package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexanderramin/coursechat/internal/intelligence"
	"github.com/alexanderramin/coursechat/internal/llm"
	"github.com/alexanderramin/coursechat/internal/service"
	"github.com/gin-gonic/gin"
)

// writeError maps service and exchange errors onto status codes. The
// message is always the text a widget can show as is.
func writeError(c *gin.Context, err error) {
	status, code, msg := http.StatusInternalServerError, "internal", intelligence.GenericFailureReply
	switch {
	case errors.Is(err, llm.ErrAuth), errors.Is(err, llm.ErrDisabled):
		status, code, msg = http.StatusServiceUnavailable, "configuration", intelligence.ConfigErrorMessage
	case errors.Is(err, llm.ErrOverloaded):
		status, code, msg = http.StatusTooManyRequests, "overloaded", intelligence.OverloadedMessage
	case errors.Is(err, intelligence.ErrExchangeInFlight):
		status, code, msg = http.StatusConflict, "in_flight", intelligence.InFlightMessage
	case errors.Is(err, intelligence.ErrStaleExchange):
		status, code, msg = http.StatusConflict, "restarted", "The conversation was restarted before this reply arrived."
	case errors.Is(err, intelligence.ErrEmptyMessage):
		status, code, msg = http.StatusBadRequest, "invalid_request", err.Error()
	case errors.Is(err, service.ErrInvalidDate):
		status, code, msg = http.StatusBadRequest, "invalid_request", err.Error()
	case errors.Is(err, service.ErrAnalyticsDisabled):
		status, code, msg = http.StatusNotFound, "analytics_disabled", err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusServiceUnavailable, "cancelled"
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: code, Message: msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: msg})
}

func notFound(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: msg})
}
