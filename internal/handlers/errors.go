package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-socialgate/socialgate/internal/connect"
)

// writeError maps connection lifecycle errors onto HTTP responses. Anything
// unmapped is a 500 with a generic body; the detail goes to the log only.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, connect.ErrUnknownProvider):
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "unknown_provider",
			"error_description": "no such provider is configured",
		})
	case errors.Is(err, connect.ErrNoSuchConnection), errors.Is(err, connect.ErrNotConnected):
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "not_connected",
			"error_description": "no matching connection exists",
		})
	case errors.Is(err, connect.ErrDuplicateConnection):
		c.JSON(http.StatusConflict, gin.H{
			"error":             "duplicate_connection",
			"error_description": "this provider account is already connected",
		})
	case errors.Is(err, connect.ErrUnsupportedOperation):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported_operation",
			"error_description": err.Error(),
		})
	case errors.Is(err, connect.ErrProviderAuthorization):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":             "provider_rejected",
			"error_description": "the provider rejected the request",
		})
	case errors.Is(err, connect.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": err.Error(),
		})
	default:
		log.Printf("[Connect] Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "internal_error",
			"error_description": "an unexpected error occurred",
		})
	}
}
