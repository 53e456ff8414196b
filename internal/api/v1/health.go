package v1

import (
	"net/http"

	"github.com/flexprice/payment-notifier/internal/logger"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	logger *logger.Logger
}

func NewHealthHandler(
	logger *logger.Logger,
) *HealthHandler {
	return &HealthHandler{
		logger: logger,
	}
}

// Test is the legacy liveness route
func (h *HealthHandler) Test(c *gin.Context) {
	c.String(http.StatusOK, "ok Updated")
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
