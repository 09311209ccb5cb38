// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"net/http"

	"github.com/fluffyriot/statsync/internal/config"
	"github.com/gin-gonic/gin"
)

func (h *Handler) HealthCheckHandler(c *gin.Context) {
	if h.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "failure", "details": "store not initialized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": config.AppVersion,
		"worker":  h.Worker.IsActive(),
	})
}
