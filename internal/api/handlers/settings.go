// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"net/http"
	"time"

	"github.com/fluffyriot/statsync/internal/store"
	"github.com/gin-gonic/gin"
)

func (h *Handler) GetSettingsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.Settings())
}

// UpdateSettingsHandler persists new settings and restarts the
// background worker when its interval changed.
func (h *Handler) UpdateSettingsHandler(c *gin.Context) {
	var req store.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.WorkerIntervalMinutes < 0 || req.ListingLimit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "settings values must not be negative"})
		return
	}

	prev := h.Store.Settings()
	if err := h.Store.SetSettings(req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if req.WorkerIntervalMinutes != prev.WorkerIntervalMinutes {
		if req.WorkerIntervalMinutes == 0 {
			h.Worker.Stop()
		} else {
			h.Worker.Restart(time.Duration(req.WorkerIntervalMinutes) * time.Minute)
		}
	}

	c.JSON(http.StatusOK, req)
}
