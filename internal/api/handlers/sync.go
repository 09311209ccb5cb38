// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FetchAccountHandler runs one fetch cycle for one account, streaming
// newline-delimited JSON progress records over the open response. All
// validation happens before the first byte is written; once streaming
// starts the status line is already committed.
func (h *Handler) FetchAccountHandler(c *gin.Context) {
	platform := c.Param("platform")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	acct := h.Store.GetAccount(platform, id)
	if acct == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	if err := h.Fetcher.FetchAccount(c.Request.Context(), acct, c.Writer); err != nil {
		// Too late for an error status; the terminal record already told
		// the client what happened.
		log.Printf("Fetch cycle for %s/%s ended with error: %v", platform, acct.Handle, err)
	}
}

func (h *Handler) TriggerFetchAllHandler(c *gin.Context) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("panic in manual fetch-all trigger: %v", r)
			}
		}()
		h.Worker.FetchAll()
	}()

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Fetch-all triggered successfully",
	})
}
