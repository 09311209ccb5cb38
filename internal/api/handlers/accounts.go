// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"net/http"
	"strings"

	"github.com/fluffyriot/statsync/internal/helpers"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) ListAccountsHandler(c *gin.Context) {
	if platform := c.Query("platform"); platform != "" {
		c.JSON(http.StatusOK, gin.H{"accounts": h.Store.Accounts(platform)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": h.Store.AllAccounts()})
}

func (h *Handler) GetAccountHandler(c *gin.Context) {
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
	c.JSON(http.StatusOK, acct)
}

type createAccountRequest struct {
	Platform string `json:"platform" binding:"required"`
	Handle   string `json:"handle" binding:"required"`
	URL      string `json:"url"`
	Cookie   string `json:"cookie"`
}

func (h *Handler) CreateAccountHandler(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req.Platform = strings.ToLower(strings.TrimSpace(req.Platform))
	req.Handle = strings.TrimSpace(strings.TrimPrefix(req.Handle, "@"))

	if !helpers.IsKnownPlatform(req.Platform) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform: " + req.Platform})
		return
	}
	if req.Handle == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "handle is required"})
		return
	}

	if req.URL == "" {
		url, err := helpers.ProfileURL(req.Platform, req.Handle)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.URL = url
	}

	acct, err := h.Store.CreateAccount(req.Platform, req.Handle, req.URL, req.Cookie)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, acct)
}

func (h *Handler) DeleteAccountHandler(c *gin.Context) {
	platform := c.Param("platform")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	if err := h.Store.DeleteAccount(platform, id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type setCookieRequest struct {
	Cookie string `json:"cookie"`
}

// SetCookieHandler stores the raw credential blob for an account. An
// empty cookie clears the credential, which for some platforms demotes
// the chain to its public strategies.
func (h *Handler) SetCookieHandler(c *gin.Context) {
	platform := c.Param("platform")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	var req setCookieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Store.SetCookie(platform, id, strings.TrimSpace(req.Cookie)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
