package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Mepiyou/myfirstfront/internal/api"
	"github.com/Mepiyou/myfirstfront/internal/auth"
)

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges credentials against the remote API and keeps the
// bearer token in the local store. The token itself never leaves the
// shell.
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, err := h.API.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, api.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		h.Log.Error("login failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Unable to reach the server"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged in"})
}

// Logout forgets the stored token.
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.Tokens.Clear(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Session reports whether a token is stored and, when the token is a
// readable JWT, when it expires.
func (h *Handlers) Session(c *gin.Context) {
	_, err := h.Tokens.Load()
	if errors.Is(err, auth.ErrNoToken) {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read session"})
		return
	}

	resp := gin.H{"authenticated": true}
	if exp, err := h.Tokens.Expiry(); err == nil && !exp.IsZero() {
		resp["expiresAt"] = exp.UTC().Format(time.RFC3339)
		resp["expired"] = exp.Before(time.Now())
	}
	c.JSON(http.StatusOK, resp)
}
