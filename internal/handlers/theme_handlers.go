package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mepiyou/myfirstfront/internal/database"
)

// themeKey matches the localStorage key of the original web client.
const themeKey = "mff_theme"

type SetThemeInput struct {
	Theme string `json:"theme" binding:"required,oneof=dark light"`
}

// GetTheme returns the persisted preference, defaulting to dark like
// the original client.
func (h *Handlers) GetTheme(c *gin.Context) {
	v, err := database.GetState(h.DB, themeKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read theme"})
		return
	}
	theme := string(v)
	if theme == "" {
		theme = "dark"
	}
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}

// SetTheme persists the preference.
func (h *Handlers) SetTheme(c *gin.Context) {
	var input SetThemeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := database.PutState(h.DB, themeKey, []byte(input.Theme)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save theme"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": input.Theme})
}
