package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"feedpilot/internal/middleware"
	"feedpilot/internal/model"
	"feedpilot/internal/store"
)

type SettingsHandler struct {
	Store store.Store
}

func (h *SettingsHandler) Get(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	settings, err := h.Store.ListSettings(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}
	if _, ok := settings[model.SettingWatchedChannels]; !ok {
		settings[model.SettingWatchedChannels] = ""
	}

	c.JSON(http.StatusOK, settings)
}

func (h *SettingsHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var body map[string]string
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	for key, value := range body {
		if err := h.Store.SetSetting(userID, key, value); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
