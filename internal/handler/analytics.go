package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"feedpilot/internal/middleware"
	"feedpilot/internal/model"
	"feedpilot/internal/store"
)

// AnalyticsHandler summarizes a user's posting history: scheduled action
// counts by status plus activity volume over a trailing window.
type AnalyticsHandler struct {
	Store store.Store
	Now   func() time.Time
}

func (h *AnalyticsHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *AnalyticsHandler) Summary(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	days := 30
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid days"})
			return
		}
		days = parsed
	}

	actionCounts, err := h.Store.ActionStatusCounts(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load analytics"})
		return
	}

	since := h.now().UTC().AddDate(0, 0, -days)
	levelCounts, err := h.Store.LogLevelCounts(userID, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load analytics"})
		return
	}

	totalActions := 0
	for _, n := range actionCounts {
		totalActions += n
	}
	totalEvents := 0
	for _, n := range levelCounts {
		totalEvents += n
	}

	c.JSON(http.StatusOK, gin.H{
		"days": days,
		"posts": gin.H{
			"total":   totalActions,
			"pending": actionCounts[model.ActionPending] + actionCounts[model.ActionPosting],
			"posted":  actionCounts[model.ActionPosted],
			"failed":  actionCounts[model.ActionFailed],
		},
		"activity": gin.H{
			"total":  totalEvents,
			"info":   levelCounts[model.LevelInfo],
			"errors": levelCounts[model.LevelError],
		},
	})
}
