package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"feedpilot/internal/activity"
	"feedpilot/internal/middleware"
	"feedpilot/internal/model"
	"feedpilot/internal/store"
)

type ScheduleHandler struct {
	Store    store.Store
	Activity *activity.Log
}

type scheduleBody struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Channel       string `json:"channel"`
	ScheduledTime string `json:"scheduled_time"`
}

// Create registers a pending scheduled action. The owning worker picks it
// up once its scheduled time has passed.
func (h *ScheduleHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var body scheduleBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Title == "" || body.Channel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	scheduledTime, err := time.Parse(time.RFC3339, body.ScheduledTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scheduled_time"})
		return
	}

	action, err := h.Store.CreateAction(model.ScheduledAction{
		UserID:        userID,
		Title:         body.Title,
		Body:          body.Content,
		Channel:       body.Channel,
		ScheduledTime: scheduledTime,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule post"})
		return
	}

	h.Activity.Info(userID, "Scheduled post: "+body.Title, "")
	c.JSON(http.StatusOK, gin.H{"success": true, "id": action.ID})
}

func (h *ScheduleHandler) List(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	actions, err := h.Store.ListActions(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list scheduled posts"})
		return
	}

	resp := make([]gin.H, 0, len(actions))
	for _, action := range actions {
		resp = append(resp, gin.H{
			"id":             action.ID,
			"title":          action.Title,
			"content":        action.Body,
			"channel":        action.Channel,
			"scheduled_time": action.ScheduledTime.Format(time.RFC3339),
			"status":         action.Status,
		})
	}
	c.JSON(http.StatusOK, gin.H{"posts": resp})
}
