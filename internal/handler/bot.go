package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"feedpilot/internal/middleware"
	"feedpilot/internal/model"
	"feedpilot/internal/store"
	"feedpilot/internal/worker"
)

// BotHandler controls the per-user monitoring worker.
type BotHandler struct {
	Store   store.Store
	Workers *worker.Registry
}

type connectBody struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	UserAgent    string `json:"user_agent"`
}

func (h *BotHandler) Status(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	running, connected := h.Workers.GetOrCreate(userID).Status()
	c.JSON(http.StatusOK, gin.H{
		"running":   running,
		"connected": connected,
		"username":  middleware.UsernameFromContext(c),
		"uptime":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Connect authenticates the submitted credentials through the worker and,
// only on success, persists them (the remote password is never stored).
func (h *BotHandler) Connect(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var body connectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	creds := model.RemoteCredential{
		UserID:       userID,
		ClientID:     body.ClientID,
		ClientSecret: body.ClientSecret,
		Username:     body.Username,
		UserAgent:    body.UserAgent,
	}

	w := h.Workers.GetOrCreate(userID)
	success := w.Connect(c.Request.Context(), creds, body.Password)
	if success {
		if err := h.Store.UpsertCredential(creds); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to save credentials"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": success})
}

func (h *BotHandler) Start(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	success := h.Workers.GetOrCreate(userID).Start()
	c.JSON(http.StatusOK, gin.H{"success": success})
}

func (h *BotHandler) Stop(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	h.Workers.GetOrCreate(userID).Stop()
	c.JSON(http.StatusOK, gin.H{"success": true})
}
