package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"feedpilot/internal/auth"
	"feedpilot/internal/middleware"
	"feedpilot/internal/session"
	"feedpilot/internal/store"
	"feedpilot/internal/worker"
)

type AuthHandler struct {
	Store       store.Store
	Sessions    session.Registry
	Workers     *worker.Registry
	TokenConfig auth.TokenConfig
}

type registerBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var body registerBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request"})
		return
	}

	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Registration failed"})
		return
	}

	if _, err := h.Store.CreateUser(body.Username, hash, body.Email); err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Username already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Registration failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User registered successfully"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request"})
		return
	}

	user, ok, err := h.Store.GetUserByUsername(body.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Login failed"})
		return
	}
	if !ok || !auth.CheckPassword(body.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid credentials"})
		return
	}

	token, err := auth.CreateToken(user.ID, user.Username, h.TokenConfig)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Token creation failed"})
		return
	}
	claims, err := auth.VerifyToken(token, h.TokenConfig)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Token creation failed"})
		return
	}
	if err := h.Sessions.Add(claims.ID, user.ID, h.TokenConfig.Expiry); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Login failed"})
		return
	}

	_ = h.Store.TouchLastLogin(user.ID, time.Now().UTC())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"user_id": user.ID,
		"token":   token,
	})
}

// Logout stops the user's worker, if any, and revokes every session so
// outstanding tokens stop working.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	h.Workers.StopOnLogout(userID)
	// The presenting token dies first, so logout takes effect even if the
	// per-user session index has lost this entry.
	if jti := middleware.TokenIDFromContext(c); jti != "" {
		_ = h.Sessions.Revoke(jti)
	}
	if err := h.Sessions.RevokeUser(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Logout failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CheckAuth reports whether the request carries a live session. It never
// fails; an anonymous request just gets authenticated=false.
func (h *AuthHandler) CheckAuth(c *gin.Context) {
	claims, ok := h.bearerClaims(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	// The token may outlive the account; only a user still on record
	// counts as authenticated.
	user, ok, err := h.Store.GetUserByID(claims.UserID)
	if err != nil || !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	resp := gin.H{
		"authenticated": true,
		"user_id":       user.ID,
		"username":      user.Username,
	}
	if user.LastLogin != nil {
		resp["last_login"] = user.LastLogin.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) bearerClaims(c *gin.Context) (*auth.Claims, bool) {
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		return nil, false
	}
	claims, err := auth.VerifyToken(token, h.TokenConfig)
	if err != nil {
		return nil, false
	}
	alive, err := h.Sessions.Alive(claims.ID)
	if err != nil || !alive {
		return nil, false
	}
	return claims, true
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
