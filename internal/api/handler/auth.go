package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"alacritas/backend/internal/session"
)

// Login exchanges a known actor identity for a session token and bootstraps
// the actor's profile on first login.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username required"})
		return
	}
	if !session.Known(req.Username) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown identity"})
		return
	}

	token, err := session.IssueToken(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
		return
	}
	role, _ := session.DefaultRole(req.Username)

	profile, err := h.Coordinator.EnsureProfile(req.Username)
	if err != nil {
		// Keep the session usable read-only; the profile write rejected.
		c.JSON(http.StatusOK, gin.H{
			"token": token, "actor_id": req.Username, "role": role,
			"profile": profile, "warning": "profile will not persist",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token, "actor_id": req.Username, "role": role, "profile": profile,
	})
}

// RequireActor validates the bearer token and stores the actor identity in
// the request context.
func (h *Handler) RequireActor(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token missing"})
		return
	}
	actorID, err := session.ValidateToken(strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token or expired"})
		return
	}
	c.Set("actor_id", actorID)
	c.Next()
}

func actorID(c *gin.Context) string {
	id, _ := c.Get("actor_id")
	s, _ := id.(string)
	return s
}
