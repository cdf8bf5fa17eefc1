package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"alacritas/backend/internal/config"
	"alacritas/backend/internal/models"
)

// GetProfile returns the current actor's profile, bootstrapping the default
// on first access.
func (h *Handler) GetProfile(c *gin.Context) {
	actor := actorID(c)
	profile, err := h.Coordinator.EnsureProfile(actor)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"profile": profile, "warning": "profile will not persist"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// SaveProfile replaces the current actor's profile.
func (h *Handler) SaveProfile(c *gin.Context) {
	actor := actorID(c)
	var p models.Profile
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile payload"})
		return
	}
	if err := h.Coordinator.SaveProfile(actor, p); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to save profile: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

// AskAssistant forwards an estimation question to the pricing assistant. The
// reply is always 200; assistant failures come back as an apologetic reply.
func (h *Handler) AskAssistant(c *gin.Context) {
	if h.Assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assistant not configured"})
		return
	}
	var body struct {
		Message string `json:"message"`
		Context string `json:"context"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message required"})
		return
	}
	c.JSON(http.StatusOK, h.Assistant.Ask(body.Message, body.Context))
}

// UploadImage stores a request or profile image and returns its public URL.
func (h *Handler) UploadImage(c *gin.Context) {
	if h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "uploads not configured"})
		return
	}
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	defer file.Close()
	if header.Size > config.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
		return
	}

	url, err := h.Uploader.UploadBlob(header.Filename, file)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
