package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"alacritas/backend/internal/models"
	"alacritas/backend/internal/normalize"
	"alacritas/backend/internal/views"
)

// ListChats returns the chats the actor participates in, most recently active
// first.
func (h *Handler) ListChats(c *gin.Context) {
	actor := actorID(c)
	snap := h.Cache.Snapshot()
	c.JSON(http.StatusOK, gin.H{"chats": views.ChatsForActor(snap.Chats, actor)})
}

// GetChat returns one thread with its messages in conversation order.
func (h *Handler) GetChat(c *gin.Context) {
	actor := actorID(c)
	chat, ok := h.findChat(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return
	}
	if !chat.Meta.HasParty(actor) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat participant"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"meta":     chat.Meta,
		"messages": normalize.OrderMessages(chat.Messages),
	})
}

// SendMessage appends one utterance to a chat the actor participates in.
func (h *Handler) SendMessage(c *gin.Context) {
	actor := actorID(c)
	chatID := c.Param("id")

	chat, ok := h.findChat(chatID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return
	}
	if !chat.Meta.HasParty(actor) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat participant"})
		return
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message text required"})
		return
	}

	role := "client"
	if actor == chat.Meta.ProviderID {
		role = "provider"
	}
	key, err := h.Coordinator.SendMessage(chatID, models.Message{
		Text:       body.Text,
		SenderID:   actor,
		SenderRole: role,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to send message: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": key})
}

// ChatHistory serves the archived copy of a thread from the relational
// mirror, for lookups after the live thread is gone.
func (h *Handler) ChatHistory(c *gin.Context) {
	if h.Archiver == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archive not configured"})
		return
	}
	rows, err := h.Archiver.History(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": rows})
}

func (h *Handler) findChat(id string) (models.Chat, bool) {
	for _, chat := range h.Cache.Snapshot().Chats {
		if chat.ID == id {
			return chat, true
		}
	}
	return models.Chat{}, false
}
