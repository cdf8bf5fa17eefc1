package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"alacritas/backend/internal/models"
	"alacritas/backend/internal/views"
)

// ListRequests derives the browse view for the current actor. mode=client
// shows the actor's own requests, mode=provider everyone else's.
func (h *Handler) ListRequests(c *gin.Context) {
	actor := actorID(c)
	snap := h.Cache.Snapshot()

	var list []models.Request
	if c.DefaultQuery("mode", "client") == "provider" {
		list = views.OthersRequests(snap.Requests, actor)
	} else {
		list = views.MyRequests(snap.Requests, actor)
	}

	list = views.FilterRequests(list, views.RequestFilter{
		Text:      c.Query("search"),
		Type:      c.Query("type"),
		Community: c.Query("community"),
		Date:      c.Query("date"),
	})

	switch c.Query("sort") {
	case "date_asc":
		list = views.SortByDate(list, true)
	case "date_desc":
		list = views.SortByDate(list, false)
	}

	if c.Query("group") == "location" {
		c.JSON(http.StatusOK, gin.H{"groups": views.GroupByLocation(list)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": list})
}

// SaveRequest creates or updates a request owned by the current actor. New
// requests get id = max existing + 1.
func (h *Handler) SaveRequest(c *gin.Context) {
	actor := actorID(c)

	var req models.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	req.ClientID = actor
	if req.ID == 0 {
		req.ID = views.NextRequestID(h.Cache.Snapshot().Requests)
	} else if existing, ok := findRequest(h.Cache.Snapshot().Requests, req.ID); ok && existing.ClientID != actor {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your request"})
		return
	}
	if req.Status == "" {
		req.Status = models.RequestDraft
	}

	if err := h.Coordinator.SaveRequest(req); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to save request: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req})
}

// DeleteRequest hard-deletes a request after explicit confirmation.
func (h *Handler) DeleteRequest(c *gin.Context) {
	actor := actorID(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}
	if !confirmed(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "confirmation required"})
		return
	}

	existing, ok := findRequest(h.Cache.Snapshot().Requests, id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		return
	}
	if existing.ClientID != actor {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your request"})
		return
	}

	if err := h.Coordinator.DeleteRequest(id); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to delete request: " + err.Error()})
		return
	}
	h.Notifier.RequestDeleted(id, actor)
	c.JSON(http.StatusOK, gin.H{"message": "request deleted"})
}

// confirmed reads the explicit confirmation flag every destructive action
// must carry.
func confirmed(c *gin.Context) bool {
	if c.Query("confirm") == "true" {
		return true
	}
	var body struct {
		Confirm bool `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		return false
	}
	return body.Confirm
}

func findRequest(requests []models.Request, id int) (models.Request, bool) {
	for _, r := range requests {
		if r.ID == id {
			return r, true
		}
	}
	return models.Request{}, false
}
