// Package handler exposes the reconciliation core over HTTP and WebSocket.
package handler

import (
	"alacritas/backend/internal/assistant"
	"alacritas/backend/internal/cache"
	"alacritas/backend/internal/history"
	"alacritas/backend/internal/reconcile"
	"alacritas/backend/internal/telegram"
	"alacritas/backend/internal/uploads"
)

// Handler bundles the collaborators every route needs. Assistant, Uploader,
// Notifier and Archiver are optional; routes degrade gracefully without them.
type Handler struct {
	Cache       *cache.Cache
	Coordinator *reconcile.Coordinator
	Assistant   *assistant.Client
	Uploader    *uploads.Uploader
	Notifier    *telegram.Notifier
	Archiver    *history.Archiver
}

func NewHandler(c *cache.Cache, co *reconcile.Coordinator) *Handler {
	return &Handler{Cache: c, Coordinator: co}
}
