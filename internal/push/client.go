// Package push fans derived view snapshots out to connected clients. Every
// cache change produces one payload per connected actor, already scoped to
// what that actor may see; clients never receive the raw collections.
package push

import (
	"alacritas/backend/internal/models"
	"alacritas/backend/internal/views"
)

// ViewPayload is the per-actor bundle delivered on every change. The client
// renders straight from it without further filtering.
type ViewPayload struct {
	MyRequests     []models.Request   `json:"myRequests"`
	Marketplace    []models.Request   `json:"marketplace"`
	OffersSent     views.OfferBuckets `json:"offersSent"`
	OffersReceived views.OfferBuckets `json:"offersReceived"`
	Chats          []models.Chat      `json:"chats"`
}

// Client is one connected consumer of view payloads. The hub only ever talks
// to this interface, so tests can attach channel-backed fakes.
type Client interface {
	// ActorID identifies whose views this client receives.
	ActorID() string

	// SendChannel is where the hub delivers payloads. Send-only from the
	// hub's side.
	SendChannel() chan<- ViewPayload

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts the client down and stops its pumps.
	Close()
}
