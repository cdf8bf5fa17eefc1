package push

import (
	"log"

	"alacritas/backend/internal/cache"
	"alacritas/backend/internal/views"
)

// Hub owns the set of connected clients. All membership changes and snapshot
// deliveries go through its channels and are applied by the single Run
// goroutine, so the client set needs no lock.
type Hub struct {
	RegisterCh   chan Client
	UnregisterCh chan Client

	snapshotCh chan cache.Collections
	clients    map[Client]struct{}

	last    cache.Collections
	hasLast bool
}

func NewHub() *Hub {
	return &Hub{
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		snapshotCh:   make(chan cache.Collections, 1),
		clients:      make(map[Client]struct{}),
	}
}

// Run processes registrations and snapshots until RegisterCh is closed.
func (h *Hub) Run() {
	for {
		select {
		case client, ok := <-h.RegisterCh:
			if !ok {
				for c := range h.clients {
					c.Close()
				}
				return
			}
			h.clients[client] = struct{}{}
			log.Printf("push: client connected for %s (%d total)", client.ActorID(), len(h.clients))
			if h.hasLast {
				h.deliver(client, h.last)
			}

		case client := <-h.UnregisterCh:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
				log.Printf("push: client for %s disconnected (%d left)", client.ActorID(), len(h.clients))
			}

		case snap := <-h.snapshotCh:
			h.last, h.hasLast = snap, true
			for c := range h.clients {
				h.deliver(c, snap)
			}
		}
	}
}

// OfferSnapshot hands the hub fresh collections. At most one snapshot is
// pending; a newer one replaces it, every payload is built from a full
// snapshot anyway.
func (h *Hub) OfferSnapshot(snap cache.Collections) {
	for {
		select {
		case h.snapshotCh <- snap:
			return
		default:
			select {
			case <-h.snapshotCh:
			default:
			}
		}
	}
}

// deliver pushes one payload without blocking the hub loop. A client whose
// send buffer is full skips this update and catches up on the next one.
func (h *Hub) deliver(c Client, snap cache.Collections) {
	select {
	case c.SendChannel() <- BuildPayload(snap, c.ActorID()):
	default:
	}
}

// BuildPayload derives the actor-scoped views from one coherent snapshot.
func BuildPayload(snap cache.Collections, actorID string) ViewPayload {
	return ViewPayload{
		MyRequests:     views.MyRequests(snap.Requests, actorID),
		Marketplace:    views.OthersRequests(snap.Requests, actorID),
		OffersSent:     views.BucketOffers(views.MyOffers(snap.Offers, actorID)),
		OffersReceived: views.BucketOffers(views.OffersOnMyRequests(snap.Offers, snap.Requests, actorID)),
		Chats:          views.ChatsForActor(snap.Chats, actorID),
	}
}
