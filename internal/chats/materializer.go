// Package chats materializes conversation threads from offer state. Whenever
// an offer reaches accepted or counter status, exactly one chat keyed
// "offer-<id>" must exist in the store; this package owns that guarantee.
package chats

import (
	"fmt"
	"log"
	"time"

	"alacritas/backend/internal/config"
	"alacritas/backend/internal/models"
	"alacritas/backend/internal/store"
)

// Trigger bundles the collections a materialization pass runs over.
type Trigger struct {
	Offers   []models.Offer
	Requests []models.Request
	Profiles map[string]models.Profile
}

// Materializer turns triggering offers into chat threads. All creation
// attempts are serialized through one Run goroutine so two near-simultaneous
// triggers cannot race each other inside this process; cross-process races
// are closed by the store's atomic CreateIfAbsent.
type Materializer struct {
	Store     store.Store
	TriggerCh chan Trigger

	now func() time.Time
}

func NewMaterializer(s store.Store) *Materializer {
	return &Materializer{
		Store:     s,
		TriggerCh: make(chan Trigger, 1),
		now:       time.Now,
	}
}

// Run consumes triggers until TriggerCh is closed.
func (m *Materializer) Run() {
	for t := range m.TriggerCh {
		m.RunOnce(t)
	}
}

// Offer notifies the materializer of fresh collections. The channel holds at
// most one pending trigger; a newer one replaces it, since every pass works
// from full snapshots anyway.
func (m *Materializer) Offer(t Trigger) {
	for {
		select {
		case m.TriggerCh <- t:
			return
		default:
			select {
			case <-m.TriggerCh:
			default:
			}
		}
	}
}

// RunOnce walks the offer snapshot and ensures a chat exists for every offer
// in a triggering state. It returns how many chats were created. Running it
// again on the same snapshot creates nothing: existing chats short-circuit.
func (m *Materializer) RunOnce(t Trigger) int {
	requestsByID := make(map[int]models.Request, len(t.Requests))
	for _, r := range t.Requests {
		requestsByID[r.ID] = r
	}

	created := 0
	for _, offer := range t.Offers {
		if offer.Status != models.OfferAccepted && offer.Status != models.OfferCounter {
			continue
		}

		request, ok := requestsByID[offer.RequestID]
		if !ok {
			log.Printf("chats: request %d not found for offer %d, skipping", offer.RequestID, offer.ID)
			continue
		}
		clientID, providerID := request.ClientID, offer.ProviderID
		if clientID == "" || providerID == "" {
			log.Printf("chats: offer %d missing party ids (client %q, provider %q), skipping",
				offer.ID, clientID, providerID)
			continue
		}

		chatID := ChatID(offer.ID)
		chatPath := "chats/" + chatID

		exists, err := m.Store.Exists(chatPath)
		if err != nil {
			log.Printf("chats: existence check for %s failed: %v", chatID, err)
			continue
		}
		if exists {
			continue
		}

		clientProfile, haveClient := t.Profiles[clientID]
		providerProfile, haveProvider := t.Profiles[providerID]
		if !haveClient || !haveProvider {
			// Profiles still loading; the next snapshot pass retries.
			log.Printf("chats: profiles not yet loaded for %s (client %v, provider %v)",
				chatID, haveClient, haveProvider)
			continue
		}

		chat := models.Chat{
			ID:       chatID,
			Meta:     BuildMeta(offer, request, clientProfile, providerProfile, m.now()),
			Messages: map[string]models.Message{},
		}
		wrote, err := m.Store.CreateIfAbsent(chatPath, chat)
		if err != nil {
			log.Printf("chats: create %s failed: %v", chatID, err)
			continue
		}
		if wrote {
			log.Printf("chats: created %s for offer %d (%s)", chatID, offer.ID, offer.Status)
			created++
		}
	}
	return created
}

// ChatID derives the deterministic chat id for an offer.
func ChatID(offerID int) string {
	return fmt.Sprintf("%s%d", models.ChatIDPrefix, offerID)
}

// BuildMeta assembles the denormalized display bundle for a new chat.
// Accepted chats carry the full request card and the agreed amount. Counter
// chats carry first names and a skill summary only: the parties have not yet
// agreed to expose contact, location or schedule details to each other.
func BuildMeta(offer models.Offer, request models.Request, client, provider models.Profile, now time.Time) models.ChatMeta {
	isAccepted := offer.Status == models.OfferAccepted
	meta := models.ChatMeta{
		ChatID:         ChatID(offer.ID),
		OfferID:        offer.ID,
		RequestID:      request.ID,
		ClientID:       request.ClientID,
		ProviderID:     offer.ProviderID,
		OfferStatus:    offer.Status,
		IsAccepted:     isAccepted,
		ClientAvatar:   client.Avatar(),
		ProviderAvatar: provider.Avatar(),
		ClientName:     nameOr(client.FullName, "Client"),
		ProviderName:   nameOr(provider.FullName, "Provider"),
		LastMsgTime:    now.UnixMilli(),
	}
	if isAccepted {
		meta.RequestTitle = request.Title
		meta.RequestLocation = request.Location
		meta.RequestDate = request.Date
		meta.RequestThumbnail = request.Thumbnail
		meta.OfferAmount = offer.Amount
		meta.LastMsg = config.AcceptedGreeting
	} else {
		meta.ClientFirstName = client.FirstName("Client")
		meta.ProviderFirstName = provider.FirstName("Provider")
		meta.ProviderSkills = provider.SkillSummary()
		meta.LastMsg = config.CounterGreeting
	}
	return meta
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
