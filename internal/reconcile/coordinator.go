// Package reconcile coordinates optimistic local mutation with remote
// persistence. Every mutation is a three-phase command: apply a tentative
// patch to the cache, issue the remote write, and on failure apply a
// compensating patch that exactly undoes the first phase. Failures are
// always returned, never swallowed; the caller surfaces them to the UI.
package reconcile

import (
	"fmt"
	"log"
	"time"

	"github.com/oklog/ulid/v2"

	"alacritas/backend/internal/cache"
	"alacritas/backend/internal/models"
	"alacritas/backend/internal/store"
)

type Coordinator struct {
	Cache *cache.Cache
	Store store.Store

	now func() time.Time
}

func NewCoordinator(c *cache.Cache, s store.Store) *Coordinator {
	return &Coordinator{Cache: c, Store: s, now: time.Now}
}

// SaveRequest persists a request, optimistically upserting it locally first.
// A request must carry its clientId from creation; saving one without it is
// rejected before anything is touched.
func (co *Coordinator) SaveRequest(r models.Request) error {
	if err := r.Validate(); err != nil {
		return err
	}

	prev, existed := findRequest(co.Cache.Snapshot().Requests, r.ID)
	co.Cache.UpsertRequest(r)

	if err := co.Store.Write(r.Path(), r); err != nil {
		if existed {
			co.Cache.UpsertRequest(prev)
		} else {
			co.Cache.DropRequest(r.ID)
		}
		return fmt.Errorf("save request %d: %w", r.ID, err)
	}
	return nil
}

// DeleteRequest removes a request entirely. There is no tombstone: provider
// views simply stop seeing it on the next snapshot.
func (co *Coordinator) DeleteRequest(id int) error {
	prev, existed := findRequest(co.Cache.Snapshot().Requests, id)
	if existed {
		co.Cache.DropRequest(id)
	}

	if err := co.Store.Remove(fmt.Sprintf("requests/%d", id)); err != nil {
		if existed {
			co.Cache.UpsertRequest(prev)
		}
		return fmt.Errorf("delete request %d: %w", id, err)
	}
	return nil
}

// SaveOffer persists an offer produced by the lifecycle engine. Status
// changes must already have gone through the guarded transitions; this only
// moves the result.
func (co *Coordinator) SaveOffer(o models.Offer) error {
	if err := o.Validate(); err != nil {
		return err
	}

	prev, existed := findOffer(co.Cache.Snapshot().Offers, o.ID)
	co.Cache.UpsertOffer(o)

	if err := co.Store.Write(o.Path(), o); err != nil {
		if existed {
			co.Cache.UpsertOffer(prev)
		} else {
			// Revert by full snapshot replace: a failed insert has no prior
			// record to restore.
			snap := co.Cache.Snapshot().Offers
			kept := snap[:0]
			for _, cur := range snap {
				if cur.ID != o.ID {
					kept = append(kept, cur)
				}
			}
			co.Cache.ReplaceOffers(kept)
		}
		return fmt.Errorf("save offer %d: %w", o.ID, err)
	}
	return nil
}

// SendMessage appends one utterance to a chat, optimistically inserting it
// into the cached thread under a tentative local key first. The tentative
// entry is removed again when the append fails; on success the next full
// chats snapshot replaces it with the store-keyed record. The meta preview
// update stays best effort.
func (co *Coordinator) SendMessage(chatID string, m models.Message) (string, error) {
	if m.Timestamp == 0 {
		m.Timestamp = co.now().UnixMilli()
	}
	tentative := "local-" + ulid.Make().String()
	co.Cache.UpsertChatMessage(chatID, tentative, m)

	key, err := co.Store.Append("chats/"+chatID+"/messages", m)
	if err != nil {
		co.Cache.DropChatMessage(chatID, tentative)
		return "", fmt.Errorf("send message to %s: %w", chatID, err)
	}

	if err := co.Store.Patch("chats/"+chatID+"/meta", map[string]any{
		"lastMsg":     m.Text,
		"lastMsgTime": m.Timestamp,
	}); err != nil {
		log.Printf("reconcile: chat %s meta preview update failed: %v", chatID, err)
	}
	return key, nil
}

// SaveProfile persists an actor's profile, optimistically as usual.
func (co *Coordinator) SaveProfile(actorID string, p models.Profile) error {
	snap := co.Cache.Snapshot().Profiles
	prev, existed := snap[actorID]
	co.Cache.UpsertProfile(actorID, p)

	if err := co.Store.Write("profiles/"+actorID, p); err != nil {
		if existed {
			co.Cache.UpsertProfile(actorID, prev)
		}
		return fmt.Errorf("save profile %s: %w", actorID, err)
	}
	return nil
}

// EnsureProfile returns the actor's profile, creating and persisting the
// bootstrap default on first login. Absence is decided against the store via
// the atomic create, never against the cache: before the first profiles
// snapshot arrives the cache is empty, and a plain write here would clobber
// the actor's stored edits. Persistence failure is reported but the derived
// default is still returned so the session can proceed read-only.
func (co *Coordinator) EnsureProfile(actorID string) (models.Profile, error) {
	if p, ok := co.Cache.Snapshot().Profiles[actorID]; ok {
		return p, nil
	}

	p := models.DefaultProfile(actorID)
	created, err := co.Store.CreateIfAbsent("profiles/"+actorID, p)
	if err != nil {
		return p, fmt.Errorf("ensure profile %s: %w", actorID, err)
	}
	if created {
		co.Cache.UpsertProfile(actorID, p)
		return p, nil
	}

	// The stored profile exists; its snapshot may have landed by now.
	if got, ok := co.Cache.Snapshot().Profiles[actorID]; ok {
		return got, nil
	}
	return p, nil
}

func findRequest(requests []models.Request, id int) (models.Request, bool) {
	for _, r := range requests {
		if r.ID == id {
			return r, true
		}
	}
	return models.Request{}, false
}

func findOffer(offers []models.Offer, id int) (models.Offer, bool) {
	for _, o := range offers {
		if o.ID == id {
			return o, true
		}
	}
	return models.Offer{}, false
}
