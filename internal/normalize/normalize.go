// Package normalize converts raw store snapshots into typed in-memory
// collections. The store key is the canonical id for every entity; whatever
// id the record body carries is overwritten from the key. Each call builds a
// fresh slice, so callers can treat the result as a full-replacement snapshot.
package normalize

import (
	"encoding/json"
	"log"
	"sort"
	"strconv"

	"alacritas/backend/internal/models"
	"alacritas/backend/internal/store"
)

// Requests normalizes the requests subtree, ordered by id ascending.
//
// A request without a clientId is a data-integrity defect. It is logged and
// kept in the collection so the owner's tooling can still surface it, but
// relational operations (joins, chat materialization) skip it via Validate.
// The historical fallback of defaulting the field to a fixed identity hid
// real defects and is intentionally not reproduced here.
func Requests(snap store.Snapshot) []models.Request {
	out := make([]models.Request, 0, len(snap))
	for key, raw := range snap {
		id, err := strconv.Atoi(key)
		if err != nil {
			log.Printf("normalize: skipping request with non-numeric key %q", key)
			continue
		}
		var r models.Request
		if err := json.Unmarshal(raw, &r); err != nil {
			log.Printf("normalize: skipping malformed request %d: %v", id, err)
			continue
		}
		r.ID = id
		if r.Images == nil {
			r.Images = []string{}
		}
		if err := r.Validate(); err != nil {
			log.Printf("normalize: data-integrity defect: %v", err)
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Offers normalizes the offers subtree, ordered by id ascending. Offers
// missing their relational fields are logged and dropped; unlike requests
// there is no owner view that could surface them for repair.
func Offers(snap store.Snapshot) []models.Offer {
	out := make([]models.Offer, 0, len(snap))
	for key, raw := range snap {
		id, err := strconv.Atoi(key)
		if err != nil {
			log.Printf("normalize: skipping offer with non-numeric key %q", key)
			continue
		}
		var o models.Offer
		if err := json.Unmarshal(raw, &o); err != nil {
			log.Printf("normalize: skipping malformed offer %d: %v", id, err)
			continue
		}
		o.ID = id
		if o.Status == "" {
			o.Status = models.OfferPending
		}
		if err := o.Validate(); err != nil {
			log.Printf("normalize: data-integrity defect: %v", err)
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Profiles normalizes the profiles subtree, keyed by actor id.
func Profiles(snap store.Snapshot) map[string]models.Profile {
	out := make(map[string]models.Profile, len(snap))
	for actorID, raw := range snap {
		var p models.Profile
		if err := json.Unmarshal(raw, &p); err != nil {
			log.Printf("normalize: skipping malformed profile %q: %v", actorID, err)
			continue
		}
		if p.Skills == nil {
			p.Skills = []models.Skill{}
		}
		if p.Communities == nil {
			p.Communities = []string{}
		}
		out[actorID] = p
	}
	return out
}

// Chats normalizes the chats subtree, newest activity first.
func Chats(snap store.Snapshot) []models.Chat {
	out := make([]models.Chat, 0, len(snap))
	for key, raw := range snap {
		var c models.Chat
		if err := json.Unmarshal(raw, &c); err != nil {
			log.Printf("normalize: skipping malformed chat %q: %v", key, err)
			continue
		}
		c.ID = key
		if c.Messages == nil {
			c.Messages = map[string]models.Message{}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Meta.LastMsgTime != out[j].Meta.LastMsgTime {
			return out[i].Meta.LastMsgTime > out[j].Meta.LastMsgTime
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Messages normalizes a chat's messages subtree ordered by timestamp
// ascending, ties broken by the store-assigned insertion key.
func Messages(snap store.Snapshot) []models.Message {
	out := make([]models.Message, 0, len(snap))
	for key, raw := range snap {
		var m models.Message
		if err := json.Unmarshal(raw, &m); err != nil {
			log.Printf("normalize: skipping malformed message %q: %v", key, err)
			continue
		}
		m.ID = key
		out = append(out, m)
	}
	sortMessages(out)
	return out
}

// OrderMessages flattens an already-typed message map into the same
// conversation order Messages produces.
func OrderMessages(msgs map[string]models.Message) []models.Message {
	out := make([]models.Message, 0, len(msgs))
	for key, m := range msgs {
		m.ID = key
		out = append(out, m)
	}
	sortMessages(out)
	return out
}

func sortMessages(out []models.Message) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].ID < out[j].ID
	})
}
