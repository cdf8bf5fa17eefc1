// Package views derives role-scoped, search-scoped and sort-scoped subsets of
// the shared collections. Every function is pure and total: it takes explicit
// snapshots, never reads ambient state, and yields empty results for empty
// inputs. The store offers no query layer, so all filtering happens here.
package views

import (
	"sort"
	"strings"

	"alacritas/backend/internal/models"
)

// MyRequests returns the requests the actor created, in input order.
func MyRequests(requests []models.Request, actorID string) []models.Request {
	out := make([]models.Request, 0, len(requests))
	for _, r := range requests {
		if r.ClientID == actorID {
			out = append(out, r)
		}
	}
	return out
}

// OthersRequests returns every request the actor did not create. This is a
// strict complement of MyRequests, not an eligibility filter: a provider with
// no requests of their own sees everything.
func OthersRequests(requests []models.Request, actorID string) []models.Request {
	out := make([]models.Request, 0, len(requests))
	for _, r := range requests {
		if r.ClientID != actorID {
			out = append(out, r)
		}
	}
	return out
}

// MyOffers returns the offers the actor sent as a provider.
func MyOffers(offers []models.Offer, actorID string) []models.Offer {
	out := make([]models.Offer, 0, len(offers))
	for _, o := range offers {
		if o.ProviderID == actorID {
			out = append(out, o)
		}
	}
	return out
}

// OffersOnMyRequests returns offers from other actors targeting requests the
// actor owns. Requests without a clientId never join here; they are defects
// already logged by the normalizer.
func OffersOnMyRequests(offers []models.Offer, requests []models.Request, actorID string) []models.Offer {
	byID := make(map[int]models.Request, len(requests))
	for _, r := range requests {
		byID[r.ID] = r
	}
	out := make([]models.Offer, 0, len(offers))
	for _, o := range offers {
		r, ok := byID[o.RequestID]
		if !ok || r.ClientID == "" {
			continue
		}
		if r.ClientID == actorID && o.ProviderID != actorID {
			out = append(out, o)
		}
	}
	return out
}

// GroupByLocation buckets requests by their free-text location label.
func GroupByLocation(requests []models.Request) map[string][]models.Request {
	out := make(map[string][]models.Request)
	for _, r := range requests {
		out[r.Location] = append(out[r.Location], r)
	}
	return out
}

// SortByDate returns a copy sorted by calendar date. The sort is stable, so
// equal dates keep their input relative order.
func SortByDate(requests []models.Request, ascending bool) []models.Request {
	out := append([]models.Request(nil), requests...)
	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return out[i].Date < out[j].Date
		}
		return out[i].Date > out[j].Date
	})
	return out
}

// RequestFilter combines the browse-screen filters. Empty fields match
// everything; populated fields are ANDed together.
type RequestFilter struct {
	Text      string // case-insensitive substring of title or description
	Type      string
	Community string // matched against location
	Date      string
}

// FilterRequests applies a RequestFilter to the given requests.
func FilterRequests(requests []models.Request, f RequestFilter) []models.Request {
	text := strings.ToLower(f.Text)
	out := make([]models.Request, 0, len(requests))
	for _, r := range requests {
		if text != "" &&
			!strings.Contains(strings.ToLower(r.Title), text) &&
			!strings.Contains(strings.ToLower(r.Description), text) {
			continue
		}
		if f.Type != "" && r.Type != f.Type {
			continue
		}
		if f.Community != "" && r.Location != f.Community {
			continue
		}
		if f.Date != "" && r.Date != f.Date {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterOffersByTitle narrows offers by a case-insensitive substring match on
// the title, the way the offers screen search box works.
func FilterOffersByTitle(offers []models.Offer, text string) []models.Offer {
	if text == "" {
		return append([]models.Offer(nil), offers...)
	}
	needle := strings.ToLower(text)
	out := make([]models.Offer, 0, len(offers))
	for _, o := range offers {
		if strings.Contains(strings.ToLower(o.Title), needle) {
			out = append(out, o)
		}
	}
	return out
}

// OfferBuckets splits offers into the three offers-screen tabs.
type OfferBuckets struct {
	Pending []models.Offer // pending and counter: still awaiting a decision
	Ongoing []models.Offer // accepted
	History []models.Offer // declined and cancelled
}

// BucketOffers distributes offers into their display tab by status.
func BucketOffers(offers []models.Offer) OfferBuckets {
	var b OfferBuckets
	for _, o := range offers {
		switch o.Status {
		case models.OfferPending, models.OfferCounter:
			b.Pending = append(b.Pending, o)
		case models.OfferAccepted:
			b.Ongoing = append(b.Ongoing, o)
		case models.OfferDeclined, models.OfferCancelled:
			b.History = append(b.History, o)
		}
	}
	return b
}

// ChatsForActor returns the chats where the actor is one of the two parties.
func ChatsForActor(chats []models.Chat, actorID string) []models.Chat {
	out := make([]models.Chat, 0, len(chats))
	for _, c := range chats {
		if c.Meta.HasParty(actorID) {
			out = append(out, c)
		}
	}
	return out
}

// NextRequestID assigns the id for a new draft: max existing id plus one.
func NextRequestID(requests []models.Request) int {
	max := 0
	for _, r := range requests {
		if r.ID > max {
			max = r.ID
		}
	}
	return max + 1
}

// NextOfferID assigns the id for a new offer, scoped globally across all
// requests: max existing offer id plus one.
func NextOfferID(offers []models.Offer) int {
	max := 0
	for _, o := range offers {
		if o.ID > max {
			max = o.ID
		}
	}
	return max + 1
}
