package views_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alacritas/backend/internal/models"
	"alacritas/backend/internal/views"
)

func sampleRequests() []models.Request {
	return []models.Request{
		{ID: 1, ClientID: "ClientAdmin", Title: "Fix roof", Type: "Repair", Location: "Baguio City", Date: "2026-04-01", Description: "Leaking badly"},
		{ID: 2, ClientID: "ProviderAdmin", Title: "Paint fence", Type: "Painting", Location: "La Trinidad", Date: "2026-03-20"},
		{ID: 3, ClientID: "ClientAdmin", Title: "Install outlet", Type: "Electrical", Location: "Baguio City", Date: "2026-03-25"},
		{ID: 4, ClientID: "", Title: "Orphaned job", Type: "Repair", Location: "Baguio City", Date: "2026-03-22"},
	}
}

// TestRequestSplitIsComplement verifies every request lands in exactly one of
// the two role views, whoever the actor is.
func TestRequestSplitIsComplement(t *testing.T) {
	requests := sampleRequests()

	for _, actor := range []string{"ClientAdmin", "ProviderAdmin", "nobody"} {
		mine := views.MyRequests(requests, actor)
		others := views.OthersRequests(requests, actor)

		assert.Equal(t, len(requests), len(mine)+len(others), "actor %s", actor)
		seen := map[int]bool{}
		for _, r := range append(mine, others...) {
			assert.False(t, seen[r.ID], "request %d appeared twice for %s", r.ID, actor)
			seen[r.ID] = true
		}
	}
}

// TestOthersRequestsIncludesOrphans ensures requests with a missing clientId
// still show up in the marketplace view rather than vanishing.
func TestOthersRequestsIncludesOrphans(t *testing.T) {
	others := views.OthersRequests(sampleRequests(), "ClientAdmin")

	ids := make([]int, 0, len(others))
	for _, r := range others {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []int{2, 4}, ids)
}

// TestOffersOnMyRequests verifies the join and that orphaned requests never
// contribute offers to anyone's inbox.
func TestOffersOnMyRequests(t *testing.T) {
	offers := []models.Offer{
		{ID: 1, RequestID: 1, ProviderID: "ProviderAdmin"},
		{ID: 2, RequestID: 2, ProviderID: "ClientAdmin"},
		{ID: 3, RequestID: 4, ProviderID: "ProviderAdmin"},
		{ID: 4, RequestID: 1, ProviderID: "ClientAdmin"},
	}

	got := views.OffersOnMyRequests(offers, sampleRequests(), "ClientAdmin")

	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)
}

// TestFilterRequests checks the browse filters are ANDed and case-insensitive.
func TestFilterRequests(t *testing.T) {
	requests := sampleRequests()

	got := views.FilterRequests(requests, views.RequestFilter{Text: "LEAK"})
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)

	got = views.FilterRequests(requests, views.RequestFilter{Type: "Repair", Community: "Baguio City"})
	require.Len(t, got, 2)

	got = views.FilterRequests(requests, views.RequestFilter{Type: "Repair", Date: "2026-03-22"})
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].ID)

	got = views.FilterRequests(requests, views.RequestFilter{})
	assert.Len(t, got, len(requests), "empty filter matches everything")
}

// TestSortByDateIsStable verifies equal dates keep their input order.
func TestSortByDateIsStable(t *testing.T) {
	requests := []models.Request{
		{ID: 1, Date: "2026-03-20"},
		{ID: 2, Date: "2026-03-10"},
		{ID: 3, Date: "2026-03-20"},
	}

	got := views.SortByDate(requests, true)

	require.Len(t, got, 3)
	assert.Equal(t, []int{2, 1, 3}, []int{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, 1, requests[0].ID, "input must stay untouched")
}

// TestBucketOffers checks the three-tab split: counter offers stay pending,
// declined and cancelled fall into history.
func TestBucketOffers(t *testing.T) {
	offers := []models.Offer{
		{ID: 1, Status: models.OfferPending},
		{ID: 2, Status: models.OfferCounter},
		{ID: 3, Status: models.OfferAccepted},
		{ID: 4, Status: models.OfferDeclined},
		{ID: 5, Status: models.OfferCancelled},
	}

	b := views.BucketOffers(offers)

	assert.Len(t, b.Pending, 2)
	assert.Len(t, b.Ongoing, 1)
	assert.Len(t, b.History, 2)
}

// TestChatsForActor verifies only chat parties see a thread.
func TestChatsForActor(t *testing.T) {
	chats := []models.Chat{
		{ID: "offer-1", Meta: models.ChatMeta{ClientID: "ClientAdmin", ProviderID: "ProviderAdmin"}},
		{ID: "offer-2", Meta: models.ChatMeta{ClientID: "someone", ProviderID: "else"}},
	}

	assert.Len(t, views.ChatsForActor(chats, "ClientAdmin"), 1)
	assert.Len(t, views.ChatsForActor(chats, "ProviderAdmin"), 1)
	assert.Empty(t, views.ChatsForActor(chats, "stranger"))
}

// TestNextIDs verifies id assignment is max plus one, not count plus one, so
// deletions never cause id reuse.
func TestNextIDs(t *testing.T) {
	assert.Equal(t, 1, views.NextRequestID(nil))
	assert.Equal(t, 5, views.NextRequestID(sampleRequests()))

	offers := []models.Offer{{ID: 2}, {ID: 9}}
	assert.Equal(t, 10, views.NextOfferID(offers))
	assert.Equal(t, 1, views.NextOfferID(nil))

	// Sequential creation with no deletions yields strictly increasing ids.
	var created []models.Offer
	for i := 0; i < 5; i++ {
		id := views.NextOfferID(created)
		if len(created) > 0 {
			assert.Equal(t, created[len(created)-1].ID+1, id)
		}
		created = append(created, models.Offer{ID: id})
	}
}

// TestFilterOffersByTitle verifies the offers search box match.
func TestFilterOffersByTitle(t *testing.T) {
	offers := []models.Offer{
		{ID: 1, Title: "Fix roof"},
		{ID: 2, Title: "Paint fence"},
	}

	got := views.FilterOffersByTitle(offers, "roof")
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)

	assert.Len(t, views.FilterOffersByTitle(offers, ""), 2)
}

// TestGroupByLocation buckets by the free-text location label.
func TestGroupByLocation(t *testing.T) {
	groups := views.GroupByLocation(sampleRequests())

	assert.Len(t, groups["Baguio City"], 3)
	assert.Len(t, groups["La Trinidad"], 1)
}
