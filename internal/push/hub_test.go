package push_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alacritas/backend/internal/cache"
	"alacritas/backend/internal/models"
	"alacritas/backend/internal/push"
)

// fakeClient is a channel-backed Client for exercising the hub without a
// socket.
type fakeClient struct {
	actor  string
	send   chan push.ViewPayload
	closed chan struct{}
}

func newFakeClient(actor string) *fakeClient {
	return &fakeClient{
		actor:  actor,
		send:   make(chan push.ViewPayload, 8),
		closed: make(chan struct{}),
	}
}

func (f *fakeClient) ActorID() string                      { return f.actor }
func (f *fakeClient) SendChannel() chan<- push.ViewPayload { return f.send }
func (f *fakeClient) Run()                                 {}
func (f *fakeClient) Close()                               { close(f.closed) }

func (f *fakeClient) next(t *testing.T) push.ViewPayload {
	t.Helper()
	select {
	case p := <-f.send:
		return p
	case <-time.After(time.Second):
		t.Fatal("no payload delivered")
		return push.ViewPayload{}
	}
}

func sampleCollections() cache.Collections {
	return cache.Collections{
		Requests: []models.Request{
			{ID: 1, ClientID: "ClientAdmin", Title: "Fix roof"},
			{ID: 2, ClientID: "ProviderAdmin", Title: "Paint fence"},
		},
		Offers: []models.Offer{
			{ID: 3, RequestID: 1, ProviderID: "ProviderAdmin", Status: models.OfferPending},
		},
		Chats: []models.Chat{
			{ID: "offer-3", Meta: models.ChatMeta{ClientID: "ClientAdmin", ProviderID: "ProviderAdmin"}},
		},
	}
}

// TestBuildPayloadScopesToActor verifies each actor only receives their own
// derived views.
func TestBuildPayloadScopesToActor(t *testing.T) {
	snap := sampleCollections()

	client := push.BuildPayload(snap, "ClientAdmin")
	require.Len(t, client.MyRequests, 1)
	assert.Equal(t, 1, client.MyRequests[0].ID)
	require.Len(t, client.Marketplace, 1)
	assert.Equal(t, 2, client.Marketplace[0].ID)
	assert.Len(t, client.OffersReceived.Pending, 1)
	assert.Empty(t, client.OffersSent.Pending)
	assert.Len(t, client.Chats, 1)

	provider := push.BuildPayload(snap, "ProviderAdmin")
	assert.Len(t, provider.OffersSent.Pending, 1)
	assert.Empty(t, provider.OffersReceived.Pending)

	stranger := push.BuildPayload(snap, "Stranger")
	assert.Empty(t, stranger.MyRequests)
	assert.Len(t, stranger.Marketplace, 2)
	assert.Empty(t, stranger.Chats)
}

// TestHubDeliversSnapshotsToClients verifies registration, fan-out and the
// catch-up delivery for late joiners.
func TestHubDeliversSnapshotsToClients(t *testing.T) {
	hub := push.NewHub()
	go hub.Run()
	defer close(hub.RegisterCh)

	early := newFakeClient("ClientAdmin")
	hub.RegisterCh <- early

	hub.OfferSnapshot(sampleCollections())
	payload := early.next(t)
	assert.Len(t, payload.MyRequests, 1)

	// A client connecting after the snapshot still gets the current state.
	late := newFakeClient("ProviderAdmin")
	hub.RegisterCh <- late
	payload = late.next(t)
	assert.Len(t, payload.OffersSent.Pending, 1)
}

// TestHubUnregisterClosesClient verifies teardown reaches the client.
func TestHubUnregisterClosesClient(t *testing.T) {
	hub := push.NewHub()
	go hub.Run()
	defer close(hub.RegisterCh)

	client := newFakeClient("ClientAdmin")
	hub.RegisterCh <- client
	hub.UnregisterCh <- client

	select {
	case <-client.closed:
	case <-time.After(time.Second):
		t.Fatal("client was not closed")
	}
}

// TestOfferSnapshotCoalesces verifies a flood of snapshots never blocks the
// producer; the latest one wins.
func TestOfferSnapshotCoalesces(t *testing.T) {
	hub := push.NewHub()
	// No Run goroutine: the channel would block a non-coalescing sender.

	for i := 0; i < 100; i++ {
		hub.OfferSnapshot(sampleCollections())
	}

	go hub.Run()
	defer close(hub.RegisterCh)

	client := newFakeClient("ClientAdmin")
	hub.RegisterCh <- client
	payload := client.next(t)
	assert.Len(t, payload.MyRequests, 1)
}
