package reconcile_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alacritas/backend/internal/cache"
	"alacritas/backend/internal/models"
	"alacritas/backend/internal/reconcile"
	"alacritas/backend/internal/store"
)

var errRemote = errors.New("remote write rejected")

// failingStore wraps the in-memory store and rejects writes on demand, so
// tests can exercise the compensation paths.
type failingStore struct {
	*store.MemoryStore
	failWrites bool
}

func (f *failingStore) Write(path string, value any) error {
	if f.failWrites {
		return errRemote
	}
	return f.MemoryStore.Write(path, value)
}

func (f *failingStore) Remove(path string) error {
	if f.failWrites {
		return errRemote
	}
	return f.MemoryStore.Remove(path)
}

func (f *failingStore) Append(path string, value any) (string, error) {
	if f.failWrites {
		return "", errRemote
	}
	return f.MemoryStore.Append(path, value)
}

func (f *failingStore) CreateIfAbsent(path string, value any) (bool, error) {
	if f.failWrites {
		return false, errRemote
	}
	return f.MemoryStore.CreateIfAbsent(path, value)
}

func newFixture(t *testing.T) (*cache.Cache, *failingStore, *reconcile.Coordinator) {
	t.Helper()
	fs := &failingStore{MemoryStore: store.NewMemoryStore()}
	c := cache.New()
	unbind, err := c.Bind(fs)
	require.NoError(t, err)
	t.Cleanup(unbind)
	return c, fs, reconcile.NewCoordinator(c, fs)
}

func validRequest() models.Request {
	return models.Request{ID: 1, ClientID: "ClientAdmin", Title: "Fix roof", Images: []string{}}
}

// TestSaveRequestPersists verifies the write lands remotely and the bound
// cache converges on the store's snapshot.
func TestSaveRequestPersists(t *testing.T) {
	c, _, co := newFixture(t)

	require.NoError(t, co.SaveRequest(validRequest()))

	snap := c.Snapshot()
	require.Len(t, snap.Requests, 1)
	assert.Equal(t, "Fix roof", snap.Requests[0].Title)
}

// TestSaveRequestRejectsMissingClientID verifies validation happens before
// anything is touched.
func TestSaveRequestRejectsMissingClientID(t *testing.T) {
	c, _, co := newFixture(t)

	err := co.SaveRequest(models.Request{ID: 1, Title: "Orphan"})

	require.Error(t, err)
	assert.Empty(t, c.Snapshot().Requests)
}

// TestSaveRequestInsertFailureCompensates verifies a failed insert leaves no
// phantom record behind.
func TestSaveRequestInsertFailureCompensates(t *testing.T) {
	c, fs, co := newFixture(t)
	fs.failWrites = true

	err := co.SaveRequest(validRequest())

	assert.ErrorIs(t, err, errRemote)
	assert.Empty(t, c.Snapshot().Requests, "optimistic insert must be rolled back")
}

// TestSaveRequestUpdateFailureRestoresPrevious verifies a failed update puts
// the old record back.
func TestSaveRequestUpdateFailureRestoresPrevious(t *testing.T) {
	c, fs, co := newFixture(t)
	require.NoError(t, co.SaveRequest(validRequest()))

	fs.failWrites = true
	changed := validRequest()
	changed.Title = "Renovate roof"
	err := co.SaveRequest(changed)

	assert.ErrorIs(t, err, errRemote)
	snap := c.Snapshot()
	require.Len(t, snap.Requests, 1)
	assert.Equal(t, "Fix roof", snap.Requests[0].Title)
}

// TestDeleteRequestFailureReinstates verifies a failed delete restores the
// record locally.
func TestDeleteRequestFailureReinstates(t *testing.T) {
	c, fs, co := newFixture(t)
	require.NoError(t, co.SaveRequest(validRequest()))

	fs.failWrites = true
	err := co.DeleteRequest(1)

	assert.ErrorIs(t, err, errRemote)
	assert.Len(t, c.Snapshot().Requests, 1)
}

// TestDeleteRequestRemovesRemotely verifies the record is gone from both
// cache and store on success.
func TestDeleteRequestRemovesRemotely(t *testing.T) {
	c, fs, co := newFixture(t)
	require.NoError(t, co.SaveRequest(validRequest()))

	require.NoError(t, co.DeleteRequest(1))

	assert.Empty(t, c.Snapshot().Requests)
	exists, err := fs.Exists("requests/1")
	require.NoError(t, err)
	assert.False(t, exists)
}

// TestSaveOfferInsertFailureCompensates mirrors the request path for offers.
func TestSaveOfferInsertFailureCompensates(t *testing.T) {
	c, fs, co := newFixture(t)
	fs.failWrites = true

	err := co.SaveOffer(models.Offer{ID: 3, RequestID: 1, ProviderID: "ProviderAdmin", Status: models.OfferPending})

	assert.ErrorIs(t, err, errRemote)
	assert.Empty(t, c.Snapshot().Offers)
}

// TestRemoteSnapshotOverridesOptimisticState verifies the store stays the
// final authority: a full snapshot from another writer replaces whatever the
// local cache held.
func TestRemoteSnapshotOverridesOptimisticState(t *testing.T) {
	c, fs, co := newFixture(t)
	require.NoError(t, co.SaveRequest(validRequest()))

	// Another writer replaces the record out from under us.
	theirs := validRequest()
	theirs.Title = "Different title"
	require.NoError(t, fs.MemoryStore.Write("requests/1", theirs))

	snap := c.Snapshot()
	require.Len(t, snap.Requests, 1)
	assert.Equal(t, "Different title", snap.Requests[0].Title)
}

// TestSendMessageAppendsAndUpdatesPreview verifies the append plus meta patch
// pair.
func TestSendMessageAppendsAndUpdatesPreview(t *testing.T) {
	c, fs, co := newFixture(t)
	require.NoError(t, fs.Write("chats/offer-3", models.Chat{
		ID:   "offer-3",
		Meta: models.ChatMeta{ChatID: "offer-3", ClientID: "ClientAdmin", ProviderID: "ProviderAdmin"},
	}))

	key, err := co.SendMessage("offer-3", models.Message{Text: "Hello", SenderID: "ClientAdmin", SenderRole: "client"})

	require.NoError(t, err)
	assert.NotEmpty(t, key)

	snap := c.Snapshot()
	require.Len(t, snap.Chats, 1)
	assert.Equal(t, "Hello", snap.Chats[0].Meta.LastMsg)
	assert.NotZero(t, snap.Chats[0].Meta.LastMsgTime, "timestamp defaulted")
	require.Contains(t, snap.Chats[0].Messages, key)
	assert.Equal(t, "Hello", snap.Chats[0].Messages[key].Text)
}

// TestSendMessageFailureRemovesOptimisticMessage verifies the tentative local
// insert is visible the moment the send starts and is compensated away when
// the remote append fails.
func TestSendMessageFailureRemovesOptimisticMessage(t *testing.T) {
	c, fs, co := newFixture(t)
	require.NoError(t, fs.Write("chats/offer-3", models.Chat{
		ID:   "offer-3",
		Meta: models.ChatMeta{ChatID: "offer-3", ClientID: "ClientAdmin", ProviderID: "ProviderAdmin"},
	}))
	fs.failWrites = true

	var counts []int
	unsub := c.Subscribe(func(snap cache.Collections) {
		if len(snap.Chats) == 1 {
			counts = append(counts, len(snap.Chats[0].Messages))
		}
	})
	defer unsub()

	_, err := co.SendMessage("offer-3", models.Message{Text: "Hello", SenderID: "ClientAdmin", SenderRole: "client"})

	assert.ErrorIs(t, err, errRemote)
	assert.Equal(t, []int{1, 0}, counts, "tentative insert, then compensating removal")
	require.Len(t, c.Snapshot().Chats, 1)
	assert.Empty(t, c.Snapshot().Chats[0].Messages)
}

// TestEnsureProfileBootstrapsOnce verifies first login writes the default
// profile and later calls return the stored one.
func TestEnsureProfileBootstrapsOnce(t *testing.T) {
	c, _, co := newFixture(t)

	p, err := co.EnsureProfile("ClientAdmin")
	require.NoError(t, err)
	assert.Equal(t, "ClientAdmin", p.FullName)

	// Edit the stored profile; EnsureProfile must not overwrite it.
	edited := p
	edited.FullName = "Casey Client"
	require.NoError(t, co.SaveProfile("ClientAdmin", edited))

	again, err := co.EnsureProfile("ClientAdmin")
	require.NoError(t, err)
	assert.Equal(t, "Casey Client", again.FullName)
	assert.Len(t, c.Snapshot().Profiles, 1)
}

// TestEnsureProfilePreservesStoredEdits covers login before the first
// profiles snapshot has arrived: the cache is empty, but the stored profile
// exists and must not be clobbered with the derived default.
func TestEnsureProfilePreservesStoredEdits(t *testing.T) {
	ms := store.NewMemoryStore()
	require.NoError(t, ms.Write("profiles/ClientAdmin", models.Profile{FullName: "Casey Client", Bio: "hand-edited"}))

	// Cold cache, deliberately unbound.
	co := reconcile.NewCoordinator(cache.New(), ms)
	_, err := co.EnsureProfile("ClientAdmin")
	require.NoError(t, err)

	var snap store.Snapshot
	unsub, err := ms.Subscribe("profiles", func(got store.Snapshot) { snap = got })
	require.NoError(t, err)
	defer unsub()

	var stored models.Profile
	require.NoError(t, json.Unmarshal(snap["ClientAdmin"], &stored))
	assert.Equal(t, "Casey Client", stored.FullName)
	assert.Equal(t, "hand-edited", stored.Bio)
}

// TestEnsureProfileSurvivesWriteFailure verifies login still gets a usable
// profile when persistence is down.
func TestEnsureProfileSurvivesWriteFailure(t *testing.T) {
	_, fs, co := newFixture(t)
	fs.failWrites = true

	p, err := co.EnsureProfile("ClientAdmin")

	assert.ErrorIs(t, err, errRemote)
	assert.Equal(t, "ClientAdmin", p.FullName, "derived default still returned")
}
