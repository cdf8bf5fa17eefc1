// Package cache holds the client-side mirror of the remote collections. The
// store owns every entity; this is a transient, possibly-stale copy that is
// fully replaced whenever a snapshot arrives. Readers take explicit copies so
// view derivation stays pure.
package cache

import (
	"sync"

	"alacritas/backend/internal/models"
	"alacritas/backend/internal/normalize"
	"alacritas/backend/internal/store"
)

// Collections is one coherent view of everything the cache holds.
type Collections struct {
	Requests []models.Request
	Offers   []models.Offer
	Profiles map[string]models.Profile
	Chats    []models.Chat
}

// Cache is the shared mutable state behind every view. Snapshot replacement
// and optimistic upserts both notify subscribers.
type Cache struct {
	mu          sync.RWMutex
	c           Collections
	subscribers map[int]*subscriber
	nextSub     int
}

// subscriber tracks delivery state so teardown can wait out an invocation
// already in flight. The callback runs without any lock held, so an observer
// may mutate the cache again from inside its own delivery.
type subscriber struct {
	fn func(Collections)

	mu     sync.Mutex
	dead   bool
	active int
	idle   chan struct{}
}

func (s *subscriber) deliver(snap Collections) {
	s.mu.Lock()
	if s.dead {
		s.mu.Unlock()
		return
	}
	s.active++
	s.mu.Unlock()

	s.fn(snap)

	s.mu.Lock()
	s.active--
	wake := s.dead && s.active == 0
	s.mu.Unlock()
	if wake {
		close(s.idle)
	}
}

func (s *subscriber) shutdown() {
	s.mu.Lock()
	s.dead = true
	wait := s.active > 0
	s.mu.Unlock()
	if wait {
		<-s.idle
	}
}

func New() *Cache {
	return &Cache{
		c: Collections{
			Profiles: map[string]models.Profile{},
		},
		subscribers: make(map[int]*subscriber),
	}
}

// Snapshot returns a copy of the current collections. Mutating the copy does
// not affect the cache.
func (c *Cache) Snapshot() Collections {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.copyLocked()
}

func (c *Cache) copyLocked() Collections {
	out := Collections{
		Requests: append([]models.Request(nil), c.c.Requests...),
		Offers:   append([]models.Offer(nil), c.c.Offers...),
		Chats:    append([]models.Chat(nil), c.c.Chats...),
		Profiles: make(map[string]models.Profile, len(c.c.Profiles)),
	}
	for k, v := range c.c.Profiles {
		out.Profiles[k] = v
	}
	return out
}

// Subscribe registers an observer notified after every change. The returned
// function tears the subscription down, waiting out any delivery already in
// flight; the observer is never called after it returns. Teardown must not be
// invoked from inside the observer itself.
func (c *Cache) Subscribe(fn func(Collections)) func() {
	sub := &subscriber{fn: fn, idle: make(chan struct{})}
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = sub
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, id)
			c.mu.Unlock()
			sub.shutdown()
		})
	}
}

func (c *Cache) notifyLocked() []func() {
	snap := c.copyLocked()
	out := make([]func(), 0, len(c.subscribers))
	for _, sub := range c.subscribers {
		sub := sub
		out = append(out, func() { sub.deliver(snap) })
	}
	return out
}

func (c *Cache) apply(mutate func()) {
	c.mu.Lock()
	mutate()
	notify := c.notifyLocked()
	c.mu.Unlock()
	for _, n := range notify {
		n()
	}
}

// ReplaceRequests installs a fresh full snapshot. Any optimistic change not
// yet reflected remotely is visibly reverted until its write lands; the
// remote store is the final authority.
func (c *Cache) ReplaceRequests(requests []models.Request) {
	c.apply(func() { c.c.Requests = requests })
}

func (c *Cache) ReplaceOffers(offers []models.Offer) {
	c.apply(func() { c.c.Offers = offers })
}

func (c *Cache) ReplaceProfiles(profiles map[string]models.Profile) {
	c.apply(func() { c.c.Profiles = profiles })
}

func (c *Cache) ReplaceChats(chats []models.Chat) {
	c.apply(func() { c.c.Chats = chats })
}

// UpsertRequest applies an optimistic local change: insert if absent,
// replace by id otherwise.
func (c *Cache) UpsertRequest(r models.Request) {
	c.apply(func() {
		for i := range c.c.Requests {
			if c.c.Requests[i].ID == r.ID {
				c.c.Requests[i] = r
				return
			}
		}
		c.c.Requests = append(c.c.Requests, r)
	})
}

// DropRequest removes a request locally, returning whether it was present.
func (c *Cache) DropRequest(id int) bool {
	present := false
	c.apply(func() {
		for i := range c.c.Requests {
			if c.c.Requests[i].ID == id {
				c.c.Requests = append(c.c.Requests[:i], c.c.Requests[i+1:]...)
				present = true
				return
			}
		}
	})
	return present
}

func (c *Cache) UpsertOffer(o models.Offer) {
	c.apply(func() {
		for i := range c.c.Offers {
			if c.c.Offers[i].ID == o.ID {
				c.c.Offers[i] = o
				return
			}
		}
		c.c.Offers = append(c.c.Offers, o)
	})
}

func (c *Cache) UpsertProfile(actorID string, p models.Profile) {
	c.apply(func() { c.c.Profiles[actorID] = p })
}

// UpsertChatMessage inserts a message into a cached chat's thread under the
// given key. The message map is copied on write because snapshots share it.
// Unknown chat ids are ignored; the thread appears with the next snapshot.
func (c *Cache) UpsertChatMessage(chatID, key string, m models.Message) {
	c.apply(func() {
		for i := range c.c.Chats {
			if c.c.Chats[i].ID != chatID {
				continue
			}
			msgs := make(map[string]models.Message, len(c.c.Chats[i].Messages)+1)
			for k, v := range c.c.Chats[i].Messages {
				msgs[k] = v
			}
			msgs[key] = m
			c.c.Chats[i].Messages = msgs
			return
		}
	})
}

// DropChatMessage removes a message from a cached chat's thread, undoing an
// optimistic insert whose remote write failed.
func (c *Cache) DropChatMessage(chatID, key string) {
	c.apply(func() {
		for i := range c.c.Chats {
			if c.c.Chats[i].ID != chatID {
				continue
			}
			if _, ok := c.c.Chats[i].Messages[key]; !ok {
				return
			}
			msgs := make(map[string]models.Message, len(c.c.Chats[i].Messages))
			for k, v := range c.c.Chats[i].Messages {
				if k != key {
					msgs[k] = v
				}
			}
			c.c.Chats[i].Messages = msgs
			return
		}
	})
}

// Bind subscribes the cache to the four remote collections. Each delivery
// fully replaces the corresponding local collection. The returned function
// detaches all four subscriptions.
func (c *Cache) Bind(st store.Store) (func(), error) {
	var unsubs []store.UnsubscribeFunc

	type binding struct {
		path  string
		apply func(store.Snapshot)
	}
	bindings := []binding{
		{"requests", func(s store.Snapshot) { c.ReplaceRequests(normalize.Requests(s)) }},
		{"offers", func(s store.Snapshot) { c.ReplaceOffers(normalize.Offers(s)) }},
		{"profiles", func(s store.Snapshot) { c.ReplaceProfiles(normalize.Profiles(s)) }},
		{"chats", func(s store.Snapshot) { c.ReplaceChats(normalize.Chats(s)) }},
	}
	for _, b := range bindings {
		unsub, err := st.Subscribe(b.path, b.apply)
		if err != nil {
			for _, u := range unsubs {
				u()
			}
			return nil, err
		}
		unsubs = append(unsubs, unsub)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, u := range unsubs {
				u()
			}
		})
	}, nil
}
