package store

import (
	"encoding/json"
	"sync"

	"github.com/oklog/ulid/v2"
)

// MemoryStore is an in-process Store with the same push semantics as the
// Redis binding. It backs tests and the offline fallback mode; nothing it
// holds survives a restart.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]json.RawMessage
	subscribers map[int]*memSubscriber
	nextSub     int
}

// memSubscriber tracks delivery state so teardown can wait out an invocation
// already in flight. The callback runs without the store lock held, so a
// subscriber may call back into the store from its own delivery.
type memSubscriber struct {
	segments []string
	fn       func(Snapshot)

	mu     sync.Mutex
	dead   bool
	active int
	idle   chan struct{}
}

func (sub *memSubscriber) deliver(snap Snapshot) {
	sub.mu.Lock()
	if sub.dead {
		sub.mu.Unlock()
		return
	}
	sub.active++
	sub.mu.Unlock()

	sub.fn(snap)

	sub.mu.Lock()
	sub.active--
	wake := sub.dead && sub.active == 0
	sub.mu.Unlock()
	if wake {
		close(sub.idle)
	}
}

func (sub *memSubscriber) shutdown() {
	sub.mu.Lock()
	sub.dead = true
	wait := sub.active > 0
	sub.mu.Unlock()
	if wait {
		<-sub.idle
	}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]json.RawMessage),
		subscribers: make(map[int]*memSubscriber),
	}
}

// Subscribe delivers the initial snapshot synchronously before returning, and
// a fresh snapshot after every mutation under the subscribed collection.
// Unsubscribing waits out any delivery already in flight, so the callback
// never fires after the unsubscribe returns. Do not unsubscribe from inside
// the callback itself.
func (s *MemoryStore) Subscribe(path string, onSnapshot func(Snapshot)) (UnsubscribeFunc, error) {
	segments := SplitPath(path)
	if len(segments) == 0 {
		return nil, ErrBadPath
	}

	sub := &memSubscriber{segments: segments, fn: onSnapshot, idle: make(chan struct{})}
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = sub
	snap := s.subtreeLocked(segments)
	s.mu.Unlock()

	sub.deliver(snap)

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
			sub.shutdown()
		})
	}
	return unsub, nil
}

func (s *MemoryStore) Write(path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.writeRaw(path, raw, false)
}

func (s *MemoryStore) Patch(path string, partial map[string]any) error {
	raw, err := json.Marshal(partial)
	if err != nil {
		return err
	}
	return s.writeRaw(path, raw, true)
}

func (s *MemoryStore) writeRaw(path string, raw json.RawMessage, merge bool) error {
	segments := SplitPath(path)
	if len(segments) < 2 {
		return ErrBadPath
	}

	s.mu.Lock()
	collection, child := segments[0], segments[1]
	coll := s.collections[collection]
	if coll == nil {
		coll = make(map[string]json.RawMessage)
		s.collections[collection] = coll
	}
	next, err := graft(coll[child], segments[2:], raw, merge)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	coll[child] = next
	notify := s.pendingNotifiesLocked(collection)
	s.mu.Unlock()

	for _, n := range notify {
		n()
	}
	return nil
}

func (s *MemoryStore) Exists(path string) (bool, error) {
	segments := SplitPath(path)
	if len(segments) < 2 {
		return false, ErrBadPath
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.collections[segments[0]][segments[1]]
	if !ok {
		return false, nil
	}
	if len(segments) == 2 {
		return true, nil
	}
	_, err := descend(raw, segments[2:])
	return err == nil, nil
}

func (s *MemoryStore) Remove(path string) error {
	segments := SplitPath(path)
	if len(segments) != 2 {
		return ErrBadPath
	}
	s.mu.Lock()
	delete(s.collections[segments[0]], segments[1])
	notify := s.pendingNotifiesLocked(segments[0])
	s.mu.Unlock()

	for _, n := range notify {
		n()
	}
	return nil
}

func (s *MemoryStore) Append(path string, value any) (string, error) {
	key := ulid.Make().String()
	raw, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	if err := s.writeRaw(path+"/"+key, raw, false); err != nil {
		return "", err
	}
	return key, nil
}

func (s *MemoryStore) CreateIfAbsent(path string, value any) (bool, error) {
	segments := SplitPath(path)
	if len(segments) != 2 {
		return false, ErrBadPath
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	coll := s.collections[segments[0]]
	if coll == nil {
		coll = make(map[string]json.RawMessage)
		s.collections[segments[0]] = coll
	}
	if _, exists := coll[segments[1]]; exists {
		s.mu.Unlock()
		return false, nil
	}
	coll[segments[1]] = raw
	notify := s.pendingNotifiesLocked(segments[0])
	s.mu.Unlock()

	for _, n := range notify {
		n()
	}
	return true, nil
}

// subtreeLocked assembles the snapshot visible at the given segments.
func (s *MemoryStore) subtreeLocked(segments []string) Snapshot {
	coll := s.collections[segments[0]]
	if len(segments) == 1 {
		snap := make(Snapshot, len(coll))
		for k, v := range coll {
			snap[k] = append(json.RawMessage(nil), v...)
		}
		return snap
	}
	raw, ok := coll[segments[1]]
	if !ok {
		return Snapshot{}
	}
	nested, err := descend(raw, segments[2:])
	if err != nil {
		return Snapshot{}
	}
	var snap Snapshot
	if err := json.Unmarshal(nested, &snap); err != nil {
		return Snapshot{}
	}
	return snap
}

// pendingNotifiesLocked captures snapshot deliveries for every subscriber of
// the mutated collection; the callbacks run after the lock is released so a
// subscriber may call back into the store.
func (s *MemoryStore) pendingNotifiesLocked(collection string) []func() {
	var out []func()
	for _, sub := range s.subscribers {
		if sub.segments[0] != collection {
			continue
		}
		snap := s.subtreeLocked(sub.segments)
		sub := sub
		out = append(out, func() { sub.deliver(snap) })
	}
	return out
}
