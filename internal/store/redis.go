package store

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

const (
	hashPrefix   = "rtdb:"
	notifyPrefix = "rtdb:notify:"
)

// RedisStore binds the Store interface to Redis. Each top-level collection
// lives in one hash (field = child key, value = JSON record); every mutation
// publishes the collection name so subscribers re-read the full subtree.
//
// Nested writes below the child level are read-modify-write and are guarded
// by a process-local mutex; cross-process races on the same child are not
// covered, which is why chat creation goes through CreateIfAbsent (HSetNX).
type RedisStore struct {
	rdb *redis.Client
	ctx context.Context

	mu sync.Mutex
}

// NewRedisStore wraps an already-connected client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, ctx: context.Background()}
}

func (s *RedisStore) Subscribe(path string, onSnapshot func(Snapshot)) (UnsubscribeFunc, error) {
	segments := SplitPath(path)
	if len(segments) == 0 {
		return nil, ErrBadPath
	}
	collection := segments[0]

	pubsub := s.rdb.Subscribe(s.ctx, notifyPrefix+collection)
	done := make(chan struct{})
	stopped := make(chan struct{})

	deliver := func() {
		snap, err := s.readSubtree(segments)
		if err != nil {
			log.Printf("store: snapshot read for %s failed: %v", path, err)
			return
		}
		onSnapshot(snap)
	}

	go func() {
		defer close(stopped)
		deliver()
		ch := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				select {
				case <-done:
					return
				default:
				}
				deliver()
			}
		}
	}()

	// Teardown waits for the delivery goroutine to finish so the callback
	// never fires after the unsubscribe returns.
	var once sync.Once
	unsub := func() {
		once.Do(func() {
			close(done)
			pubsub.Close()
			<-stopped
		})
	}
	return unsub, nil
}

func (s *RedisStore) Write(path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.writeRaw(path, raw, false)
}

func (s *RedisStore) Patch(path string, partial map[string]any) error {
	raw, err := json.Marshal(partial)
	if err != nil {
		return err
	}
	return s.writeRaw(path, raw, true)
}

func (s *RedisStore) writeRaw(path string, raw json.RawMessage, merge bool) error {
	segments := SplitPath(path)
	if len(segments) < 2 {
		return ErrBadPath
	}
	collection, child := segments[0], segments[1]

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(segments) == 2 && !merge {
		if err := s.rdb.HSet(s.ctx, hashPrefix+collection, child, string(raw)).Err(); err != nil {
			return err
		}
		return s.notify(collection)
	}

	existing, err := s.rdb.HGet(s.ctx, hashPrefix+collection, child).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	next, err := graft(json.RawMessage(existing), segments[2:], raw, merge)
	if err != nil {
		return err
	}
	if err := s.rdb.HSet(s.ctx, hashPrefix+collection, child, string(next)).Err(); err != nil {
		return err
	}
	return s.notify(collection)
}

func (s *RedisStore) Exists(path string) (bool, error) {
	segments := SplitPath(path)
	if len(segments) < 2 {
		return false, ErrBadPath
	}
	existing, err := s.rdb.HGet(s.ctx, hashPrefix+segments[0], segments[1]).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(segments) == 2 {
		return true, nil
	}
	if _, err := descend(json.RawMessage(existing), segments[2:]); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *RedisStore) Remove(path string) error {
	segments := SplitPath(path)
	if len(segments) != 2 {
		return ErrBadPath
	}
	if err := s.rdb.HDel(s.ctx, hashPrefix+segments[0], segments[1]).Err(); err != nil {
		return err
	}
	return s.notify(segments[0])
}

func (s *RedisStore) Append(path string, value any) (string, error) {
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

func (s *RedisStore) CreateIfAbsent(path string, value any) (bool, error) {
	segments := SplitPath(path)
	if len(segments) != 2 {
		return false, ErrBadPath
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	created, err := s.rdb.HSetNX(s.ctx, hashPrefix+segments[0], segments[1], string(raw)).Result()
	if err != nil {
		return false, err
	}
	if created {
		if err := s.notify(segments[0]); err != nil {
			return true, err
		}
	}
	return created, nil
}

// readSubtree loads the full snapshot at the given path segments.
func (s *RedisStore) readSubtree(segments []string) (Snapshot, error) {
	collection := segments[0]
	if len(segments) == 1 {
		all, err := s.rdb.HGetAll(s.ctx, hashPrefix+collection).Result()
		if err != nil {
			return nil, err
		}
		snap := make(Snapshot, len(all))
		for k, v := range all {
			snap[k] = json.RawMessage(v)
		}
		return snap, nil
	}

	existing, err := s.rdb.HGet(s.ctx, hashPrefix+collection, segments[1]).Result()
	if err == redis.Nil {
		return Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	nested, err := descend(json.RawMessage(existing), segments[2:])
	if err != nil {
		return Snapshot{}, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(nested, &snap); err != nil {
		return Snapshot{}, nil
	}
	return snap, nil
}

func (s *RedisStore) notify(collection string) error {
	return s.rdb.Publish(s.ctx, notifyPrefix+collection, collection).Err()
}
