// Package store provides the hierarchical push-capable key-value store the
// reconciliation core runs against. Paths are slash-separated ("requests/7",
// "chats/offer-7/meta"); every change to a collection re-delivers the whole
// subtree snapshot to its subscribers, never a delta.
package store

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	// ErrUnavailable is returned by every write when the store is not
	// configured or not reachable. Reads degrade to empty snapshots instead.
	ErrUnavailable = errors.New("store: unavailable")
	// ErrBadPath is returned for paths the operation cannot address.
	ErrBadPath = errors.New("store: bad path")
	// ErrNotFound is returned when a path has no value.
	ErrNotFound = errors.New("store: not found")
)

// Snapshot is a full subtree payload: child key to raw record.
type Snapshot map[string]json.RawMessage

// UnsubscribeFunc tears down a subscription. After it returns, the callback
// is never invoked again.
type UnsubscribeFunc func()

// Store is the remote store surface the core consumes. Implementations must
// deliver an initial snapshot on Subscribe and a fresh one after every change
// under the subscribed path.
type Store interface {
	Subscribe(path string, onSnapshot func(Snapshot)) (UnsubscribeFunc, error)
	// Write fully overwrites the subtree at path.
	Write(path string, value any) error
	// Patch shallow-merges partial into the record at path.
	Patch(path string, partial map[string]any) error
	Exists(path string) (bool, error)
	Remove(path string) error
	// Append stores value under a store-generated unique ordered key and
	// returns that key.
	Append(path string, value any) (string, error)
	// CreateIfAbsent atomically writes value at path only when nothing is
	// there yet, reporting whether the write happened.
	CreateIfAbsent(path string, value any) (bool, error)
}

// SplitPath breaks a store path into its segments. The first segment names
// the collection ("requests", "offers", "profiles", "chats").
func SplitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// descend walks nested raw JSON along the given segments and returns the
// value at the end of the walk.
func descend(raw json.RawMessage, segments []string) (json.RawMessage, error) {
	cur := raw
	for _, seg := range segments {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(cur, &obj); err != nil {
			return nil, ErrNotFound
		}
		next, ok := obj[seg]
		if !ok {
			return nil, ErrNotFound
		}
		cur = next
	}
	return cur, nil
}

// graft re-encodes raw with the value at the given nested segments replaced.
// Intermediate objects are created as needed. merge controls whether value is
// shallow-merged into an existing object instead of replacing it.
func graft(raw json.RawMessage, segments []string, value json.RawMessage, merge bool) (json.RawMessage, error) {
	if len(segments) == 0 {
		if !merge {
			return value, nil
		}
		base := map[string]json.RawMessage{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &base); err != nil || base == nil {
				// Non-object values, including JSON null, are replaced.
				base = map[string]json.RawMessage{}
			}
		}
		var patch map[string]json.RawMessage
		if err := json.Unmarshal(value, &patch); err != nil {
			return nil, err
		}
		for k, v := range patch {
			base[k] = v
		}
		return json.Marshal(base)
	}

	obj := map[string]json.RawMessage{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
			obj = map[string]json.RawMessage{}
		}
	}
	child, err := graft(obj[segments[0]], segments[1:], value, merge)
	if err != nil {
		return nil, err
	}
	obj[segments[0]] = child
	return json.Marshal(obj)
}
