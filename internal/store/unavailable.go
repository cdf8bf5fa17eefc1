package store

// Unavailable is the degraded no-store mode: reads deliver one empty snapshot
// so views render empty collections, and every write rejects with
// ErrUnavailable so callers surface "data will not persist" instead of
// pretending success.
type Unavailable struct{}

func (Unavailable) Subscribe(path string, onSnapshot func(Snapshot)) (UnsubscribeFunc, error) {
	onSnapshot(Snapshot{})
	return func() {}, nil
}

func (Unavailable) Write(string, any) error                  { return ErrUnavailable }
func (Unavailable) Patch(string, map[string]any) error       { return ErrUnavailable }
func (Unavailable) Exists(string) (bool, error)              { return false, ErrUnavailable }
func (Unavailable) Remove(string) error                      { return ErrUnavailable }
func (Unavailable) Append(string, any) (string, error)       { return "", ErrUnavailable }
func (Unavailable) CreateIfAbsent(string, any) (bool, error) { return false, ErrUnavailable }
