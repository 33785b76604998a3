package snapshot

import "sync"

// lazyInit runs a setup step on first use and again on every call until it
// succeeds once.
type lazyInit struct {
	mu   sync.Mutex
	done bool
}

func (l *lazyInit) Do(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return nil
	}
	if err := fn(); err != nil {
		return err
	}
	l.done = true
	return nil
}
