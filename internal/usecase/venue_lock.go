package usecase

import "sync"

// venueLocks serializes commands and ticks per venue. Entries are dropped when unused.
type venueLocks struct {
	mu    sync.Mutex
	locks map[string]*venueLock
}

type venueLock struct {
	mu   sync.Mutex
	refs int
}

func newVenueLocks() *venueLocks {
	return &venueLocks{locks: make(map[string]*venueLock)}
}

func (l *venueLocks) lock(venueID string) (unlock func()) {
	l.mu.Lock()
	entry, ok := l.locks[venueID]
	if !ok {
		entry = &venueLock{}
		l.locks[venueID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, venueID)
		}
		l.mu.Unlock()
	}
}

func (l *venueLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
