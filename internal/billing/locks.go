package billing

import "sync"

// eventLocks serializes work per event. Entries are reference counted and
// dropped once nobody holds or waits for them.
type eventLocks struct {
	mu    sync.Mutex
	locks map[string]*eventLock
}

type eventLock struct {
	mu   sync.Mutex
	refs int
}

func (l *eventLocks) lock(eventID string) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*eventLock)
	}
	el, ok := l.locks[eventID]
	if !ok {
		el = &eventLock{}
		l.locks[eventID] = el
	}
	el.refs++
	l.mu.Unlock()

	el.mu.Lock()
	return func() {
		el.mu.Unlock()
		l.mu.Lock()
		el.refs--
		if el.refs == 0 {
			delete(l.locks, eventID)
		}
		l.mu.Unlock()
	}
}

func (l *eventLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
