package worker

import "sync"

// issueLocks serializes work per issue number. Entries are dropped once nobody holds or
// waits on them.
type issueLocks struct {
	mu    sync.Mutex
	locks map[int]*issueLock
}

type issueLock struct {
	mu   sync.Mutex
	refs int
}

func newIssueLocks() *issueLocks {
	return &issueLocks{locks: make(map[int]*issueLock)}
}

// Lock blocks until the issue is free and returns the matching unlock.
func (l *issueLocks) Lock(issueNumber int) func() {
	l.mu.Lock()
	entry, ok := l.locks[issueNumber]
	if !ok {
		entry = &issueLock{}
		l.locks[issueNumber] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()

			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.locks, issueNumber)
			}
			l.mu.Unlock()
		})
	}
}

func (l *issueLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
