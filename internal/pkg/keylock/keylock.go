package keylock

import "sync"

// KeyedMutex provides a mutex per key so that operations on the same
// occurrence serialize while operations on distinct occurrences run
// independently. Entries are reference counted and removed once the last
// holder releases, so the map does not grow with the occurrence table.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[uint]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// New creates an empty KeyedMutex.
func New() *KeyedMutex {
	return &KeyedMutex{locks: make(map[uint]*lockEntry)}
}

// Lock acquires the mutex for key, blocking behind other holders of the
// same key. It returns the matching unlock function.
func (k *KeyedMutex) Lock(key uint) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Len returns the number of keys currently held or contended.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
