package store

import "sync"

// KeyedMutex serializes read-modify-write cycles per document key. Two
// request sources mutate the same sessions and quotes concurrently (chat
// turns and webhook deliveries), and the store itself offers no
// compare-and-swap, so every state-machine operation takes the key's lock
// before touching the document.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedMutex creates an empty keyed mutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use.
// Locks are retained for the life of the process; the key space is bounded
// by active sessions and quotes.
func (k *KeyedMutex) Lock(key string) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
}

// Unlock releases the mutex for key. It panics if Lock was not called first,
// matching sync.Mutex semantics.
func (k *KeyedMutex) Unlock(key string) {
	k.mu.Lock()
	m := k.locks[key]
	k.mu.Unlock()
	m.Unlock()
}
