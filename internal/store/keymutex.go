package store

import "sync"

// keyMutex serializes writes per merchant without blocking other merchants.
// Entries are never removed: the merchant population is small and bounded by
// the number of stores that installed the app.
type keyMutex struct {
	mus sync.Map // merchant id -> *sync.Mutex
}

func (k *keyMutex) Lock(key string) *sync.Mutex {
	mu, _ := k.mus.LoadOrStore(key, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m
}
