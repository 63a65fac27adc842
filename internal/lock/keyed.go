package lock

import "sync"

// Keyed hands out one mutex per key. Entries are dropped once no goroutine holds or waits on them.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyed() *Keyed {
	return &Keyed{entries: map[string]*entry{}}
}

// Lock blocks until key is free and returns the matching unlock.
func (k *Keyed) Lock(key string) (unlock func()) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			k.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(k.entries, key)
			}
			k.mu.Unlock()
		})
	}
}

func (k *Keyed) len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
