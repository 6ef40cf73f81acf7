package locks

import (
	"sync"
)

// Keyed hands out one mutex per key. The zero value is ready to use.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// returns mutex for key (creates if needed)
func (k *Keyed) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	if l, ok := k.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	k.locks[key] = l
	return l
}

// Lock acquires the mutex for key and returns its release func.
func (k *Keyed) Lock(key string) (unlock func()) {
	l := k.get(key)
	l.Lock()
	return l.Unlock
}

// Size is the number of keys that have ever been locked.
func (k *Keyed) Size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
