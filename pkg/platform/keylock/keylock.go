// Package keylock serializes work per key inside one process.
package keylock

import (
	"hash/fnv"
	"sync"
)

const defaultShards = 64

// Striped maps keys onto a fixed set of mutexes. Two keys may share a stripe,
// so callers must never hold one key while taking another.
type Striped struct {
	stripes []sync.Mutex
}

// New returns a Striped with n stripes, or a default count when n <= 0.
func New(n int) *Striped {
	if n <= 0 {
		n = defaultShards
	}
	return &Striped{stripes: make([]sync.Mutex, n)}
}

func (s *Striped) Lock(key string) {
	s.stripes[s.index(key)].Lock()
}

func (s *Striped) Unlock(key string) {
	s.stripes[s.index(key)].Unlock()
}

// Do runs fn while holding key.
func (s *Striped) Do(key string, fn func() error) error {
	s.Lock(key)
	defer s.Unlock(key)
	return fn()
}

func (s *Striped) index(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(s.stripes)))
}
