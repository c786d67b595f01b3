package services

import (
	"hash/fnv"
	"sync"
)

const stripeCount = 64

// stripedMutex serializes work per key by hashing the key onto a fixed set
// of mutexes. Distinct keys may share a stripe; that only costs contention,
// never correctness. The zero value is ready to use.
type stripedMutex struct {
	stripes [stripeCount]sync.Mutex
}

func (m *stripedMutex) lock(key string) (unlock func()) {
	h := fnv.New32a()
	h.Write([]byte(key))
	mu := &m.stripes[h.Sum32()%stripeCount]
	mu.Lock()
	return mu.Unlock
}
