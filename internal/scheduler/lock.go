package scheduler

import (
	"hash/fnv"
	"sync"
)

const lockShards = 256

// keyedMutex serializes work per key using a fixed set of shards, so two
// unrelated ids contend only when they hash to the same shard.
type keyedMutex struct {
	shards [lockShards]sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{}
}

func shardFor(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32() % lockShards
}

// Lock acquires the shard for key and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	m := &k.shards[shardFor(key)]
	m.Lock()
	return m.Unlock
}
