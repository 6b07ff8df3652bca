package scheduler

import (
	"fmt"
	"testing"
	"time"
)

func TestKeyedMutex_KeysOnDistinctShardsDoNotContend(t *testing.T) {
	k := newKeyedMutex()

	a := "flt_a"
	var b string
	for i := 0; ; i++ {
		b = fmt.Sprintf("flt_b%d", i)
		if shardFor(b) != shardFor(a) {
			break
		}
	}

	unlockA := k.Lock(a)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := k.Lock(b)
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a key in another shard blocked")
	}
}

// Keys that hash to the same shard serialize with each other.
func TestKeyedMutex_KeysOnSameShardContend(t *testing.T) {
	k := newKeyedMutex()

	a := "flt_a"
	var b string
	for i := 0; ; i++ {
		b = fmt.Sprintf("flt_b%d", i)
		if shardFor(b) == shardFor(a) {
			break
		}
	}

	unlockA := k.Lock(a)
	acquired := make(chan struct{})
	go func() {
		u := k.Lock(b)
		close(acquired)
		u()
	}()
	select {
	case <-acquired:
		t.Fatal("key on the same shard acquired while shard was held")
	case <-time.After(50 * time.Millisecond):
	}
	unlockA()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock not acquired after shard released")
	}
}

func TestKeyedMutex_SameKeyBlocks(t *testing.T) {
	k := newKeyedMutex()
	unlock := k.Lock("flt_same")

	acquired := make(chan struct{})
	go func() {
		u := k.Lock("flt_same")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock acquired while first held")
	case <-time.After(50 * time.Millisecond):
	}
	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Lock never acquired")
	}
}

func TestClock_StrictlyIncreasing(t *testing.T) {
	frozen := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newClock(func() time.Time { return frozen })
	prev := c.Now()
	for i := 0; i < 100; i++ {
		next := c.Now()
		if !next.After(prev) {
			t.Fatalf("clock went %v -> %v", prev, next)
		}
		prev = next
	}
}
