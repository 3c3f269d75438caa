package merge

import (
	"sync"
	"testing"
)

func TestKeyedLocksSerializesPerKey(t *testing.T) {
	locks := newKeyedLocks()

	var mu sync.Mutex
	counters := map[int64]int{}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		for _, id := range []int64{1, 2} {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				locks.Lock(id)
				defer locks.Unlock(id)
				mu.Lock()
				counters[id]++
				mu.Unlock()
			}(id)
		}
	}
	wg.Wait()

	if counters[1] != 50 || counters[2] != 50 {
		t.Errorf("counters = %v, want 50 per key", counters)
	}
}

func TestKeyedLocksReleasesEntries(t *testing.T) {
	locks := newKeyedLocks()

	locks.Lock(1)
	locks.Unlock(1)
	locks.Lock(1)
	locks.Unlock(1)

	locks.mu.Lock()
	n := len(locks.locks)
	locks.mu.Unlock()
	if n != 0 {
		t.Errorf("lock table has %d entries after release, want 0", n)
	}
}
