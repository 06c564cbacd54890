package locks

import (
	"sync"
	"testing"
	"time"
)

func TestLockSerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	const workers = 8
	const iterations = 200
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				unlock := km.Lock("app-1")
				counter++
				unlock()
			}
		}()
	}
	wg.Wait()

	if counter != workers*iterations {
		t.Fatalf("counter = %d, want %d", counter, workers*iterations)
	}
}

func TestDifferentKeysDoNotBlock(t *testing.T) {
	km := NewKeyedMutex()

	unlockA := km.Lock("app-a")
	defer unlockA()

	acquired := make(chan struct{})
	go func() {
		unlockB := km.Lock("app-b")
		unlockB()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestEntriesAreReleased(t *testing.T) {
	km := NewKeyedMutex()

	for i := 0; i < 100; i++ {
		unlock := km.Lock("app-1")
		unlock()
	}

	km.mu.Lock()
	defer km.mu.Unlock()
	if len(km.locks) != 0 {
		t.Fatalf("lock table holds %d entries after release, want 0", len(km.locks))
	}
}
