package keylock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockSerializesSameKey(t *testing.T) {
	km := New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock(7)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, km.Len())
}

func TestLockIndependentKeys(t *testing.T) {
	km := New()

	unlock := km.Lock(1)
	defer unlock()

	done := make(chan struct{})
	go func() {
		u := km.Lock(2)
		u()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key should not block")
	}
}

func TestLockBlocksUntilUnlocked(t *testing.T) {
	km := New()

	unlock := km.Lock(3)

	acquired := make(chan struct{})
	go func() {
		u := km.Lock(3)
		u()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired the lock while it was held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second holder never acquired the lock")
	}

	assert.Equal(t, 0, km.Len())
}
