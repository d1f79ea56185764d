package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyedMutexSerialisesSameKey(t *testing.T) {
	m := NewKeyedMutex()
	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Lock(context.Background(), "survey:1:r")
			if err != nil {
				t.Errorf("Lock returned error: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxInside)
	}
	if m.size() != 0 {
		t.Fatalf("expected entries to be cleaned up, %d left", m.size())
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	m := NewKeyedMutex()
	releaseA, err := m.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("Lock a: %v", err)
	}
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	releaseB, err := m.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("expected independent key to lock immediately: %v", err)
	}
	releaseB()
}

func TestKeyedMutexContextCancel(t *testing.T) {
	m := NewKeyedMutex()
	release, err := m.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := m.Lock(ctx, "k"); err == nil {
		t.Fatalf("expected context error while key is held")
	}
	release()
	release() // second call is a no-op

	again, err := m.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("expected lock to be free after release: %v", err)
	}
	again()
	if m.size() != 0 {
		t.Fatalf("expected no entries, got %d", m.size())
	}
}
