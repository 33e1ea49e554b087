package shmtab

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRing_PushPopSingleThreaded(t *testing.T) {
	r, err := NewRing[int](4)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if !r.Push(i) {
			t.Fatalf("push %d failed", i)
		}
	}
	if r.Push(99) {
		t.Fatal("push into full ring should fail")
	}
	for i := 0; i < 4; i++ {
		v, ok := r.Pop()
		if !ok || v != i {
			t.Fatalf("pop %d: v=%d ok=%v", i, v, ok)
		}
	}
	if _, ok := r.Pop(); ok {
		t.Fatal("pop from empty ring should fail")
	}
}

func TestRing_InvalidCapacity(t *testing.T) {
	if _, err := NewRing[int](3); err != ErrInvalidRingCapacity {
		t.Fatalf("err=%v, want ErrInvalidRingCapacity", err)
	}
}

func TestRing_SPMCExclusiveDelivery(t *testing.T) {
	const capacity = 1024
	const total = 10000
	const consumers = 4

	r, err := NewRing[int](capacity)
	if err != nil {
		t.Fatal(err)
	}

	var received [total]int32
	var wg sync.WaitGroup
	var popped int64

	for c := 0; c < consumers; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			backoff := NewBackoff(5 * time.Second)
			for atomic.LoadInt64(&popped) < total {
				v, status := r.PopWait(backoff)
				if status != StatusSuccess {
					continue
				}
				backoff.Reset(5 * time.Second)
				atomic.AddInt32(&received[v], 1)
				atomic.AddInt64(&popped, 1)
			}
		}()
	}

	for i := 0; i < total; i++ {
		for !r.Push(i) {
			time.Sleep(time.Microsecond)
		}
	}
	wg.Wait()

	for i, count := range received {
		if count != 1 {
			t.Fatalf("item %d delivered %d times, want exactly 1", i, count)
		}
	}
}
