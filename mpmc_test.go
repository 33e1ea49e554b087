package shmtab

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMPMCRing_PushPopSingleThreaded(t *testing.T) {
	r, err := NewMPMCRing[int](4)
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
}

func TestMPMCRing_ConcurrentProducersAndConsumers(t *testing.T) {
	const capacity = 256
	const producers = 4
	const perProducer = 2000
	const total = producers * perProducer

	r, err := NewMPMCRing[int](capacity)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				for !r.Push(base*perProducer + i) {
					time.Sleep(time.Microsecond)
				}
			}
		}(p)
	}

	var received [total]int32
	var popped int64
	var consumeWG sync.WaitGroup
	for c := 0; c < 4; c++ {
		consumeWG.Add(1)
		go func() {
			defer consumeWG.Done()
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

	wg.Wait()
	consumeWG.Wait()

	for i, count := range received {
		if count != 1 {
			t.Fatalf("item %d delivered %d times, want exactly 1", i, count)
		}
	}
}
