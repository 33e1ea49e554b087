package shmtab

import (
	"sync"
	"testing"
	"time"
)

func TestBlock_CreateThenOpen(t *testing.T) {
	spec := ContainerSpec[int]{
		Size:  8,
		Build: func(body []byte) int { body[0] = 7; return 7 },
		Attach: func(body []byte) int {
			return int(body[0])
		},
	}
	region := make([]byte, BlockFootprint(spec.Size))

	created, status := CreateBlock(region, spec.Build)
	if !status.OK() || created.Value() != 7 {
		t.Fatalf("create: status=%v value=%d", status, created.Value())
	}

	attached, status := OpenBlock(region, NewBackoff(time.Second), spec.Attach)
	if !status.OK() || attached.Value() != 7 {
		t.Fatalf("open: status=%v value=%d", status, attached.Value())
	}
}

func TestBlock_OpenWaitsForBuild(t *testing.T) {
	region := make([]byte, BlockFootprint(8))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(20 * time.Millisecond)
		CreateBlock(region, func(body []byte) int { body[0] = 42; return 42 })
	}()

	block, status := OpenBlock(region, NewBackoff(time.Second), func(body []byte) int {
		return int(body[0])
	})
	wg.Wait()
	if !status.OK() || block.Value() != 42 {
		t.Fatalf("status=%v value=%d", status, block.Value())
	}
}

func TestBlock_OpenTimesOutWithoutBuild(t *testing.T) {
	region := make([]byte, BlockFootprint(8))
	_, status := OpenBlock(region, NewBackoff(50*time.Millisecond), func(body []byte) int {
		return int(body[0])
	})
	if status != StatusTimeout {
		t.Fatalf("status=%v, want TIMEOUT", status)
	}
}
