package shmtab

import (
	"sync"
	"testing"
)

func TestAppendVector_PushBackAndRead(t *testing.T) {
	v := NewAppendVector[int](8)
	for i := 0; i < 8; i++ {
		idx, ok := v.PushBack(i * 10)
		if !ok || idx != i {
			t.Fatalf("push %d: idx=%d ok=%v", i, idx, ok)
		}
	}
	if _, ok := v.PushBack(999); ok {
		t.Fatal("push into full vector should fail")
	}
	for i := 0; i < 8; i++ {
		got, ok := v.At(i)
		if !ok || got != i*10 {
			t.Fatalf("at %d: got=%d ok=%v", i, got, ok)
		}
	}
	if _, ok := v.At(8); ok {
		t.Fatal("at out-of-range should fail")
	}
}

func TestAppendVector_ConcurrentPushBackNoOverwrite(t *testing.T) {
	const n = 5000
	v := NewAppendVector[int](n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(tag int) {
			defer wg.Done()
			idx, ok := v.PushBack(tag)
			if !ok {
				t.Errorf("push %d failed", tag)
				return
			}
			got, _ := v.At(idx)
			if got != tag {
				t.Errorf("slot %d overwritten: got=%d, want=%d", idx, got, tag)
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool, n)
	v.Range(func(_ int, tag int) bool {
		if seen[tag] {
			t.Fatalf("tag %d appears twice", tag)
		}
		seen[tag] = true
		return true
	})
	if len(seen) != n {
		t.Fatalf("saw %d unique tags, want %d", len(seen), n)
	}
}

func TestAppendVector_Snapshot(t *testing.T) {
	v := NewAppendVector[int](4)
	v.PushBack(1)
	v.PushBack(2)
	snap := v.Snapshot()
	if len(snap) != 2 || snap[0] != 1 || snap[1] != 2 {
		t.Fatalf("snapshot=%v", snap)
	}
}

func TestAppendVector_CopyBatch(t *testing.T) {
	v := NewAppendVector[int](16)
	values := make([]int, 10)
	for i := range values {
		values[i] = i * i
	}
	idx, ok, err := v.CopyBatch(values, 4)
	if err != nil || !ok || idx != 0 {
		t.Fatalf("idx=%d ok=%v err=%v", idx, ok, err)
	}
	for i, want := range values {
		got, ok := v.At(idx + i)
		if !ok || got != want {
			t.Fatalf("at %d: got=%d want=%d", i, got, want)
		}
	}
}
