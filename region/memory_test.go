package region

import "testing"

func TestMemoryProvider_SecondOpenAttaches(t *testing.T) {
	p := NewMemoryProvider()

	data1, created1, err := p.Open("region-a", 16)
	if err != nil || !created1 {
		t.Fatalf("first open: created=%v err=%v", created1, err)
	}
	data1[0] = 42

	data2, created2, err := p.Open("region-a", 16)
	if err != nil || created2 {
		t.Fatalf("second open: created=%v err=%v", created2, err)
	}
	if data2[0] != 42 {
		t.Fatalf("second open sees stale contents: got %d, want 42", data2[0])
	}
}

func TestMemoryProvider_RemoveThenOpenIsFresh(t *testing.T) {
	p := NewMemoryProvider()

	data, _, _ := p.Open("region-b", 4)
	data[0] = 7
	if err := p.Remove("region-b"); err != nil {
		t.Fatal(err)
	}

	data2, created, err := p.Open("region-b", 4)
	if err != nil || !created {
		t.Fatalf("open after remove: created=%v err=%v", created, err)
	}
	if data2[0] != 0 {
		t.Fatalf("region not fresh after remove: got %d", data2[0])
	}
}

func TestMemoryProvider_CloseAlreadyClosed(t *testing.T) {
	p := NewMemoryProvider()
	if err := p.Close(nil); err != ErrAlreadyClosed {
		t.Fatalf("err=%v, want ErrAlreadyClosed", err)
	}
}
