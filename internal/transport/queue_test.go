package transport

import "testing"

func TestQueueDropsWhenFull(t *testing.T) {
	q := NewQueue(12)
	var drops int
	q.OnDrop = func() { drops++ }
	for i := 0; i < 12; i++ {
		if !q.Offer([]byte{byte(i)}) {
			t.Fatalf("offer %d rejected", i)
		}
	}
	if q.Offer([]byte{99}) {
		t.Fatalf("13th message should be dropped")
	}
	if drops != 1 {
		t.Fatalf("drop hook called %d times", drops)
	}
	if q.Len() != 12 {
		t.Fatalf("len %d", q.Len())
	}
	for i := 0; i < 12; i++ {
		if m := <-q.C; m[0] != byte(i) {
			t.Fatalf("order: got %d want %d", m[0], i)
		}
	}
}
