package reconnect

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestReconnectDelay(t *testing.T) {
	expected := []int{1, 1, 1, 5, 5, 5, 15, 15, 15, 30, 30}
	for i, exp := range expected {
		d := Delay(i)
		if int(d.Seconds()) != exp {
			t.Errorf("attempt %d: expected %d got %v", i, exp, d)
		}
	}
}

func TestLoopResetsAfterConnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var attempts []int
	results := []bool{false, false, true, false}
	calls := 0
	delay := func(a int) time.Duration {
		attempts = append(attempts, a)
		return time.Millisecond
	}
	session := func(context.Context) (bool, error) {
		c := results[calls]
		calls++
		if calls == len(results) {
			cancel()
		}
		return c, errors.New("closed")
	}
	if err := loop(ctx, true, session, delay); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancel, got %v", err)
	}
	want := []int{0, 1, 0}
	if len(attempts) != len(want) {
		t.Fatalf("attempts %v", attempts)
	}
	for i := range want {
		if attempts[i] != want[i] {
			t.Fatalf("attempts %v, want %v", attempts, want)
		}
	}
}

func TestLoopNoRetry(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Loop(context.Background(), false, func(context.Context) (bool, error) {
		calls++
		return false, boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}
