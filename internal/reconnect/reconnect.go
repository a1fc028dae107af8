package reconnect

import (
	"context"
	"time"
)

// Schedule defines the backoff durations for successive reconnect attempts.
var Schedule = []time.Duration{
	time.Second, time.Second, time.Second,
	5 * time.Second, 5 * time.Second, 5 * time.Second,
	15 * time.Second, 15 * time.Second, 15 * time.Second,
}

// Delay returns the backoff duration for the given attempt.
// Attempts beyond the length of the schedule default to 30 seconds.
func Delay(attempt int) time.Duration {
	if attempt < len(Schedule) {
		return Schedule[attempt]
	}
	return 30 * time.Second
}

// Loop calls session until ctx is done. session reports whether a connection
// was established before it returned; an established session resets the
// backoff so the next attempt starts from the head of the schedule.
// When retry is false Loop returns after the first session.
func Loop(ctx context.Context, retry bool, session func(context.Context) (bool, error)) error {
	return loop(ctx, retry, session, Delay)
}

func loop(ctx context.Context, retry bool, session func(context.Context) (bool, error), delay func(int) time.Duration) error {
	attempt := 0
	for {
		connected, err := session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !retry {
			return err
		}
		if connected {
			attempt = 0
		}
		d := delay(attempt)
		attempt++
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
