package transport

import "time"

// Backoff tracks the delay between reconnect attempts: starts at a floor,
// doubles per consecutive failure, caps at a ceiling, resets on success.
type Backoff struct {
	floor time.Duration
	ceil  time.Duration
	cur   time.Duration
}

func NewBackoff(floor, ceil time.Duration) *Backoff {
	if floor <= 0 {
		floor = time.Second
	}
	if ceil < floor {
		ceil = floor
	}
	return &Backoff{floor: floor, ceil: ceil, cur: floor}
}

// Next returns the delay to wait before the upcoming attempt and advances
// the schedule for the next failure.
func (b *Backoff) Next() time.Duration {
	d := b.cur
	b.cur *= 2
	if b.cur > b.ceil {
		b.cur = b.ceil
	}
	return d
}

// Reset returns the schedule to the floor delay. Called after a successful
// connect.
func (b *Backoff) Reset() {
	b.cur = b.floor
}
