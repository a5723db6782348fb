package location

import "time"

// Clock abstracts the time source so attempts can be driven by a fake in
// tests. Millis is monotonic; Now is wall-clock.
type Clock interface {
	Millis() uint64
	Now() time.Time
	Sleep(d time.Duration)
	After(d time.Duration) <-chan time.Time
}

type systemClock struct {
	epoch time.Time
}

func newSystemClock() *systemClock {
	return &systemClock{epoch: time.Now()}
}

func (c *systemClock) Millis() uint64 {
	return uint64(time.Since(c.epoch) / time.Millisecond)
}

func (c *systemClock) Now() time.Time { return time.Now() }

func (c *systemClock) Sleep(d time.Duration) { time.Sleep(d) }

func (c *systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
