package identity

import "time"

// Clock abstracts time for the cooldown and reset-code TTL logic so tests
// can replay exact timelines.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// SystemClock is the production clock.
var SystemClock Clock = realClock{}
