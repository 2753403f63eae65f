package live

import "time"

// Clock abstracts time so the tick loop and delays can run against a fake
// in tests.
type Clock interface {
	Now() time.Time
	Ticker(d time.Duration) Ticker
	After(d time.Duration) <-chan time.Time
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realClock struct{}

// RealClock is the production Clock.
var RealClock Clock = realClock{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Ticker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

type realTicker struct{ t *time.Ticker }

func (rt *realTicker) C() <-chan time.Time { return rt.t.C }
func (rt *realTicker) Stop()               { rt.t.Stop() }
