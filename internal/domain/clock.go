package domain

import (
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

type clockRef struct{ clockwork.Clock }

// eventClock stamps round events. Sessions finish rounds on their own
// goroutines, so the clock is swapped atomically.
var eventClock atomic.Pointer[clockRef]

func init() { SetClock(nil) }

// SetClock replaces the clock used to stamp RoundEvents. nil restores the
// real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	eventClock.Store(&clockRef{c})
}

func now() time.Time { return eventClock.Load().Now().UTC() }
