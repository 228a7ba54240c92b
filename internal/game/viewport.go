package game

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Sizer reports the size of the map container.
type Sizer interface {
	Size() (width, height int)
}

// WaitForViewport polls s until it reports a non-zero size, checking every
// interval for at most attempts intervals. It returns false when the size
// never arrived or ctx ended first; callers then keep the default view.
func WaitForViewport(ctx context.Context, clock clockwork.Clock, s Sizer, interval time.Duration, attempts int) bool {
	for range attempts {
		if hasSize(s) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-clock.After(interval):
		}
	}
	return hasSize(s)
}

func hasSize(s Sizer) bool {
	w, h := s.Size()
	return w > 0 && h > 0
}
