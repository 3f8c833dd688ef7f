package nominatim

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/poamaps/incident-etl/internal/domain"
)

// Throttled serializes calls to the inner geocoder and enforces a minimum
// spacing after every call that reaches the provider, success or not. The
// provider blocks clients that exceed one request per second, so this is a
// correctness constraint, not a tuning knob.
type Throttled struct {
	inner    domain.Geocoder
	interval time.Duration
	clock    clockwork.Clock

	mu sync.Mutex
}

// NewThrottled wraps a geocoder with the mandatory request spacing.
func NewThrottled(inner domain.Geocoder, interval time.Duration, clock clockwork.Clock) *Throttled {
	return &Throttled{
		inner:    inner,
		interval: interval,
		clock:    clock,
	}
}

// Resolve performs one serialized geocoding call and sleeps the configured
// interval before releasing the lock to the next caller. Context
// cancellation cuts the sleep short; the result of the completed call is
// still returned.
func (t *Throttled) Resolve(ctx context.Context, street string) (domain.Coordinates, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	coords, found, err := t.inner.Resolve(ctx, street)

	select {
	case <-t.clock.After(t.interval):
	case <-ctx.Done():
	}

	return coords, found, err
}
