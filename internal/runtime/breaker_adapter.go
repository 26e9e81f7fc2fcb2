package runtime

import (
	"time"

	"github.com/grimoire-lang/grimoire/internal/ports"
	"github.com/grimoire-lang/grimoire/internal/runtime/breaker"
)

// BreakerAdapter exposes a *breaker.Manager as a ports.CircuitBreakerManager,
// translating the port's primitive-typed Record call into the breaker
// package's TimestampedEvent shape.
type BreakerAdapter struct {
	manager *breaker.Manager
}

// NewBreakerAdapter wraps manager for use wherever a ports.CircuitBreakerManager
// is required.
func NewBreakerAdapter(manager *breaker.Manager) *BreakerAdapter {
	return &BreakerAdapter{manager: manager}
}

func (a *BreakerAdapter) Check(breakerID string) error {
	return a.manager.Check(breakerID)
}

func (a *BreakerAdapter) Record(breakerID string, kind string, value float64, at time.Time) {
	a.manager.Record(breakerID, breaker.TimestampedEvent{
		Kind:      breaker.EventKind(kind),
		Value:     value,
		Timestamp: at,
	})
}

var _ ports.CircuitBreakerManager = (*BreakerAdapter)(nil)
