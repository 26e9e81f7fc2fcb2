// Package breaker implements the circuit breaker of spec.md §4.10: policy-
// configured breakers that trip on a stream of timestamped events (gas,
// slippage, loss, rate) and reject further actions until a cooldown
// elapses.
package breaker

import (
	"sync"
	"time"

	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

// State is a breaker's lifecycle state.
type State string

const (
	StateClosed   State = "closed"
	StateTripped  State = "tripped"
	StateHalfOpen State = "half_open"
)

// EventKind tags what a TimestampedEvent measures.
type EventKind string

const (
	EventGas      EventKind = "gas"
	EventSlippage EventKind = "slippage"
	EventLoss     EventKind = "loss"
	EventRate     EventKind = "rate"
)

// TimestampedEvent is one observation recorded against a breaker.
type TimestampedEvent struct {
	Kind      EventKind
	Value     float64
	Timestamp time.Time
}

// Policy configures one breaker's trip threshold and recovery behaviour.
type Policy struct {
	Kind          EventKind
	Threshold     float64
	Window        time.Duration
	CooldownAfter time.Duration
}

type breaker struct {
	policy    Policy
	state     State
	events    []TimestampedEvent
	trippedAt time.Time
}

// Manager tracks one breaker per policy ID and serialises access, since
// parallel action branches may consult and record concurrently (spec.md
// §5's shared-resource policy extends to breaker state).
type Manager struct {
	mu       sync.Mutex
	breakers map[string]*breaker
}

// NewManager constructs a Manager with the supplied named policies.
func NewManager(policies map[string]Policy) *Manager {
	m := &Manager{breakers: make(map[string]*breaker, len(policies))}
	for id, p := range policies {
		m.breakers[id] = &breaker{policy: p, state: StateClosed}
	}
	return m
}

// Check is consulted before dispatching an action under breakerID. A
// tripped breaker that has cleared its cooldown transitions to half-open
// and allows one probing attempt through.
func (m *Manager) Check(breakerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.breakers[breakerID]
	if !ok {
		return nil
	}

	switch b.state {
	case StateClosed, StateHalfOpen:
		return nil
	case StateTripped:
		if time.Since(b.trippedAt) >= b.policy.CooldownAfter {
			b.state = StateHalfOpen
			return nil
		}
		return grimoireerrors.NewCircuitBreakerTripped(breakerID, "cooldown has not elapsed")
	default:
		return nil
	}
}

// Record is consulted after an action completes, feeding event into
// breakerID's window and re-evaluating its trip threshold.
func (m *Manager) Record(breakerID string, event TimestampedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.breakers[breakerID]
	if !ok {
		return
	}

	if b.state == StateHalfOpen {
		if event.Value < b.policy.Threshold {
			b.state = StateClosed
			b.events = nil
		} else {
			b.state = StateTripped
			b.trippedAt = event.Timestamp
		}
		return
	}

	cutoff := event.Timestamp.Add(-b.policy.Window)
	kept := b.events[:0]
	for _, e := range b.events {
		if e.Timestamp.After(cutoff) {
			kept = append(kept, e)
		}
	}
	b.events = append(kept, event)

	var total float64
	for _, e := range b.events {
		total += e.Value
	}
	if total >= b.policy.Threshold {
		b.state = StateTripped
		b.trippedAt = event.Timestamp
	}
}

// StateOf reports breakerID's current state, for observability/CLI use.
func (m *Manager) StateOf(breakerID string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.breakers[breakerID]; ok {
		return b.state
	}
	return StateClosed
}
