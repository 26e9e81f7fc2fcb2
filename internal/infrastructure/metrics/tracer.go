package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/grimoire-lang/grimoire/internal/ports"
)

// SpanRecord is one completed span captured by Tracer, for tests and the
// dashboard's run-detail view.
type SpanRecord struct {
	Name     string
	Started  time.Time
	Ended    time.Time
	Status   ports.SpanStatus
	Message  string
}

// Tracer is an in-process ports.Tracer that records completed spans instead
// of shipping them to a backend. Inject/Extract are no-ops since there is no
// wire boundary to carry span context across in this deployment.
type Tracer struct {
	mu    sync.Mutex
	spans []SpanRecord
}

// NewTracer returns an empty in-memory tracer.
func NewTracer() *Tracer {
	return &Tracer{}
}

var _ ports.Tracer = (*Tracer)(nil)

// StartSpan implements ports.Tracer.
func (t *Tracer) StartSpan(ctx context.Context, name string, _ ...interface{}) (context.Context, ports.Span) {
	return ctx, &span{tracer: t, record: SpanRecord{Name: name, Started: time.Now(), Status: ports.SpanStatusOK}}
}

// Inject implements ports.Tracer as a no-op.
func (t *Tracer) Inject(ctx context.Context, _ interface{}) error {
	return nil
}

// Extract implements ports.Tracer as a no-op.
func (t *Tracer) Extract(ctx context.Context, _ interface{}) (context.Context, error) {
	return ctx, nil
}

// Spans returns every span recorded so far, in completion order.
func (t *Tracer) Spans() []SpanRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]SpanRecord, len(t.spans))
	copy(out, t.spans)
	return out
}

type span struct {
	tracer *Tracer
	record SpanRecord
}

var _ ports.Span = (*span)(nil)

func (s *span) SetAttribute(key string, value interface{}) {}

func (s *span) SetStatus(status ports.SpanStatus, message string) {
	s.record.Status = status
	s.record.Message = message
}

func (s *span) End() {
	s.record.Ended = time.Now()
	s.tracer.mu.Lock()
	s.tracer.spans = append(s.tracer.spans, s.record)
	s.tracer.mu.Unlock()
}
