// Package notification delivers member-facing notification events without
// blocking the request that produced them.
package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"JobCard-backend/internal/metrics"
)

// Kind names a notification trigger.
type Kind string

const (
	// KindApplicationSubmitted fires after an application was created
	KindApplicationSubmitted Kind = "application_submitted"
	// KindStatusChanged fires after an application status changed
	KindStatusChanged Kind = "status_changed"
	// KindDocumentUploaded fires after a member's documents were updated
	KindDocumentUploaded Kind = "document_uploaded"
)

// Event is one notification trigger.
type Event struct {
	Kind          Kind      `json:"kind"`
	CardNumber    string    `json:"card_number"`
	JobID         uint      `json:"job_id,omitempty"`
	JobTitle      string    `json:"job_title,omitempty"`
	CompanyName   string    `json:"company_name,omitempty"`
	ApplicationID uint      `json:"application_id,omitempty"`
	Status        string    `json:"status,omitempty"`
	Documents     []string  `json:"documents,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Notifier accepts events. Notify must never block or fail the caller.
type Notifier interface {
	Notify(Event)
}

// Sink delivers events to one destination.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, e Event) error
}

// Dispatcher queues events and delivers them to every sink from a single
// worker goroutine. A full queue drops the event.
type Dispatcher struct {
	sinks   []Sink
	queue   chan Event
	timeout time.Duration

	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	started bool
}

// NewDispatcher creates a dispatcher with the given queue capacity.
func NewDispatcher(queueSize int, sinks ...Sink) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Dispatcher{
		sinks:   sinks,
		queue:   make(chan Event, queueSize),
		timeout: 5 * time.Second,
		done:    make(chan struct{}),
	}
}

// Notify enqueues e without blocking.
func (d *Dispatcher) Notify(e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(e, "dispatcher closed")
		return
	}
	select {
	case d.queue <- e:
	default:
		d.drop(e, "queue full")
	}
}

func (d *Dispatcher) drop(e Event, reason string) {
	metrics.Notifications.WithLabelValues(string(e.Kind), "dropped").Inc()
	slog.Warn("notification dropped", "kind", e.Kind, "card_number", e.CardNumber, "reason", reason)
}

// Start runs the delivery worker until Close is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	go func() {
		defer close(d.done)
		for e := range d.queue {
			d.deliver(ctx, e)
		}
	}()
}

func (d *Dispatcher) deliver(ctx context.Context, e Event) {
	for _, s := range d.sinks {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		err := s.Deliver(sctx, e)
		cancel()
		if err != nil {
			metrics.Notifications.WithLabelValues(string(e.Kind), "failed").Inc()
			slog.Warn("notification delivery failed", "sink", s.Name(), "kind", e.Kind, "card_number", e.CardNumber, "error", err)
			continue
		}
		metrics.Notifications.WithLabelValues(string(e.Kind), "delivered").Inc()
	}
}

// Close stops accepting events and waits for queued ones to be delivered
// or for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Discard is a Notifier that drops every event.
type Discard struct{}

// Notify does nothing
func (Discard) Notify(Event) {}
