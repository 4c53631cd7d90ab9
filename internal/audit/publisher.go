package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Store persists audit events. Swap with concrete storage without touching
// the publisher.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByApplicant(ctx context.Context, applicantIDHash string) ([]Event, error)
}

// Sink receives a copy of every event for fan-out beyond the primary store,
// e.g. the Kafka pipeline feeding the compliance archive.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Publisher captures structured audit events. It is append-only and uses
// the storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store  Store
	sinks  []Sink
	logger *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithSink adds a fan-out sink. Sink failures are logged, not propagated:
// the primary store is the source of truth for the trail.
func WithSink(sink Sink) Option {
	return func(p *Publisher) {
		p.sinks = append(p.sinks, sink)
	}
}

// WithLogger attaches a structured logger for sink failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher constructs an audit publisher over the given store.
func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit records an event, assigning an ID and timestamp when missing.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := p.store.Append(ctx, event); err != nil {
		return err
	}

	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, event); err != nil && p.logger != nil {
			p.logger.ErrorContext(ctx, "audit sink publish failed",
				"event_id", event.ID,
				"action", string(event.Action),
				"error", err,
			)
		}
	}
	return nil
}

// List returns the trail for one hashed applicant ID.
func (p *Publisher) List(ctx context.Context, applicantIDHash string) ([]Event, error) {
	return p.store.ListByApplicant(ctx, applicantIDHash)
}
