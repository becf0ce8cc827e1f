// Package compliance writes audit events synchronously into the outbox.
//
// Emit is called inside the transaction that changes state. A failed write is
// returned to the caller, whose transaction then rolls back: no state change
// commits without its event.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	audit "campusgate/pkg/platform/audit"
	"campusgate/pkg/requestcontext"
)

var errNoAction = errors.New("audit event requires Action")

type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// New wraps store, which should share the caller's transaction.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Action == "" {
		return errNoAction
	}
	stamp(ctx, &event)

	start := time.Now()
	if err := p.store.Append(ctx, event); err != nil {
		if p.metrics != nil {
			p.metrics.PersistFailures.Inc()
		}
		p.logger.ErrorContext(ctx, "audit event not persisted",
			"action", event.Action,
			"subject", event.Subject,
			"account_id", event.AccountID,
			"error", err,
		)
		return fmt.Errorf("persist audit event %s: %w", event.Action, err)
	}
	if p.metrics != nil {
		p.metrics.PersistDuration.Observe(time.Since(start).Seconds())
		p.metrics.EventsEmitted.WithLabelValues(string(event.Category)).Inc()
	}
	return nil
}

// stamp fills what the request already knows: its pinned time, its id, and
// the category implied by the action.
func stamp(ctx context.Context, event *audit.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	event.Category = audit.AuditEvent(event.Action).Category()
}
