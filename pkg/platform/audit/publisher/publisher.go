// Package publisher buffers audit events and delivers them to a sink in the background.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	dErrors "f2f-cri/pkg/domain-errors"
	audit "f2f-cri/pkg/platform/audit"
	"f2f-cri/pkg/platform/audit/metrics"
)

// Sink durably delivers one event.
type Sink interface {
	Send(ctx context.Context, event audit.Event) error
}

// Publisher hands events to a Sink, synchronously by default or through a
// bounded buffer drained by one goroutine when WithAsyncBuffer is set.
type Publisher struct {
	sink        Sink
	events      chan audit.Event
	wg          sync.WaitGroup
	logger      *slog.Logger
	metrics     *metrics.Metrics
	async       bool
	sendTimeout time.Duration

	mu     sync.RWMutex
	closed bool
}

type Option func(*Publisher)

// WithAsyncBuffer enables background delivery with a buffer of size events.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan audit.Event, size)
			p.async = true
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithSendTimeout bounds each background delivery attempt.
func WithSendTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		p.sendTimeout = d
	}
}

func New(sink Sink, opts ...Option) *Publisher {
	p := &Publisher{sink: sink, logger: slog.Default(), sendTimeout: 10 * time.Second}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		p.observeQueue(-1)
		ctx, cancel := context.WithTimeout(context.Background(), p.sendTimeout)
		p.deliver(ctx, event)
		cancel()
	}
}

func (p *Publisher) deliver(ctx context.Context, event audit.Event) {
	start := time.Now()
	err := p.sink.Send(ctx, event)
	if p.metrics != nil {
		p.metrics.ObserveSendDuration(time.Since(start).Seconds())
	}
	if err != nil {
		if p.metrics != nil {
			p.metrics.IncSendFailures()
		}
		p.logger.Error("failed to deliver audit event",
			"error", err,
			"event_name", event.EventName,
			"session_id", event.User.SessionID,
		)
		return
	}
	if p.metrics != nil {
		p.metrics.IncEventsDelivered()
	}
}

// Publish delivers event. In async mode it never blocks: a full buffer
// drops the event and returns an error for the caller to log.
func (p *Publisher) Publish(ctx context.Context, event audit.Event) error {
	if !p.async {
		if err := p.sink.Send(ctx, event); err != nil {
			if p.metrics != nil {
				p.metrics.IncSendFailures()
			}
			return err
		}
		if p.metrics != nil {
			p.metrics.IncEventsDelivered()
		}
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return dErrors.New(dErrors.CodeInternal, "audit publisher closed")
	}

	select {
	case p.events <- event:
		p.observeQueue(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		if p.metrics != nil {
			p.metrics.IncEventsDropped()
		}
		return dErrors.New(dErrors.CodeInternal, "audit buffer full")
	}
}

// Close stops accepting events and waits for the buffer to drain.
func (p *Publisher) Close() {
	if !p.async {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.events)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Publisher) observeQueue(delta float64) {
	if p.metrics != nil {
		p.metrics.QueueDepth.Add(delta)
	}
}
