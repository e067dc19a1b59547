package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/louisbranch/addressbook/internal/platform/logging"
	"github.com/louisbranch/addressbook/internal/platform/metrics"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/event"
)

var (
	// ErrLogRequired indicates a missing event log.
	ErrLogRequired = errors.New("event log is required")
	// ErrAggregateIncomplete indicates an aggregate without its functions.
	ErrAggregateIncomplete = errors.New("aggregate is missing initial, evolve, decide or codec")
)

// Aggregate binds the pure functions of one aggregate kind.
type Aggregate[S, C, E any] struct {
	Name    string
	Initial func() S
	Evolve  func(S, E) S
	Decide  func(S, C) ([]E, error)
	Encode  func(E) (event.Type, []byte, error)
	Decode  func(event.Envelope) (E, error)
}

// Option customises a Handler.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// WithLogger sets the logger; the default discards.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics records command outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracer = tp.Tracer(tracerName) }
}

// WithClock sets the timestamp source for appended envelopes.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

const tracerName = "github.com/louisbranch/addressbook/internal/services/addressbook/domain/engine"

// Handler runs commands of one aggregate kind against one event log.
type Handler[S, C, E any] struct {
	agg  Aggregate[S, C, E]
	log  event.Log
	opts options
}

// NewHandler binds agg to log.
func NewHandler[S, C, E any](agg Aggregate[S, C, E], log event.Log, opts ...Option) (*Handler[S, C, E], error) {
	if log == nil {
		return nil, ErrLogRequired
	}
	if agg.Initial == nil || agg.Evolve == nil || agg.Decide == nil || agg.Encode == nil || agg.Decode == nil {
		return nil, fmt.Errorf("%s: %w", agg.Name, ErrAggregateIncomplete)
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logging.OrNop(o.logger).With(zap.String("aggregate", agg.Name))
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	return &Handler[S, C, E]{agg: agg, log: log, opts: o}, nil
}

// Load folds stream into state.
func (h *Handler[S, C, E]) Load(ctx context.Context, stream event.StreamID) (S, error) {
	ctx, span := h.opts.tracer.Start(ctx, h.agg.Name+".load", trace.WithAttributes(attribute.String("stream", string(stream))))
	defer span.End()

	state, err := h.load(ctx, stream)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return state, err
}

// Run loads stream, decides cmd, appends the resulting events and returns them.
//
// Domain errors from Decide are returned unchanged and nothing is appended.
// A command that changes nothing returns an empty slice and appends nothing.
// Infrastructure failures are wrapped.
func (h *Handler[S, C, E]) Run(ctx context.Context, stream event.StreamID, cmd C) ([]E, error) {
	start := time.Now()
	ctx, span := h.opts.tracer.Start(ctx, h.agg.Name+".run", trace.WithAttributes(
		attribute.String("stream", string(stream)),
		attribute.String("command", fmt.Sprintf("%T", cmd)),
	))
	defer span.End()

	events, outcome, err := h.run(ctx, stream, cmd)
	h.opts.metrics.ObserveCommand(h.agg.Name, outcome, len(events), start)
	span.SetAttributes(attribute.String("outcome", outcome), attribute.Int("events", len(events)))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return events, err
}

func (h *Handler[S, C, E]) run(ctx context.Context, stream event.StreamID, cmd C) ([]E, string, error) {
	state, err := h.load(ctx, stream)
	if err != nil {
		return nil, metrics.OutcomeFailed, err
	}

	events, err := h.agg.Decide(state, cmd)
	if err != nil {
		h.opts.logger.Debug("command rejected", zap.String("stream", string(stream)), zap.Error(err))
		return nil, metrics.OutcomeRejected, err
	}
	if len(events) == 0 {
		return []E{}, metrics.OutcomeNoop, nil
	}

	now := h.opts.now().UTC()
	envelopes := make([]event.Envelope, 0, len(events))
	for _, evt := range events {
		typ, payload, err := h.agg.Encode(evt)
		if err != nil {
			return nil, metrics.OutcomeFailed, fmt.Errorf("encode %s event: %w", h.agg.Name, err)
		}
		envelopes = append(envelopes, event.Envelope{
			StreamID:    stream,
			Type:        typ,
			Timestamp:   now,
			PayloadJSON: payload,
		})
	}
	stored, err := h.log.Append(ctx, stream, envelopes)
	if err != nil {
		return nil, metrics.OutcomeFailed, fmt.Errorf("append %s stream %s: %w", h.agg.Name, stream, err)
	}
	for _, env := range stored {
		h.opts.logger.Debug("event appended",
			zap.String("stream", string(stream)),
			zap.String("type", string(env.Type)),
			zap.Uint64("seq", env.Seq),
		)
	}
	return events, metrics.OutcomeApplied, nil
}

func (h *Handler[S, C, E]) load(ctx context.Context, stream event.StreamID) (S, error) {
	state := h.agg.Initial()
	envelopes, err := h.log.Load(ctx, stream)
	if err != nil {
		return state, fmt.Errorf("load %s stream %s: %w", h.agg.Name, stream, err)
	}
	for _, env := range envelopes {
		evt, err := h.agg.Decode(env)
		if err != nil {
			return state, fmt.Errorf("replay %s stream %s: %w", h.agg.Name, stream, err)
		}
		state = h.agg.Evolve(state, evt)
	}
	return state, nil
}
