// Package service implements the addressbook use cases. Each one resolves ids
// through the projection, runs the aggregate pipeline, re-projects what was
// emitted and notifies the owner of action events.
package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	apperrors "github.com/louisbranch/addressbook/internal/platform/errors"
	"github.com/louisbranch/addressbook/internal/platform/logging"
	"github.com/louisbranch/addressbook/internal/platform/metrics"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/address"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/engine"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/event"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/profile"
	"github.com/louisbranch/addressbook/internal/services/addressbook/notify"
	"github.com/louisbranch/addressbook/internal/services/addressbook/notify/render"
	"github.com/louisbranch/addressbook/internal/services/addressbook/projection"
)

const tracerName = "github.com/louisbranch/addressbook/internal/services/addressbook/service"

// Deps are the collaborators of a Service. Logger, Metrics, Clock and
// TracerProvider are optional.
type Deps struct {
	Log            event.Log
	Projector      projection.Projector
	Notifier       notify.Notifier
	IDs            ids.Generator
	Renderer       *render.Renderer
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	Clock          func() time.Time
	TracerProvider trace.TracerProvider
}

// Service runs the addressbook use cases.
type Service struct {
	profiles  *engine.Handler[profile.State, profile.Command, profile.Event]
	addresses *engine.Handler[address.State, address.Command, address.Event]
	projector projection.Projector
	notifier  notify.Notifier
	ids       ids.Generator
	renderer  *render.Renderer
	logger    *zap.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// New validates deps and builds the aggregate handlers.
func New(deps Deps) (*Service, error) {
	switch {
	case deps.Log == nil:
		return nil, fmt.Errorf("event log is required")
	case deps.Projector.Store == nil:
		return nil, fmt.Errorf("index store is required")
	case deps.Notifier == nil:
		return nil, fmt.Errorf("notifier is required")
	case deps.IDs == nil:
		return nil, fmt.Errorf("id generator is required")
	case deps.Renderer == nil:
		return nil, fmt.Errorf("renderer is required")
	}

	logger := logging.OrNop(deps.Logger)
	opts := []engine.Option{engine.WithLogger(logger), engine.WithMetrics(deps.Metrics)}
	if deps.Clock != nil {
		opts = append(opts, engine.WithClock(deps.Clock))
	}
	tracer := otel.Tracer(tracerName)
	if deps.TracerProvider != nil {
		opts = append(opts, engine.WithTracerProvider(deps.TracerProvider))
		tracer = deps.TracerProvider.Tracer(tracerName)
	}

	profiles, err := engine.NewHandler(profile.Definition(), deps.Log, opts...)
	if err != nil {
		return nil, err
	}
	addresses, err := engine.NewHandler(address.Definition(), deps.Log, opts...)
	if err != nil {
		return nil, err
	}
	return &Service{
		profiles:  profiles,
		addresses: addresses,
		projector: deps.Projector,
		notifier:  deps.Notifier,
		ids:       deps.IDs,
		renderer:  deps.Renderer,
		logger:    logger.Named("service"),
		metrics:   deps.Metrics,
		tracer:    tracer,
	}, nil
}

func (s *Service) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "addressbook."+op, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// narrow passes through infrastructure errors and the domain codes op may
// legitimately produce. Any other domain error is a defect.
func narrow(op string, err error, allowed ...apperrors.Code) error {
	if err == nil {
		return nil
	}
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeUnknown || slices.Contains(allowed, code) {
		return err
	}
	engine.Defect(op, err)
	return nil
}

func (s *Service) projectProfile(ctx context.Context, events []profile.Event) error {
	for _, evt := range events {
		if err := s.projector.ProjectProfileEvent(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) projectAddress(ctx context.Context, events []address.Event) error {
	for _, evt := range events {
		if err := s.projector.ProjectAddressEvent(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// resolveProfile maps a handle to its current snapshot.
func (s *Service) resolveProfile(ctx context.Context, name string) (profile.Profile, error) {
	id, ok, err := s.projector.ProfileIDByName(ctx, name)
	if err != nil {
		return profile.Profile{}, err
	}
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	state, err := s.profiles.Load(ctx, profile.StreamID(id))
	if err != nil {
		return profile.Profile{}, err
	}
	if state.Current == nil {
		return profile.Profile{}, profile.ErrNotFound
	}
	return *state.Current, nil
}

// resolveAddress maps (owner, label) to the live address and its state.
func (s *Service) resolveAddress(ctx context.Context, owner ids.ProfileID, label string) (address.State, error) {
	id, ok, err := s.projector.AddressIDByLabel(ctx, owner, label)
	if err != nil {
		return address.State{}, err
	}
	if !ok {
		return address.State{}, address.ErrNotFound
	}
	state, err := s.addresses.Load(ctx, address.StreamID(id))
	if err != nil {
		return address.State{}, err
	}
	if state.Current == nil {
		return address.State{}, address.ErrNotFound
	}
	return state, nil
}

// claimLabel fails when label is held by an address other than id.
func (s *Service) claimLabel(ctx context.Context, owner ids.ProfileID, label string, id ids.AddressID) error {
	holder, ok, err := s.projector.AddressIDByLabel(ctx, owner, label)
	if err != nil {
		return err
	}
	if ok && holder != id {
		return apperrors.WithMetadata(apperrors.CodeAlreadyExists, "address label is already in use", map[string]string{"label": label})
	}
	return nil
}
