// Package app wires the addressbook backends, use cases and transports into
// one runnable process.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	gogrpc "google.golang.org/grpc"

	platformgrpc "github.com/louisbranch/addressbook/internal/platform/grpc"
	"github.com/louisbranch/addressbook/internal/platform/id"
	"github.com/louisbranch/addressbook/internal/platform/logging"
	"github.com/louisbranch/addressbook/internal/platform/metrics"
	"github.com/louisbranch/addressbook/internal/platform/timeouts"
	"github.com/louisbranch/addressbook/internal/services/addressbook/api/httpapi"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/event"
	"github.com/louisbranch/addressbook/internal/services/addressbook/notify"
	"github.com/louisbranch/addressbook/internal/services/addressbook/notify/render"
	"github.com/louisbranch/addressbook/internal/services/addressbook/notify/smtp"
	"github.com/louisbranch/addressbook/internal/services/addressbook/projection"
	"github.com/louisbranch/addressbook/internal/services/addressbook/service"
	"github.com/louisbranch/addressbook/internal/services/addressbook/storage/memory"
	"github.com/louisbranch/addressbook/internal/services/addressbook/storage/postgres"
	redisindex "github.com/louisbranch/addressbook/internal/services/addressbook/storage/redis"
	"github.com/louisbranch/addressbook/internal/services/addressbook/storage/sqlite"
)

// HealthService is the gRPC health service name reported once serving.
const HealthService = "addressbook"

// Server hosts the HTTP API and the gRPC health endpoint.
type Server struct {
	logger     *zap.Logger
	httpLn     net.Listener
	grpcLn     net.Listener
	httpServer *http.Server
	health     platformgrpc.HealthServer
	closers    []io.Closer
}

// New opens the backends, replays the projection if the index store is
// volatile, and binds both listeners.
func New(ctx context.Context, cfg RuntimeConfig) (_ *Server, err error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	lang, err := language.Parse(cfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", cfg.Locale, err)
	}
	logger := logging.OrNop(cfg.Logger)

	s := &Server{logger: logger}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	m := metrics.New(reg)

	events, err := s.openEventStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	index, err := s.openIndexStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	projector := projection.Projector{Store: index, Metrics: m}
	if err := prepareIndex(ctx, events, projector, cfg.RebuildIndex, logger); err != nil {
		return nil, err
	}

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return nil, err
	}
	renderer := render.NewRenderer(cfg.BaseURL, lang)
	logger.Info("notification language", zap.String("requested", lang.String()), zap.String("using", renderer.Language().String()))
	gen := cfg.IDs
	if gen == nil {
		gen = id.Generator{}
	}
	svc, err := service.New(service.Deps{
		Log:       events,
		Projector: projector,
		Notifier:  notifier,
		IDs:       gen,
		Renderer:  renderer,
		Logger:    logger,
		Metrics:   m,
	})
	if err != nil {
		return nil, err
	}

	if s.httpLn, err = net.Listen("tcp", cfg.HTTPAddr); err != nil {
		return nil, fmt.Errorf("listen http on %s: %w", cfg.HTTPAddr, err)
	}
	if s.grpcLn, err = net.Listen("tcp", cfg.GRPCAddr); err != nil {
		_ = s.httpLn.Close()
		return nil, fmt.Errorf("listen grpc on %s: %w", cfg.GRPCAddr, err)
	}
	s.httpServer = &http.Server{
		Handler:           httpapi.NewRouter(svc, httpapi.Options{Logger: logger, Gatherer: reg}),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	s.health = platformgrpc.NewHealthServer(HealthService)
	return s, nil
}

// HTTPAddr returns the bound HTTP address.
func (s *Server) HTTPAddr() string { return s.httpLn.Addr().String() }

// GRPCAddr returns the bound gRPC health address.
func (s *Server) GRPCAddr() string { return s.grpcLn.Addr().String() }

// Run builds a server from cfg and serves until ctx ends.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	s, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve blocks until ctx ends or a listener fails, then stops both servers
// and closes the backends.
func (s *Server) Serve(ctx context.Context) error {
	defer s.close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.httpServer.Serve(s.httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.health.Server.Serve(s.grpcLn); err != nil && !errors.Is(err, gogrpc.ErrServerStopped) {
			return fmt.Errorf("serve grpc: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.health.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		return nil
	})

	s.health.SetServing(HealthService)
	s.logger.Info("addressbook serving",
		zap.String("http_addr", s.HTTPAddr()),
		zap.String("grpc_addr", s.GRPCAddr()),
	)
	return g.Wait()
}

func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			s.logger.Warn("close backend", zap.Error(err))
		}
	}
	s.closers = nil
}

func (s *Server) openEventStore(ctx context.Context, cfg RuntimeConfig) (event.Store, error) {
	switch cfg.EventStore {
	case BackendSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite event store: %w", err)
		}
		s.closers = append(s.closers, store)
		return store, nil
	case BackendPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres event store: %w", err)
		}
		s.closers = append(s.closers, store)
		return store, nil
	default:
		return memory.NewEventLog(), nil
	}
}

func (s *Server) openIndexStore(ctx context.Context, cfg RuntimeConfig) (projection.IndexStore, error) {
	if cfg.IndexStore == BackendRedis {
		store, err := redisindex.Open(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("open redis index store: %w", err)
		}
		s.closers = append(s.closers, store)
		return store, nil
	}
	return memory.NewIndexStore(), nil
}

// durableIndex is an index store whose contents outlive the process.
type durableIndex interface {
	Empty(ctx context.Context) (bool, error)
	Reset(ctx context.Context) error
}

// prepareIndex replays the event log into the projection when the index store
// is volatile, empty, or force is set. A populated durable store is trusted.
func prepareIndex(ctx context.Context, events event.Reader, projector projection.Projector, force bool, logger *zap.Logger) error {
	if durable, ok := projector.Store.(durableIndex); ok {
		if force {
			if err := durable.Reset(ctx); err != nil {
				return fmt.Errorf("reset index store: %w", err)
			}
		} else {
			empty, err := durable.Empty(ctx)
			if err != nil {
				return fmt.Errorf("inspect index store: %w", err)
			}
			if !empty {
				logger.Info("projection kept")
				return nil
			}
		}
	}
	applied, err := projection.Rebuild(ctx, events, projector, projection.DefaultPageSize)
	if err != nil {
		return fmt.Errorf("rebuild projection: %w", err)
	}
	logger.Info("projection rebuilt", zap.Int("events", applied))
	return nil
}

func newNotifier(cfg RuntimeConfig, logger *zap.Logger) (notify.Notifier, error) {
	if cfg.Notifier == NotifierSMTP {
		sender, err := smtp.New(cfg.SMTP)
		if err != nil {
			return nil, fmt.Errorf("configure smtp notifier: %w", err)
		}
		return sender, nil
	}
	return notify.NewLogNotifier(logger.Named("notify")), nil
}
