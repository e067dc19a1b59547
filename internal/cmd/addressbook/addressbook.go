// Package addressbook parses addressbook command flags and starts the runtime.
package addressbook

import (
	"context"
	"flag"
	"strings"

	"go.uber.org/zap"

	entrypoint "github.com/louisbranch/addressbook/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/addressbook/internal/platform/grpc"
	"github.com/louisbranch/addressbook/internal/platform/logging"
	"github.com/louisbranch/addressbook/internal/platform/timeouts"
	server "github.com/louisbranch/addressbook/internal/services/addressbook/app"
	"github.com/louisbranch/addressbook/internal/services/addressbook/notify/smtp"
)

// Config holds addressbook command configuration.
type Config struct {
	HTTPAddr string `env:"ADDRESSBOOK_HTTP_ADDR" envDefault:":8080"`
	GRPCAddr string `env:"ADDRESSBOOK_GRPC_ADDR" envDefault:":8081"`

	EventStore  string `env:"ADDRESSBOOK_EVENT_STORE" envDefault:"sqlite"`
	SQLitePath  string `env:"ADDRESSBOOK_SQLITE_PATH" envDefault:"data/addressbook.db"`
	PostgresDSN string `env:"ADDRESSBOOK_POSTGRES_DSN"`

	IndexStore  string `env:"ADDRESSBOOK_INDEX_STORE" envDefault:"memory"`
	RedisURL    string `env:"ADDRESSBOOK_REDIS_URL"`
	RedisPrefix string `env:"ADDRESSBOOK_REDIS_PREFIX" envDefault:"addressbook:"`

	// RebuildIndex clears the Redis index and replays the event log at startup.
	RebuildIndex bool `env:"ADDRESSBOOK_REBUILD_INDEX"`

	Notifier string      `env:"ADDRESSBOOK_NOTIFIER" envDefault:"log"`
	SMTP     smtp.Config `envPrefix:"ADDRESSBOOK_SMTP_"`

	BaseURL string `env:"ADDRESSBOOK_BASE_URL" envDefault:"http://localhost:8080"`
	Locale  string `env:"ADDRESSBOOK_LOCALE" envDefault:"en"`

	LogMode  string `env:"ADDRESSBOOK_LOG_MODE" envDefault:"prod"`
	LogLevel string `env:"ADDRESSBOOK_LOG_LEVEL"`

	// Probe checks the health endpoint at GRPCAddr and exits.
	Probe bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP API listen address")
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "gRPC health listen address")
	fs.StringVar(&cfg.EventStore, "event-store", cfg.EventStore, "Event store backend: memory, sqlite or postgres")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "SQLite event store path")
	fs.StringVar(&cfg.IndexStore, "index-store", cfg.IndexStore, "Index store backend: memory or redis")
	fs.BoolVar(&cfg.RebuildIndex, "rebuild-index", cfg.RebuildIndex, "Clear and replay a durable index store at startup")
	fs.StringVar(&cfg.Notifier, "notifier", cfg.Notifier, "Notifier: log or smtp")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Notification language tag")
	fs.BoolVar(&cfg.Probe, "probe", false, "Check the gRPC health endpoint and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RuntimeConfig maps command configuration onto the service runtime.
func (c Config) RuntimeConfig(logger *zap.Logger) server.RuntimeConfig {
	return server.RuntimeConfig{
		HTTPAddr:     c.HTTPAddr,
		GRPCAddr:     c.GRPCAddr,
		EventStore:   c.EventStore,
		SQLitePath:   c.SQLitePath,
		PostgresDSN:  c.PostgresDSN,
		IndexStore:   c.IndexStore,
		RedisURL:     c.RedisURL,
		RedisPrefix:  c.RedisPrefix,
		RebuildIndex: c.RebuildIndex,
		Notifier:     c.Notifier,
		SMTP:         c.SMTP,
		BaseURL:      c.BaseURL,
		Locale:       c.Locale,
		Logger:       logger,
	}
}

// Run starts the addressbook service, or probes a running one.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Probe {
		probeCtx, cancel := context.WithTimeout(ctx, timeouts.HealthProbe)
		defer cancel()
		return platformgrpc.Probe(probeCtx, probeAddr(cfg.GRPCAddr), server.HealthService)
	}
	logger, err := logging.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named(entrypoint.ServiceAddressbook)

	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceAddressbook, entrypoint.RunOptions{Logger: logger}, func(ctx context.Context) error {
		return server.Run(ctx, cfg.RuntimeConfig(logger))
	})
}

// probeAddr turns a wildcard listen address into a dialable one.
func probeAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
