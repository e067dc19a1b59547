package app

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"
	"github.com/louisbranch/addressbook/internal/services/addressbook/notify/smtp"
)

// Backend names accepted by RuntimeConfig.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"

	NotifierLog  = "log"
	NotifierSMTP = "smtp"
)

// RuntimeConfig selects backends and listen addresses for one process.
type RuntimeConfig struct {
	HTTPAddr string
	GRPCAddr string

	EventStore  string
	SQLitePath  string
	PostgresDSN string

	IndexStore  string
	RedisURL    string
	RedisPrefix string
	// RebuildIndex clears a durable index store and replays the event log
	// into it. Volatile index stores are always rebuilt.
	RebuildIndex bool

	Notifier string
	SMTP     smtp.Config
	BaseURL  string
	Locale   string

	Logger *zap.Logger
	// Registry receives the service collectors. Nil creates a fresh one.
	Registry *prometheus.Registry
	// IDs overrides the identifier source.
	IDs ids.Generator
}

func (c RuntimeConfig) validate() error {
	switch c.EventStore {
	case BackendMemory:
	case BackendSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("sqlite event store requires a path")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("postgres event store requires a dsn")
		}
	default:
		return fmt.Errorf("unknown event store %q", c.EventStore)
	}
	switch c.IndexStore {
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("redis index store requires a url")
		}
		if c.EventStore == BackendMemory {
			return fmt.Errorf("redis index store requires a durable event store")
		}
	default:
		return fmt.Errorf("unknown index store %q", c.IndexStore)
	}
	switch c.Notifier {
	case NotifierLog, NotifierSMTP:
	default:
		return fmt.Errorf("unknown notifier %q", c.Notifier)
	}
	if c.HTTPAddr == "" || c.GRPCAddr == "" {
		return fmt.Errorf("http and grpc listen addresses are required")
	}
	return nil
}
