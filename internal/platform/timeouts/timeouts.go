// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// HealthProbe caps the wait time of the container health probe.
const HealthProbe = 5 * time.Second

// StoreConnect caps the initial ping of Redis and Postgres backends.
const StoreConnect = 5 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
