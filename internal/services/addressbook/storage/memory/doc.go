// Package memory provides process-local event log and index store backends
// for development and tests. Nothing survives a restart.
package memory
