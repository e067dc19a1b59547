package event

import (
	"context"
	"strings"
	"time"
)

// Type identifies the kind of a stored event, e.g. "address.created".
type Type string

// Prefix returns the aggregate kind encoded before the first dot.
func (t Type) Prefix() string {
	kind, _, _ := strings.Cut(string(t), ".")
	return kind
}

// StreamID names the ordered history of one aggregate instance.
type StreamID string

// NewStreamID returns "<kind>-<id>".
func NewStreamID(kind, id string) StreamID {
	return StreamID(kind + "-" + id)
}

// Envelope is one stored event.
type Envelope struct {
	StreamID StreamID
	// Seq is the 1-based position within the stream.
	Seq uint64
	// Position is the global append order across all streams.
	Position    uint64
	Type        Type
	Timestamp   time.Time
	PayloadJSON []byte
}

// Log is an append-only store of per-stream event sequences.
//
// Append with no envelopes is a no-op. Otherwise every envelope is stored
// atomically in call order and returned with Seq and Position assigned.
// Load returns an empty slice for an unknown stream. There is no expected
// version argument: concurrent writers to one stream are not detected.
type Log interface {
	Append(ctx context.Context, stream StreamID, envelopes []Envelope) ([]Envelope, error)
	Load(ctx context.Context, stream StreamID) ([]Envelope, error)
}

// Reader pages through every stored event in global order.
type Reader interface {
	// ReadAll returns up to limit events whose Position is greater than after.
	ReadAll(ctx context.Context, after uint64, limit int) ([]Envelope, error)
}

// Store is a log that can also be read globally.
type Store interface {
	Log
	Reader
}
