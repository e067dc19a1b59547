package memory

import (
	"context"
	"sync"

	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/event"
)

// EventLog keeps every stream in memory. The mutex only guards the maps; it
// does not serialise read-decide-append sequences of callers.
type EventLog struct {
	mu      sync.RWMutex
	streams map[event.StreamID][]event.Envelope
	all     []event.Envelope
}

// NewEventLog returns an empty log.
func NewEventLog() *EventLog {
	return &EventLog{streams: make(map[event.StreamID][]event.Envelope)}
}

// Append implements event.Log.
func (l *EventLog) Append(ctx context.Context, stream event.StreamID, envelopes []event.Envelope) ([]event.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(envelopes) == 0 {
		return nil, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	existing := l.streams[stream]
	stored := make([]event.Envelope, 0, len(envelopes))
	for i, env := range envelopes {
		env.StreamID = stream
		env.Seq = uint64(len(existing) + i + 1)
		env.Position = uint64(len(l.all) + i + 1)
		env.PayloadJSON = append([]byte(nil), env.PayloadJSON...)
		stored = append(stored, env)
	}
	l.streams[stream] = append(existing, stored...)
	l.all = append(l.all, stored...)
	return append([]event.Envelope(nil), stored...), nil
}

// Load implements event.Log.
func (l *EventLog) Load(ctx context.Context, stream event.StreamID) ([]event.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]event.Envelope{}, l.streams[stream]...), nil
}

// ReadAll implements event.Reader.
func (l *EventLog) ReadAll(ctx context.Context, after uint64, limit int) ([]event.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if after >= uint64(len(l.all)) {
		return []event.Envelope{}, nil
	}
	page := l.all[after:]
	if limit > 0 && len(page) > limit {
		page = page[:limit]
	}
	return append([]event.Envelope{}, page...), nil
}
