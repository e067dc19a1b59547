package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/event"
)

// DefaultPageSize is the ReadAll page size used by Rebuild.
const DefaultPageSize = 500

// Rebuild replays every stored event into p in global order and returns the
// number of events applied. The store behind p is expected to be empty.
func Rebuild(ctx context.Context, reader event.Reader, p Projector, pageSize int) (int, error) {
	if reader == nil {
		return 0, fmt.Errorf("event reader is required")
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	start := time.Now()
	var after uint64
	applied := 0
	for {
		page, err := reader.ReadAll(ctx, after, pageSize)
		if err != nil {
			return applied, fmt.Errorf("read events after %d: %w", after, err)
		}
		for _, env := range page {
			if err := p.ProjectEnvelope(ctx, env); err != nil {
				return applied, fmt.Errorf("rebuild at position %d: %w", env.Position, err)
			}
			after = env.Position
			applied++
		}
		if len(page) < pageSize {
			break
		}
	}
	p.Metrics.ObserveRebuild(start)
	return applied, nil
}
