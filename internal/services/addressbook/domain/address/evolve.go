package address

import (
	"fmt"
	"maps"

	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"
)

// Evolve folds evt into state. It never validates: the event already happened.
// The returned state owns a fresh PendingReverts map.
func Evolve(state State, evt Event) State {
	next := State{
		ID:             state.ID,
		Current:        state.Current,
		PendingReverts: maps.Clone(state.PendingReverts),
	}
	if next.PendingReverts == nil {
		next.PendingReverts = map[ids.Token]RevertableChange{}
	}

	switch e := evt.(type) {
	case Created:
		created := e.Address
		next.ID = created.ID
		next.Current = &created
		next.PendingReverts[e.Token] = Creation{Snapshot: created}
	case FieldChanged:
		next.Current = withField(next.Current, e.Field, e.New)
		next.PendingReverts[e.Token] = FieldChange{Field: e.Field, Old: e.Old, New: e.New}
	case Deleted:
		next.Current = nil
		next.PendingReverts[e.Token] = Deletion{Snapshot: e.Snapshot}
	case FieldReverted:
		next.Current = withField(next.Current, e.Field, e.New)
		delete(next.PendingReverts, e.Token)
	case CreationReverted:
		next.Current = nil
		delete(next.PendingReverts, e.Token)
	case Restored:
		restored := e.Snapshot
		next.ID = restored.ID
		next.Current = &restored
		delete(next.PendingReverts, e.Token)
	default:
		panic(fmt.Sprintf("address: unhandled event %T", evt))
	}
	return next
}

// Fold replays events from the initial state.
func Fold(events []Event) State {
	state := Initial()
	for _, evt := range events {
		state = Evolve(state, evt)
	}
	return state
}

// withField returns a copy of current with f set, or nil when absent.
func withField(current *Address, f Field, value string) *Address {
	if current == nil {
		return nil
	}
	updated := current.With(f, value)
	return &updated
}
