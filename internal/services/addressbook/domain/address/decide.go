package address

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/addressbook/internal/platform/errors"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"
)

// Decide returns the events cmd produces against state, or a domain error.
// A nil slice with a nil error means the command changes nothing.
func Decide(state State, cmd Command) ([]Event, error) {
	switch c := cmd.(type) {
	case Create:
		return decideCreate(state, c)
	case ChangeField:
		return decideChangeField(state, c)
	case Delete:
		return decideDelete(state, c)
	case Redeem:
		return decideRedeem(state, c)
	default:
		panic(fmt.Sprintf("address: unhandled command %T", cmd))
	}
}

func decideCreate(state State, c Create) ([]Event, error) {
	if state.Current != nil {
		return nil, ErrAlreadyExists
	}
	if c.Address.ID.IsZero() || c.Address.Owner.IsZero() {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "address id and owner are required")
	}
	if strings.TrimSpace(c.Address.Label) == "" {
		return nil, ErrLabelRequired
	}
	if err := requireToken(c.Token); err != nil {
		return nil, err
	}
	return []Event{Created{Address: c.Address, Token: c.Token}}, nil
}

func decideChangeField(state State, c ChangeField) ([]Event, error) {
	if !c.Field.Valid() {
		return nil, apperrors.WithMetadata(apperrors.CodeInvalidArgument, "unknown address field", map[string]string{"field": string(c.Field)})
	}
	if state.Current == nil {
		return nil, ErrNotFound
	}
	old := state.Current.Get(c.Field)
	if old == c.Value {
		return nil, nil
	}
	if c.Field == FieldLabel && strings.TrimSpace(c.Value) == "" {
		return nil, ErrLabelRequired
	}
	if err := requireToken(c.Token); err != nil {
		return nil, err
	}
	return []Event{FieldChanged{
		ID:    state.Current.ID,
		Field: c.Field,
		Old:   old,
		New:   c.Value,
		Token: c.Token,
	}}, nil
}

func decideDelete(state State, c Delete) ([]Event, error) {
	if state.Current == nil {
		return nil, ErrNotFound
	}
	if err := requireToken(c.Token); err != nil {
		return nil, err
	}
	return []Event{Deleted{Snapshot: *state.Current, Token: c.Token}}, nil
}

func decideRedeem(state State, c Redeem) ([]Event, error) {
	change, ok := state.PendingReverts[c.Token]
	if !ok {
		return nil, &InvalidTokenError{Token: c.Token}
	}
	switch ch := change.(type) {
	case FieldChange:
		return []Event{FieldReverted{
			ID:    state.ID,
			Field: ch.Field,
			Old:   ch.New,
			New:   ch.Old,
			Token: c.Token,
		}}, nil
	case Creation:
		return []Event{CreationReverted{ID: ch.Snapshot.ID, Token: c.Token}}, nil
	case Deletion:
		return []Event{Restored{Snapshot: ch.Snapshot, Token: c.Token}}, nil
	default:
		panic(fmt.Sprintf("address: unhandled revertable change %T", change))
	}
}

func requireToken(token ids.Token) error {
	if token.IsZero() {
		return apperrors.New(apperrors.CodeInvalidArgument, "revert token is required")
	}
	return nil
}
