package address

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/engine"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/event"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"
)

type createdPayload struct {
	Address Address   `json:"address"`
	Token   ids.Token `json:"token"`
}

type fieldChangedPayload struct {
	AddressID ids.AddressID `json:"address_id"`
	Field     Field         `json:"field"`
	Old       string        `json:"old"`
	New       string        `json:"new"`
	Token     ids.Token     `json:"token"`
}

// The field is carried by the event type for reverts.
type fieldRevertedPayload struct {
	AddressID ids.AddressID `json:"address_id"`
	Old       string        `json:"old"`
	New       string        `json:"new"`
	Token     ids.Token     `json:"token"`
}

type snapshotPayload struct {
	Snapshot Address   `json:"snapshot"`
	Token    ids.Token `json:"token"`
}

type creationRevertedPayload struct {
	AddressID ids.AddressID `json:"address_id"`
	Token     ids.Token     `json:"token"`
}

// Encode returns the stored type and JSON payload of evt.
func Encode(evt Event) (event.Type, []byte, error) {
	var payload any
	switch e := evt.(type) {
	case Created:
		payload = createdPayload{Address: e.Address, Token: e.Token}
	case FieldChanged:
		payload = fieldChangedPayload{AddressID: e.ID, Field: e.Field, Old: e.Old, New: e.New, Token: e.Token}
	case Deleted:
		payload = snapshotPayload{Snapshot: e.Snapshot, Token: e.Token}
	case FieldReverted:
		payload = fieldRevertedPayload{AddressID: e.ID, Old: e.Old, New: e.New, Token: e.Token}
	case CreationReverted:
		payload = creationRevertedPayload{AddressID: e.ID, Token: e.Token}
	case Restored:
		payload = snapshotPayload{Snapshot: e.Snapshot, Token: e.Token}
	default:
		panic(fmt.Sprintf("address: unhandled event %T", evt))
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", evt.EventType(), err)
	}
	return evt.EventType(), raw, nil
}

// Decode rebuilds an address event from its stored envelope.
func Decode(env event.Envelope) (Event, error) {
	switch env.Type {
	case EventTypeCreated:
		var p createdPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return Created{Address: p.Address, Token: p.Token}, nil
	case EventTypeFieldChanged:
		var p fieldChangedPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		if !p.Field.Valid() {
			return nil, fmt.Errorf("decode %s at seq %d: unknown field %q", env.Type, env.Seq, p.Field)
		}
		return FieldChanged{ID: p.AddressID, Field: p.Field, Old: p.Old, New: p.New, Token: p.Token}, nil
	case EventTypeDeleted:
		var p snapshotPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return Deleted{Snapshot: p.Snapshot, Token: p.Token}, nil
	case EventTypeCreationReverted:
		var p creationRevertedPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return CreationReverted{ID: p.AddressID, Token: p.Token}, nil
	case EventTypeRestored:
		var p snapshotPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return Restored{Snapshot: p.Snapshot, Token: p.Token}, nil
	}

	if field, ok := revertedField(env.Type); ok {
		var p fieldRevertedPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return FieldReverted{ID: p.AddressID, Field: field, Old: p.Old, New: p.New, Token: p.Token}, nil
	}
	return nil, fmt.Errorf("decode address event: unknown type %q", env.Type)
}

func revertedField(t event.Type) (Field, bool) {
	rest, ok := strings.CutPrefix(string(t), Kind+".")
	if !ok {
		return "", false
	}
	name, ok := strings.CutSuffix(rest, revertedSuffix)
	if !ok {
		return "", false
	}
	f := Field(name)
	return f, f.Valid()
}

func unmarshal(env event.Envelope, target any) error {
	if err := json.Unmarshal(env.PayloadJSON, target); err != nil {
		return fmt.Errorf("decode %s at seq %d: %w", env.Type, env.Seq, err)
	}
	return nil
}

// Definition binds the address functions for the command pipeline.
func Definition() engine.Aggregate[State, Command, Event] {
	return engine.Aggregate[State, Command, Event]{
		Name:    Kind,
		Initial: Initial,
		Evolve:  Evolve,
		Decide:  Decide,
		Encode:  Encode,
		Decode:  Decode,
	}
}
