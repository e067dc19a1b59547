package profile

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/engine"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/event"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"
)

type registeredPayload struct {
	Profile Profile `json:"profile"`
}

type fieldChangedPayload struct {
	ProfileID ids.ProfileID `json:"profile_id"`
	Field     Field         `json:"field"`
	Old       string        `json:"old"`
	New       string        `json:"new"`
}

// Encode returns the stored type and JSON payload of evt.
func Encode(evt Event) (event.Type, []byte, error) {
	var payload any
	switch e := evt.(type) {
	case Registered:
		payload = registeredPayload{Profile: e.Profile}
	case FieldChanged:
		payload = fieldChangedPayload{ProfileID: e.ID, Field: e.Field, Old: e.Old, New: e.New}
	default:
		panic(fmt.Sprintf("profile: unhandled event %T", evt))
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", evt.EventType(), err)
	}
	return evt.EventType(), raw, nil
}

// Decode rebuilds a profile event from its stored envelope.
func Decode(env event.Envelope) (Event, error) {
	switch env.Type {
	case EventTypeRegistered:
		var p registeredPayload
		if err := json.Unmarshal(env.PayloadJSON, &p); err != nil {
			return nil, fmt.Errorf("decode %s at seq %d: %w", env.Type, env.Seq, err)
		}
		return Registered{Profile: p.Profile}, nil
	case EventTypeFieldChanged:
		var p fieldChangedPayload
		if err := json.Unmarshal(env.PayloadJSON, &p); err != nil {
			return nil, fmt.Errorf("decode %s at seq %d: %w", env.Type, env.Seq, err)
		}
		if !p.Field.Valid() {
			return nil, fmt.Errorf("decode %s at seq %d: unknown field %q", env.Type, env.Seq, p.Field)
		}
		return FieldChanged{ID: p.ProfileID, Field: p.Field, Old: p.Old, New: p.New}, nil
	default:
		return nil, fmt.Errorf("decode profile event: unknown type %q", env.Type)
	}
}

// Definition binds the profile functions for the command pipeline.
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
