// Package profile models the owner of an address book: a unique name handle
// and the email that receives change notifications.
package profile

import (
	"fmt"
	"net/mail"
	"strings"

	apperrors "github.com/louisbranch/addressbook/internal/platform/errors"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/event"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"
)

const (
	// Kind prefixes profile stream ids and event types.
	Kind = "profile"

	EventTypeRegistered   event.Type = "profile.registered"
	EventTypeFieldChanged event.Type = "profile.field_changed"
)

// Field names one mutable profile attribute.
type Field string

const (
	FieldName  Field = "name"
	FieldEmail Field = "email"
)

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	return f == FieldName || f == FieldEmail
}

var (
	ErrNotFound      = apperrors.New(apperrors.CodeNotFound, "profile not found")
	ErrAlreadyExists = apperrors.New(apperrors.CodeAlreadyExists, "profile already exists")
)

// Profile is the current snapshot of one profile.
type Profile struct {
	ID    ids.ProfileID `json:"id"`
	Name  string        `json:"name"`
	Email string        `json:"email"`
}

func (p Profile) get(f Field) string {
	if f == FieldName {
		return p.Name
	}
	return p.Email
}

func (p Profile) with(f Field, value string) Profile {
	if f == FieldName {
		p.Name = value
	} else {
		p.Email = value
	}
	return p
}

// State is the folded profile aggregate.
type State struct {
	Current *Profile
}

// Initial returns the empty state of a stream with no history.
func Initial() State {
	return State{}
}

// StreamID returns the stream holding the history of id.
func StreamID(id ids.ProfileID) event.StreamID {
	return event.NewStreamID(Kind, id.String())
}

// Command is the closed set of profile commands.
//
//sumtype:decl
type Command interface {
	isCommand()
}

type Register struct {
	Profile Profile
}

type ChangeField struct {
	Field Field
	Value string
}

func (Register) isCommand()    {}
func (ChangeField) isCommand() {}

// Event is the closed set of profile events.
//
//sumtype:decl
type Event interface {
	EventType() event.Type
	AggregateID() ids.ProfileID
	isEvent()
}

type Registered struct {
	Profile Profile
}

type FieldChanged struct {
	ID    ids.ProfileID
	Field Field
	Old   string
	New   string
}

func (Registered) EventType() event.Type   { return EventTypeRegistered }
func (FieldChanged) EventType() event.Type { return EventTypeFieldChanged }

func (e Registered) AggregateID() ids.ProfileID   { return e.Profile.ID }
func (e FieldChanged) AggregateID() ids.ProfileID { return e.ID }

func (Registered) isEvent()   {}
func (FieldChanged) isEvent() {}

// Decide returns the events cmd produces against state, or a domain error.
func Decide(state State, cmd Command) ([]Event, error) {
	switch c := cmd.(type) {
	case Register:
		if state.Current != nil {
			return nil, ErrAlreadyExists
		}
		if c.Profile.ID.IsZero() {
			return nil, apperrors.New(apperrors.CodeInvalidArgument, "profile id is required")
		}
		if err := Validate(FieldName, c.Profile.Name); err != nil {
			return nil, err
		}
		if err := Validate(FieldEmail, c.Profile.Email); err != nil {
			return nil, err
		}
		return []Event{Registered{Profile: c.Profile}}, nil
	case ChangeField:
		if !c.Field.Valid() {
			return nil, apperrors.WithMetadata(apperrors.CodeInvalidArgument, "unknown profile field", map[string]string{"field": string(c.Field)})
		}
		if state.Current == nil {
			return nil, ErrNotFound
		}
		old := state.Current.get(c.Field)
		if old == c.Value {
			return nil, nil
		}
		if err := Validate(c.Field, c.Value); err != nil {
			return nil, err
		}
		return []Event{FieldChanged{ID: state.Current.ID, Field: c.Field, Old: old, New: c.Value}}, nil
	default:
		panic(fmt.Sprintf("profile: unhandled command %T", cmd))
	}
}

// Evolve folds evt into state.
func Evolve(state State, evt Event) State {
	switch e := evt.(type) {
	case Registered:
		registered := e.Profile
		return State{Current: &registered}
	case FieldChanged:
		if state.Current == nil {
			return state
		}
		updated := state.Current.with(e.Field, e.New)
		return State{Current: &updated}
	default:
		panic(fmt.Sprintf("profile: unhandled event %T", evt))
	}
}

// Validate reports an INVALID_ARGUMENT error when value is not acceptable for f.
func Validate(f Field, value string) error {
	switch f {
	case FieldName:
		if strings.TrimSpace(value) == "" {
			return apperrors.New(apperrors.CodeInvalidArgument, "profile name is required")
		}
		if strings.ContainsAny(value, "/ \t\n") {
			return apperrors.New(apperrors.CodeInvalidArgument, "profile name must not contain spaces or slashes")
		}
	case FieldEmail:
		addr, err := mail.ParseAddress(value)
		if err != nil || addr.Address != value {
			return apperrors.WithMetadata(apperrors.CodeInvalidArgument, "profile email is invalid", map[string]string{"email": value})
		}
	default:
		return apperrors.WithMetadata(apperrors.CodeInvalidArgument, "unknown profile field", map[string]string{"field": string(f)})
	}
	return nil
}
