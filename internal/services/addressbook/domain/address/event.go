package address

import (
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/event"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"
)

const (
	// Kind prefixes address stream ids and event types.
	Kind = "address"

	EventTypeCreated          event.Type = "address.created"
	EventTypeFieldChanged     event.Type = "address.field_changed"
	EventTypeDeleted          event.Type = "address.deleted"
	EventTypeCreationReverted event.Type = "address.creation_reverted"
	EventTypeRestored         event.Type = "address.restored"

	revertedSuffix = "_reverted"
)

// RevertedEventType returns the correction event type for f, e.g.
// "address.city_reverted".
func RevertedEventType(f Field) event.Type {
	return event.Type(Kind + "." + string(f) + revertedSuffix)
}

// StreamID returns the stream holding the history of id.
func StreamID(id ids.AddressID) event.StreamID {
	return event.NewStreamID(Kind, id.String())
}

// Event is the closed set of address events.
//
// Action events (Created, FieldChanged, Deleted) issue Token. Correction
// events (FieldReverted, CreationReverted, Restored) carry the token they
// consumed.
//
//sumtype:decl
type Event interface {
	EventType() event.Type
	AggregateID() ids.AddressID
	RevertToken() ids.Token
	IsAction() bool
	isEvent()
}

type Created struct {
	Address Address
	Token   ids.Token
}

type FieldChanged struct {
	ID    ids.AddressID
	Field Field
	Old   string
	New   string
	Token ids.Token
}

type Deleted struct {
	Snapshot Address
	Token    ids.Token
}

// FieldReverted applies a recorded FieldChange backwards: Old is the value the
// change introduced and New is the value it replaced.
type FieldReverted struct {
	ID    ids.AddressID
	Field Field
	Old   string
	New   string
	Token ids.Token
}

type CreationReverted struct {
	ID    ids.AddressID
	Token ids.Token
}

type Restored struct {
	Snapshot Address
	Token    ids.Token
}

func (Created) EventType() event.Type          { return EventTypeCreated }
func (FieldChanged) EventType() event.Type     { return EventTypeFieldChanged }
func (Deleted) EventType() event.Type          { return EventTypeDeleted }
func (e FieldReverted) EventType() event.Type  { return RevertedEventType(e.Field) }
func (CreationReverted) EventType() event.Type { return EventTypeCreationReverted }
func (Restored) EventType() event.Type         { return EventTypeRestored }

func (e Created) AggregateID() ids.AddressID          { return e.Address.ID }
func (e FieldChanged) AggregateID() ids.AddressID     { return e.ID }
func (e Deleted) AggregateID() ids.AddressID          { return e.Snapshot.ID }
func (e FieldReverted) AggregateID() ids.AddressID    { return e.ID }
func (e CreationReverted) AggregateID() ids.AddressID { return e.ID }
func (e Restored) AggregateID() ids.AddressID         { return e.Snapshot.ID }

func (e Created) RevertToken() ids.Token          { return e.Token }
func (e FieldChanged) RevertToken() ids.Token     { return e.Token }
func (e Deleted) RevertToken() ids.Token          { return e.Token }
func (e FieldReverted) RevertToken() ids.Token    { return e.Token }
func (e CreationReverted) RevertToken() ids.Token { return e.Token }
func (e Restored) RevertToken() ids.Token         { return e.Token }

func (Created) IsAction() bool          { return true }
func (FieldChanged) IsAction() bool     { return true }
func (Deleted) IsAction() bool          { return true }
func (FieldReverted) IsAction() bool    { return false }
func (CreationReverted) IsAction() bool { return false }
func (Restored) IsAction() bool         { return false }

func (Created) isEvent()          {}
func (FieldChanged) isEvent()     {}
func (Deleted) isEvent()          {}
func (FieldReverted) isEvent()    {}
func (CreationReverted) isEvent() {}
func (Restored) isEvent()         {}
