package address

import "github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"

// State is the folded address aggregate.
//
// A token is in PendingReverts exactly when an action event issued it and no
// correction event has consumed it yet.
type State struct {
	// ID is the stream's address id, known once Created has been folded. It
	// survives deletion so late field reverts still name their aggregate.
	ID             ids.AddressID
	Current        *Address
	PendingReverts map[ids.Token]RevertableChange
}

// Initial returns the empty state of a stream with no history.
func Initial() State {
	return State{PendingReverts: map[ids.Token]RevertableChange{}}
}

// RevertableChange is what a pending token undoes.
//
//sumtype:decl
type RevertableChange interface {
	isRevertableChange()
}

// FieldChange undoes a field edit by restoring Old.
type FieldChange struct {
	Field Field
	Old   string
	New   string
}

// Creation undoes a create by making the address absent again.
type Creation struct {
	Snapshot Address
}

// Deletion undoes a delete by restoring Snapshot.
type Deletion struct {
	Snapshot Address
}

func (FieldChange) isRevertableChange() {}
func (Creation) isRevertableChange()    {}
func (Deletion) isRevertableChange()    {}
