package address

import "github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"

// Command is the closed set of address commands. Ids and tokens are generated
// by the caller so Decide stays pure.
//
//sumtype:decl
type Command interface {
	isCommand()
}

// Create registers a new address; Address.ID and Address.Owner must be set.
type Create struct {
	Address Address
	Token   ids.Token
}

// ChangeField sets one field to Value.
type ChangeField struct {
	Field Field
	Value string
	Token ids.Token
}

// Delete removes the address.
type Delete struct {
	Token ids.Token
}

// Redeem consumes a pending revert token.
type Redeem struct {
	Token ids.Token
}

func (Create) isCommand()      {}
func (ChangeField) isCommand() {}
func (Delete) isCommand()      {}
func (Redeem) isCommand()      {}
