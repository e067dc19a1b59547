package projection

import (
	"context"

	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"
)

// LabelKey is the (owner, label) pair that addresses are looked up by.
type LabelKey struct {
	Owner ids.ProfileID
	Label string
}

// IndexStore persists the derived indexes. Reads must observe every write
// made earlier by the same process.
//
// Conditional deletes remove an entry only while it still points at the given
// id, so a stale event cannot evict a mapping another aggregate now owns.
type IndexStore interface {
	ProfileIDByName(ctx context.Context, name string) (ids.ProfileID, bool, error)
	PutProfileName(ctx context.Context, name string, id ids.ProfileID) error
	DeleteProfileName(ctx context.Context, name string, id ids.ProfileID) error

	AddressIDByLabel(ctx context.Context, key LabelKey) (ids.AddressID, bool, error)
	PutLabel(ctx context.Context, key LabelKey, id ids.AddressID) error
	DeleteLabel(ctx context.Context, key LabelKey, id ids.AddressID) error

	AddressIDByToken(ctx context.Context, token ids.Token) (ids.AddressID, bool, error)
	PutToken(ctx context.Context, token ids.Token, id ids.AddressID) error
	DeleteToken(ctx context.Context, token ids.Token) error

	LabelByAddressID(ctx context.Context, id ids.AddressID) (LabelKey, bool, error)
	PutReverse(ctx context.Context, id ids.AddressID, key LabelKey) error
	DeleteReverse(ctx context.Context, id ids.AddressID) error

	// AddressIDsByOwner returns the owner's ids sorted ascending.
	AddressIDsByOwner(ctx context.Context, owner ids.ProfileID) ([]ids.AddressID, error)
	AddOwned(ctx context.Context, owner ids.ProfileID, id ids.AddressID) error
	RemoveOwned(ctx context.Context, owner ids.ProfileID, id ids.AddressID) error
}
