package projection

import (
	"context"
	"fmt"

	"github.com/louisbranch/addressbook/internal/platform/metrics"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/address"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/event"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/profile"
)

// Projector applies events to an IndexStore and answers lookups from it.
type Projector struct {
	Store   IndexStore
	Metrics *metrics.Metrics
}

// ProfileIDByName resolves a profile handle.
func (p Projector) ProfileIDByName(ctx context.Context, name string) (ids.ProfileID, bool, error) {
	return p.Store.ProfileIDByName(ctx, name)
}

// AddressIDByLabel resolves a live address by owner and label.
func (p Projector) AddressIDByLabel(ctx context.Context, owner ids.ProfileID, label string) (ids.AddressID, bool, error) {
	return p.Store.AddressIDByLabel(ctx, LabelKey{Owner: owner, Label: label})
}

// AddressIDByToken resolves the address a pending revert token belongs to.
func (p Projector) AddressIDByToken(ctx context.Context, token ids.Token) (ids.AddressID, bool, error) {
	return p.Store.AddressIDByToken(ctx, token)
}

// AddressIDsByOwner lists the live addresses of owner.
func (p Projector) AddressIDsByOwner(ctx context.Context, owner ids.ProfileID) ([]ids.AddressID, error) {
	return p.Store.AddressIDsByOwner(ctx, owner)
}

// ProjectProfileEvent applies one profile event.
func (p Projector) ProjectProfileEvent(ctx context.Context, evt profile.Event) error {
	if p.Store == nil {
		return fmt.Errorf("index store is required")
	}
	var err error
	switch e := evt.(type) {
	case profile.Registered:
		err = p.Store.PutProfileName(ctx, e.Profile.Name, e.Profile.ID)
	case profile.FieldChanged:
		if e.Field == profile.FieldName {
			err = p.Store.DeleteProfileName(ctx, e.Old, e.ID)
			if err == nil {
				err = p.Store.PutProfileName(ctx, e.New, e.ID)
			}
		}
	default:
		panic(fmt.Sprintf("projection: unhandled profile event %T", evt))
	}
	if err != nil {
		return fmt.Errorf("project %s: %w", evt.EventType(), err)
	}
	p.Metrics.IncrementProjected(string(evt.EventType()))
	return nil
}

// ProjectAddressEvent applies one address event.
func (p Projector) ProjectAddressEvent(ctx context.Context, evt address.Event) error {
	if p.Store == nil {
		return fmt.Errorf("index store is required")
	}
	var err error
	switch e := evt.(type) {
	case address.Created:
		err = p.link(ctx, e.Address)
		if err == nil {
			err = p.Store.PutToken(ctx, e.Token, e.Address.ID)
		}
	case address.FieldChanged:
		err = p.Store.PutToken(ctx, e.Token, e.ID)
		if err == nil && e.Field == address.FieldLabel {
			err = p.relabel(ctx, e.ID, e.New)
		}
	case address.Deleted:
		err = p.Store.PutToken(ctx, e.Token, e.Snapshot.ID)
		if err == nil {
			err = p.unlink(ctx, LabelKey{Owner: e.Snapshot.Owner, Label: e.Snapshot.Label}, e.Snapshot.ID, false)
		}
	case address.FieldReverted:
		err = p.Store.DeleteToken(ctx, e.Token)
		if err == nil && e.Field == address.FieldLabel {
			err = p.relabel(ctx, e.ID, e.New)
		}
	case address.CreationReverted:
		err = p.Store.DeleteToken(ctx, e.Token)
		if err == nil {
			err = p.forget(ctx, e.ID)
		}
	case address.Restored:
		err = p.Store.DeleteToken(ctx, e.Token)
		if err == nil {
			err = p.link(ctx, e.Snapshot)
		}
	default:
		panic(fmt.Sprintf("projection: unhandled address event %T", evt))
	}
	if err != nil {
		return fmt.Errorf("project %s: %w", evt.EventType(), err)
	}
	p.Metrics.IncrementProjected(string(evt.EventType()))
	return nil
}

// ProjectEnvelope decodes a stored event by its type prefix and applies it.
func (p Projector) ProjectEnvelope(ctx context.Context, env event.Envelope) error {
	switch env.Type.Prefix() {
	case profile.Kind:
		evt, err := profile.Decode(env)
		if err != nil {
			return err
		}
		return p.ProjectProfileEvent(ctx, evt)
	case address.Kind:
		evt, err := address.Decode(env)
		if err != nil {
			return err
		}
		return p.ProjectAddressEvent(ctx, evt)
	default:
		return fmt.Errorf("project %s: unknown aggregate kind", env.Type)
	}
}

// link makes addr live under its (owner, label).
func (p Projector) link(ctx context.Context, addr address.Address) error {
	key := LabelKey{Owner: addr.Owner, Label: addr.Label}
	if err := p.Store.PutLabel(ctx, key, addr.ID); err != nil {
		return err
	}
	if err := p.Store.PutReverse(ctx, addr.ID, key); err != nil {
		return err
	}
	return p.Store.AddOwned(ctx, addr.Owner, addr.ID)
}

// unlink drops the live (owner, label) entry and owner membership. The reverse
// entry survives unless dropReverse is set, so a later restore or label
// revert can still find the owner.
func (p Projector) unlink(ctx context.Context, key LabelKey, id ids.AddressID, dropReverse bool) error {
	if err := p.Store.DeleteLabel(ctx, key, id); err != nil {
		return err
	}
	if err := p.Store.RemoveOwned(ctx, key.Owner, id); err != nil {
		return err
	}
	if dropReverse {
		return p.Store.DeleteReverse(ctx, id)
	}
	return nil
}

// relabel records a new label for id. The (owner, label) entry only moves
// while the address is live; a deleted address keeps just its reverse entry.
func (p Projector) relabel(ctx context.Context, id ids.AddressID, label string) error {
	prev, ok, err := p.Store.LabelByAddressID(ctx, id)
	if err != nil || !ok {
		return err
	}
	next := LabelKey{Owner: prev.Owner, Label: label}
	current, live, err := p.Store.AddressIDByLabel(ctx, prev)
	if err != nil {
		return err
	}
	if live && current == id {
		if err := p.Store.DeleteLabel(ctx, prev, id); err != nil {
			return err
		}
		if err := p.Store.PutLabel(ctx, next, id); err != nil {
			return err
		}
	}
	return p.Store.PutReverse(ctx, id, next)
}

// forget removes every entry of id except pending tokens.
func (p Projector) forget(ctx context.Context, id ids.AddressID) error {
	key, ok, err := p.Store.LabelByAddressID(ctx, id)
	if err != nil || !ok {
		return err
	}
	return p.unlink(ctx, key, id, true)
}
