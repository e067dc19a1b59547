package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/louisbranch/addressbook/internal/platform/errors"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/address"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"
)

// CreateAddressInput is the initial content of an address.
type CreateAddressInput struct {
	Label      string `json:"label"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// UpdateAddressInput changes the non-nil fields, in canonical field order.
type UpdateAddressInput struct {
	Label      *string `json:"label,omitempty"`
	Street     *string `json:"street,omitempty"`
	City       *string `json:"city,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
	Country    *string `json:"country,omitempty"`
}

func (in UpdateAddressInput) value(f address.Field) *string {
	switch f {
	case address.FieldLabel:
		return in.Label
	case address.FieldStreet:
		return in.Street
	case address.FieldCity:
		return in.City
	case address.FieldPostalCode:
		return in.PostalCode
	case address.FieldCountry:
		return in.Country
	default:
		panic("service: unknown address field " + string(f))
	}
}

// CreateAddress adds an address to the owner's book and notifies the owner.
func (s *Service) CreateAddress(ctx context.Context, owner string, in CreateAddressInput) (_ AddressView, err error) {
	ctx, span := s.start(ctx, "create_address", attribute.String("owner", owner), attribute.String("label", in.Label))
	defer func() { endSpan(span, err) }()

	p, err := s.resolveProfile(ctx, owner)
	if err != nil {
		return AddressView{}, err
	}
	if err := s.claimLabel(ctx, p.ID, in.Label, ids.AddressID{}); err != nil {
		return AddressView{}, err
	}

	id, err := ids.NewAddressID(s.ids)
	if err != nil {
		return AddressView{}, err
	}
	token, err := ids.NewToken(s.ids)
	if err != nil {
		return AddressView{}, err
	}
	addr := address.Address{
		ID:         id,
		Owner:      p.ID,
		Label:      in.Label,
		Street:     in.Street,
		City:       in.City,
		PostalCode: in.PostalCode,
		Country:    in.Country,
	}
	events, err := s.addresses.Run(ctx, address.StreamID(id), address.Create{Address: addr, Token: token})
	if err := narrow("create address", err, apperrors.CodeInvalidArgument); err != nil {
		return AddressView{}, err
	}
	if err := s.projectAddress(ctx, events); err != nil {
		return AddressView{}, err
	}
	if err := s.notifyActions(ctx, p.Email, addr.Label, events); err != nil {
		return AddressView{}, err
	}
	return addressView(addr), nil
}

// GetAddress returns the owner's live address under label.
func (s *Service) GetAddress(ctx context.Context, owner, label string) (_ AddressView, err error) {
	ctx, span := s.start(ctx, "get_address", attribute.String("owner", owner), attribute.String("label", label))
	defer func() { endSpan(span, err) }()

	p, err := s.resolveProfile(ctx, owner)
	if err != nil {
		return AddressView{}, err
	}
	state, err := s.resolveAddress(ctx, p.ID, label)
	if err != nil {
		return AddressView{}, err
	}
	return addressView(*state.Current), nil
}

// ListAddresses returns the owner's live addresses ordered by id.
func (s *Service) ListAddresses(ctx context.Context, owner string) (_ []AddressView, err error) {
	ctx, span := s.start(ctx, "list_addresses", attribute.String("owner", owner))
	defer func() { endSpan(span, err) }()

	p, err := s.resolveProfile(ctx, owner)
	if err != nil {
		return nil, err
	}
	owned, err := s.projector.AddressIDsByOwner(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	out := make([]AddressView, 0, len(owned))
	for _, id := range owned {
		state, err := s.addresses.Load(ctx, address.StreamID(id))
		if err != nil {
			return nil, err
		}
		if state.Current != nil {
			out = append(out, addressView(*state.Current))
		}
	}
	return out, nil
}

// UpdateAddress applies each requested change as its own revertible event,
// notifying the owner once per change.
func (s *Service) UpdateAddress(ctx context.Context, owner, label string, in UpdateAddressInput) (_ AddressView, err error) {
	ctx, span := s.start(ctx, "update_address", attribute.String("owner", owner), attribute.String("label", label))
	defer func() { endSpan(span, err) }()

	p, err := s.resolveProfile(ctx, owner)
	if err != nil {
		return AddressView{}, err
	}
	state, err := s.resolveAddress(ctx, p.ID, label)
	if err != nil {
		return AddressView{}, err
	}
	id := state.Current.ID
	if in.Label != nil && *in.Label != label {
		if err := s.claimLabel(ctx, p.ID, *in.Label, id); err != nil {
			return AddressView{}, err
		}
	}

	stream := address.StreamID(id)
	for _, f := range address.Fields {
		value := in.value(f)
		if value == nil {
			continue
		}
		token, err := ids.NewToken(s.ids)
		if err != nil {
			return AddressView{}, err
		}
		events, err := s.addresses.Run(ctx, stream, address.ChangeField{Field: f, Value: *value, Token: token})
		if err := narrow("update address", err, apperrors.CodeInvalidArgument, apperrors.CodeNotFound); err != nil {
			return AddressView{}, err
		}
		if err := s.projectAddress(ctx, events); err != nil {
			return AddressView{}, err
		}
		if f == address.FieldLabel && len(events) > 0 {
			label = *value
		}
		if err := s.notifyActions(ctx, p.Email, label, events); err != nil {
			return AddressView{}, err
		}
	}

	state, err = s.addresses.Load(ctx, stream)
	if err != nil {
		return AddressView{}, err
	}
	if state.Current == nil {
		return AddressView{}, address.ErrNotFound
	}
	return addressView(*state.Current), nil
}

// DeleteAddress removes the owner's address under label and notifies the
// owner with a token that can restore it.
func (s *Service) DeleteAddress(ctx context.Context, owner, label string) (_ AddressView, err error) {
	ctx, span := s.start(ctx, "delete_address", attribute.String("owner", owner), attribute.String("label", label))
	defer func() { endSpan(span, err) }()

	p, err := s.resolveProfile(ctx, owner)
	if err != nil {
		return AddressView{}, err
	}
	state, err := s.resolveAddress(ctx, p.ID, label)
	if err != nil {
		return AddressView{}, err
	}
	token, err := ids.NewToken(s.ids)
	if err != nil {
		return AddressView{}, err
	}
	snapshot := *state.Current
	events, err := s.addresses.Run(ctx, address.StreamID(snapshot.ID), address.Delete{Token: token})
	if err := narrow("delete address", err, apperrors.CodeNotFound); err != nil {
		return AddressView{}, err
	}
	if err := s.projectAddress(ctx, events); err != nil {
		return AddressView{}, err
	}
	if err := s.notifyActions(ctx, p.Email, snapshot.Label, events); err != nil {
		return AddressView{}, err
	}
	return addressView(snapshot), nil
}
