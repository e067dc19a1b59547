package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	apperrors "github.com/louisbranch/addressbook/internal/platform/errors"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/address"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/engine"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"
)

var errMalformedToken = apperrors.New(apperrors.CodeInvalidToken, "revert token is malformed")

// RevertChange redeems a one-time revert token. The owner is not notified.
// Undoing a label change or a deletion onto a label now held by another
// address fails with ALREADY_EXISTS and leaves the token redeemable.
func (s *Service) RevertChange(ctx context.Context, raw string) (_ RevertView, err error) {
	ctx, span := s.start(ctx, "revert_change")
	defer func() { endSpan(span, err) }()

	token, err := ids.ParseToken(raw)
	if err != nil {
		return RevertView{}, errMalformedToken
	}
	id, ok, err := s.projector.AddressIDByToken(ctx, token)
	if err != nil {
		return RevertView{}, err
	}
	if !ok {
		return RevertView{}, &address.InvalidTokenError{Token: token}
	}
	span.SetAttributes(attribute.String("address_id", id.String()))

	stream := address.StreamID(id)
	state, err := s.addresses.Load(ctx, stream)
	if err != nil {
		return RevertView{}, err
	}
	if err := s.checkRevertLabel(ctx, state, token); err != nil {
		return RevertView{}, err
	}

	events, err := s.addresses.Run(ctx, stream, address.Redeem{Token: token})
	if err := narrow("revert change", err, apperrors.CodeInvalidToken); err != nil {
		return RevertView{}, err
	}
	if err := s.projectAddress(ctx, events); err != nil {
		return RevertView{}, err
	}
	if len(events) != 1 {
		engine.Defect("revert change", fmt.Errorf("redeem emitted %d events", len(events)))
	}
	s.logger.Info("revert token redeemed",
		zap.String("address_id", id.String()),
		zap.String("event", string(events[0].EventType())),
	)

	view := RevertView{Event: string(events[0].EventType())}
	state, err = s.addresses.Load(ctx, stream)
	if err != nil {
		return RevertView{}, err
	}
	if state.Current != nil {
		current := addressView(*state.Current)
		view.Address = &current
	}
	return view, nil
}

// checkRevertLabel rejects a redeem that would make the address live under a
// label another address of the same owner now holds.
func (s *Service) checkRevertLabel(ctx context.Context, state address.State, token ids.Token) error {
	switch change := state.PendingReverts[token].(type) {
	case address.FieldChange:
		if change.Field != address.FieldLabel || state.Current == nil {
			return nil
		}
		return s.claimLabel(ctx, state.Current.Owner, change.Old, state.ID)
	case address.Deletion:
		return s.claimLabel(ctx, change.Snapshot.Owner, change.Snapshot.Label, change.Snapshot.ID)
	default:
		return nil
	}
}
