package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	apperrors "github.com/louisbranch/addressbook/internal/platform/errors"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/address"
	"github.com/louisbranch/addressbook/internal/services/addressbook/notify/render"
)

// notifyActions sends one message per action event to the owner. label is the
// address label the owner knows the address by. Correction events are skipped.
// A failed send stops at that event; everything before it is already stored.
func (s *Service) notifyActions(ctx context.Context, to, label string, events []address.Event) error {
	for _, evt := range events {
		if !evt.IsAction() {
			continue
		}
		msg := s.renderer.Message(to, renderInput(label, evt))
		err := s.notifier.Send(ctx, msg)
		s.metrics.IncrementNotification(err == nil)
		if err != nil {
			s.logger.Warn("notification failed",
				zap.String("event", string(evt.EventType())),
				zap.String("address_id", evt.AggregateID().String()),
				zap.Error(err),
			)
			if apperrors.CodeOf(err) == apperrors.CodeSendFailed {
				return err
			}
			return apperrors.Wrap(apperrors.CodeSendFailed, "notify owner", err)
		}
		s.logger.Debug("notification sent", zap.String("event", string(evt.EventType())))
	}
	return nil
}

func renderInput(label string, evt address.Event) render.Input {
	switch e := evt.(type) {
	case address.Created:
		return render.Input{Topic: render.TopicCreated, Label: e.Address.Label, Token: e.Token.String()}
	case address.FieldChanged:
		return render.Input{
			Topic: render.TopicFieldChanged,
			Label: label,
			Field: string(e.Field),
			Old:   e.Old,
			New:   e.New,
			Token: e.Token.String(),
		}
	case address.Deleted:
		return render.Input{Topic: render.TopicDeleted, Label: e.Snapshot.Label, Token: e.Token.String()}
	default:
		panic(fmt.Sprintf("service: %T is not an action event", evt))
	}
}
