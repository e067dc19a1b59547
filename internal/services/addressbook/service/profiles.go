package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	apperrors "github.com/louisbranch/addressbook/internal/platform/errors"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/profile"
)

// RegisterProfileInput names a new profile.
type RegisterProfileInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateProfileInput changes the non-nil fields.
type UpdateProfileInput struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// RegisterProfile creates a profile under a unique name.
func (s *Service) RegisterProfile(ctx context.Context, in RegisterProfileInput) (_ ProfileView, err error) {
	ctx, span := s.start(ctx, "register_profile", attribute.String("name", in.Name))
	defer func() { endSpan(span, err) }()

	if _, taken, err := s.projector.ProfileIDByName(ctx, in.Name); err != nil {
		return ProfileView{}, err
	} else if taken {
		return ProfileView{}, profile.ErrAlreadyExists
	}

	id, err := ids.NewProfileID(s.ids)
	if err != nil {
		return ProfileView{}, err
	}
	p := profile.Profile{ID: id, Name: in.Name, Email: in.Email}
	events, err := s.profiles.Run(ctx, profile.StreamID(id), profile.Register{Profile: p})
	if err := narrow("register profile", err, apperrors.CodeInvalidArgument); err != nil {
		return ProfileView{}, err
	}
	if err := s.projectProfile(ctx, events); err != nil {
		return ProfileView{}, err
	}
	s.logger.Info("profile registered", zap.String("profile_id", id.String()))
	return profileView(p), nil
}

// GetProfile returns the profile registered under name.
func (s *Service) GetProfile(ctx context.Context, name string) (_ ProfileView, err error) {
	ctx, span := s.start(ctx, "get_profile", attribute.String("name", name))
	defer func() { endSpan(span, err) }()

	p, err := s.resolveProfile(ctx, name)
	if err != nil {
		return ProfileView{}, err
	}
	return profileView(p), nil
}

// UpdateProfile applies the requested field changes. Every value is validated
// before anything is appended, so a rejected request changes nothing.
// Renaming onto a name held by another profile fails with ALREADY_EXISTS.
func (s *Service) UpdateProfile(ctx context.Context, name string, in UpdateProfileInput) (_ ProfileView, err error) {
	ctx, span := s.start(ctx, "update_profile", attribute.String("name", name))
	defer func() { endSpan(span, err) }()

	changes := []struct {
		field profile.Field
		value *string
	}{
		{profile.FieldName, in.Name},
		{profile.FieldEmail, in.Email},
	}
	for _, change := range changes {
		if change.value == nil {
			continue
		}
		if err := profile.Validate(change.field, *change.value); err != nil {
			return ProfileView{}, err
		}
	}

	p, err := s.resolveProfile(ctx, name)
	if err != nil {
		return ProfileView{}, err
	}
	if in.Name != nil && *in.Name != p.Name {
		if holder, taken, err := s.projector.ProfileIDByName(ctx, *in.Name); err != nil {
			return ProfileView{}, err
		} else if taken && holder != p.ID {
			return ProfileView{}, profile.ErrAlreadyExists
		}
	}

	stream := profile.StreamID(p.ID)
	for _, change := range changes {
		if change.value == nil {
			continue
		}
		events, err := s.profiles.Run(ctx, stream, profile.ChangeField{Field: change.field, Value: *change.value})
		if err := narrow("update profile", err, apperrors.CodeInvalidArgument, apperrors.CodeNotFound); err != nil {
			return ProfileView{}, err
		}
		if err := s.projectProfile(ctx, events); err != nil {
			return ProfileView{}, err
		}
	}

	state, err := s.profiles.Load(ctx, stream)
	if err != nil {
		return ProfileView{}, err
	}
	if state.Current == nil {
		return ProfileView{}, profile.ErrNotFound
	}
	return profileView(*state.Current), nil
}
