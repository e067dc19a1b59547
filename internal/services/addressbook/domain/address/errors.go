package address

import (
	stderrors "errors"

	apperrors "github.com/louisbranch/addressbook/internal/platform/errors"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"
)

var (
	// ErrNotFound is returned when a command targets an absent address.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "address not found")
	// ErrAlreadyExists is returned when Create targets an existing address.
	ErrAlreadyExists = apperrors.New(apperrors.CodeAlreadyExists, "address already exists")
	// ErrLabelRequired rejects an empty label.
	ErrLabelRequired = apperrors.New(apperrors.CodeInvalidArgument, "address label is required")

	errInvalidToken = apperrors.New(apperrors.CodeInvalidToken, "revert token is invalid")
)

// InvalidTokenError reports a token that was never issued or was already
// redeemed.
type InvalidTokenError struct {
	Token ids.Token
}

func (e *InvalidTokenError) Error() string {
	return "revert token " + e.Token.String() + " is invalid or already used"
}

// Is matches any error carrying the INVALID_TOKEN code.
func (e *InvalidTokenError) Is(target error) bool {
	return stderrors.Is(errInvalidToken, target)
}

// Code reports the platform error code.
func (e *InvalidTokenError) Code() apperrors.Code {
	return apperrors.CodeInvalidToken
}
