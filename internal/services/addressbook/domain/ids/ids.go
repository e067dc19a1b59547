// Package ids holds the branded identifiers of the addressbook domain.
//
// Profile ids, address ids and revert tokens are all opaque strings at rest,
// but they are distinct types so one can never be passed where another is
// expected. Values are only built through the Parse*/New* constructors.
package ids

import (
	"fmt"
	"strings"
	"unicode"

	apperrors "github.com/louisbranch/addressbook/internal/platform/errors"
)

const maxLen = 128

// Generator is the identifier source used for aggregate ids and tokens.
type Generator interface {
	NewID() (string, error)
}

// ProfileID identifies a profile aggregate.
type ProfileID struct{ value string }

// AddressID identifies an address aggregate.
type AddressID struct{ value string }

// Token is a one-time revert credential.
type Token struct{ value string }

// ParseProfileID validates raw as a profile id.
func ParseProfileID(raw string) (ProfileID, error) {
	v, err := parse("profile id", raw)
	return ProfileID{v}, err
}

// ParseAddressID validates raw as an address id.
func ParseAddressID(raw string) (AddressID, error) {
	v, err := parse("address id", raw)
	return AddressID{v}, err
}

// ParseToken validates raw as a revert token.
func ParseToken(raw string) (Token, error) {
	v, err := parse("token", raw)
	return Token{v}, err
}

// NewProfileID draws a fresh profile id from gen.
func NewProfileID(gen Generator) (ProfileID, error) {
	raw, err := draw(gen)
	if err != nil {
		return ProfileID{}, err
	}
	return ParseProfileID(raw)
}

// NewAddressID draws a fresh address id from gen.
func NewAddressID(gen Generator) (AddressID, error) {
	raw, err := draw(gen)
	if err != nil {
		return AddressID{}, err
	}
	return ParseAddressID(raw)
}

// NewToken draws a fresh revert token from gen.
func NewToken(gen Generator) (Token, error) {
	raw, err := draw(gen)
	if err != nil {
		return Token{}, err
	}
	return ParseToken(raw)
}

func (id ProfileID) String() string { return id.value }
func (id AddressID) String() string { return id.value }
func (t Token) String() string      { return t.value }

func (id ProfileID) IsZero() bool { return id.value == "" }
func (id AddressID) IsZero() bool { return id.value == "" }
func (t Token) IsZero() bool      { return t.value == "" }

func (id ProfileID) MarshalText() ([]byte, error) { return []byte(id.value), nil }
func (id AddressID) MarshalText() ([]byte, error) { return []byte(id.value), nil }
func (t Token) MarshalText() ([]byte, error)      { return []byte(t.value), nil }

func (id *ProfileID) UnmarshalText(b []byte) error {
	parsed, err := ParseProfileID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *AddressID) UnmarshalText(b []byte) error {
	parsed, err := ParseAddressID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (t *Token) UnmarshalText(b []byte) error {
	parsed, err := ParseToken(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func parse(kind, raw string) (string, error) {
	if raw == "" {
		return "", apperrors.New(apperrors.CodeInvalidArgument, kind+" is required")
	}
	if len(raw) > maxLen {
		return "", apperrors.New(apperrors.CodeInvalidArgument, fmt.Sprintf("%s exceeds %d bytes", kind, maxLen))
	}
	if strings.ContainsFunc(raw, func(r rune) bool { return unicode.IsSpace(r) || r == '/' }) {
		return "", apperrors.New(apperrors.CodeInvalidArgument, kind+" contains invalid characters")
	}
	return raw, nil
}

func draw(gen Generator) (string, error) {
	if gen == nil {
		return "", fmt.Errorf("identifier source is required")
	}
	raw, err := gen.NewID()
	if err != nil {
		return "", fmt.Errorf("generate identifier: %w", err)
	}
	return raw, nil
}
