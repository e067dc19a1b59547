package address

import "github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"

// Field names one mutable address attribute.
type Field string

const (
	FieldLabel      Field = "label"
	FieldStreet     Field = "street"
	FieldCity       Field = "city"
	FieldPostalCode Field = "postal_code"
	FieldCountry    Field = "country"
)

// Fields lists every mutable field in canonical order.
var Fields = []Field{FieldLabel, FieldStreet, FieldCity, FieldPostalCode, FieldCountry}

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	switch f {
	case FieldLabel, FieldStreet, FieldCity, FieldPostalCode, FieldCountry:
		return true
	default:
		return false
	}
}

// Address is the current snapshot of one address. Owner never changes.
type Address struct {
	ID         ids.AddressID `json:"id"`
	Owner      ids.ProfileID `json:"owner"`
	Label      string        `json:"label"`
	Street     string        `json:"street"`
	City       string        `json:"city"`
	PostalCode string        `json:"postal_code"`
	Country    string        `json:"country"`
}

// Get returns the value of f.
func (a Address) Get(f Field) string {
	switch f {
	case FieldLabel:
		return a.Label
	case FieldStreet:
		return a.Street
	case FieldCity:
		return a.City
	case FieldPostalCode:
		return a.PostalCode
	case FieldCountry:
		return a.Country
	default:
		panic("address: unknown field " + string(f))
	}
}

// With returns a copy of a with f set to value.
func (a Address) With(f Field, value string) Address {
	switch f {
	case FieldLabel:
		a.Label = value
	case FieldStreet:
		a.Street = value
	case FieldCity:
		a.City = value
	case FieldPostalCode:
		a.PostalCode = value
	case FieldCountry:
		a.Country = value
	default:
		panic("address: unknown field " + string(f))
	}
	return a
}
