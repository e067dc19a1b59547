package service

import (
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/address"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/profile"
)

// ProfileView is the public shape of a profile.
type ProfileView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AddressView is the public shape of an address.
type AddressView struct {
	ID         string `json:"id"`
	Owner      string `json:"owner"`
	Label      string `json:"label"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// RevertView reports the outcome of redeeming a token. Address is nil when
// the redeemed token undid a creation.
type RevertView struct {
	Event   string       `json:"event"`
	Address *AddressView `json:"address,omitempty"`
}

func profileView(p profile.Profile) ProfileView {
	return ProfileView{ID: p.ID.String(), Name: p.Name, Email: p.Email}
}

func addressView(a address.Address) AddressView {
	return AddressView{
		ID:         a.ID.String(),
		Owner:      a.Owner.String(),
		Label:      a.Label,
		Street:     a.Street,
		City:       a.City,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}
