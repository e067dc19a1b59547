package address

import (
	"fmt"
	"testing"

	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"
)

func mustToken(t *testing.T, raw string) ids.Token {
	t.Helper()
	token, err := ids.ParseToken(raw)
	if err != nil {
		t.Fatalf("parse token %q: %v", raw, err)
	}
	return token
}

func homeAddress(t *testing.T) Address {
	t.Helper()
	id, err := ids.ParseAddressID("a1")
	if err != nil {
		t.Fatalf("parse address id: %v", err)
	}
	owner, err := ids.ParseProfileID("p1")
	if err != nil {
		t.Fatalf("parse profile id: %v", err)
	}
	return Address{ID: id, Owner: owner, Label: "home", Street: "1 Rue de Rivoli", City: "Paris", PostalCode: "75001", Country: "FR"}
}

// apply runs cmd through Decide and folds the result, failing on errors.
func apply(t *testing.T, state State, cmd Command) (State, []Event) {
	t.Helper()
	events, err := Decide(state, cmd)
	if err != nil {
		t.Fatalf("decide %T: %v", cmd, err)
	}
	for _, evt := range events {
		state = Evolve(state, evt)
	}
	return state, events
}

func only(t *testing.T, events []Event) Event {
	t.Helper()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1: %v", len(events), events)
	}
	return events[0]
}

type tokenSource struct{ n int }

func (s *tokenSource) next(t *testing.T) ids.Token {
	s.n++
	return mustToken(t, fmt.Sprintf("t%d", s.n))
}
