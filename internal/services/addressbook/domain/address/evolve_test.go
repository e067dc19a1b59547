package address

import (
	"errors"
	"math/rand/v2"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"
)

func TestEvolveTracksTokens(t *testing.T) {
	state, _ := apply(t, Initial(), Create{Address: homeAddress(t), Token: mustToken(t, "t1")})
	if _, ok := state.PendingReverts[mustToken(t, "t1")].(Creation); !ok {
		t.Fatalf("pending = %v, want creation under t1", state.PendingReverts)
	}

	state, _ = apply(t, state, ChangeField{Field: FieldStreet, Value: "2 Rue Cler", Token: mustToken(t, "t2")})
	if got := state.PendingReverts[mustToken(t, "t2")]; got != (FieldChange{Field: FieldStreet, Old: "1 Rue de Rivoli", New: "2 Rue Cler"}) {
		t.Fatalf("pending t2 = %#v", got)
	}

	state, _ = apply(t, state, Redeem{Token: mustToken(t, "t2")})
	if _, ok := state.PendingReverts[mustToken(t, "t2")]; ok {
		t.Fatal("expected t2 to be consumed")
	}
	if len(state.PendingReverts) != 1 {
		t.Fatalf("pending = %d, want 1", len(state.PendingReverts))
	}
}

func TestEvolveDoesNotAliasPendingMap(t *testing.T) {
	before, _ := apply(t, Initial(), Create{Address: homeAddress(t), Token: mustToken(t, "t1")})
	after, _ := apply(t, before, Delete{Token: mustToken(t, "t2")})

	if len(before.PendingReverts) != 1 {
		t.Fatalf("earlier state mutated: %v", before.PendingReverts)
	}
	if len(after.PendingReverts) != 2 {
		t.Fatalf("pending = %d, want 2", len(after.PendingReverts))
	}
	if before.Current == nil {
		t.Fatal("earlier state lost its address")
	}
}

func TestEvolveToleratesChangesOnAbsentAddress(t *testing.T) {
	id, _ := ids.ParseAddressID("a1")
	state := Evolve(Initial(), FieldChanged{ID: id, Field: FieldCity, Old: "Paris", New: "Lyon", Token: mustToken(t, "t9")})
	if state.Current != nil {
		t.Fatalf("current = %+v, want absent", state.Current)
	}
	if _, ok := state.PendingReverts[mustToken(t, "t9")]; !ok {
		t.Fatal("expected token to be recorded anyway")
	}

	state = Evolve(state, Deleted{Snapshot: homeAddress(t), Token: mustToken(t, "t10")})
	if state.Current != nil || len(state.PendingReverts) != 2 {
		t.Fatalf("state = %+v", state)
	}
}

func TestNoopChangeLeavesStateUnchanged(t *testing.T) {
	state, _ := apply(t, Initial(), Create{Address: homeAddress(t), Token: mustToken(t, "t1")})
	next, events := apply(t, state, ChangeField{Field: FieldCountry, Value: "FR", Token: mustToken(t, "t2")})
	if len(events) != 0 {
		t.Fatalf("events = %v, want none", events)
	}
	if !reflect.DeepEqual(state, next) {
		t.Fatalf("state changed: %+v -> %+v", state, next)
	}
}

func TestRevertRoundTrip(t *testing.T) {
	for _, f := range Fields {
		t.Run(string(f), func(t *testing.T) {
			start, _ := apply(t, Initial(), Create{Address: homeAddress(t), Token: mustToken(t, "t1")})
			changed, _ := apply(t, start, ChangeField{Field: f, Value: "changed", Token: mustToken(t, "t2")})
			reverted, events := apply(t, changed, Redeem{Token: mustToken(t, "t2")})

			if reverted.Current.Get(f) != start.Current.Get(f) {
				t.Fatalf("%s = %q, want %q", f, reverted.Current.Get(f), start.Current.Get(f))
			}
			if only(t, events).EventType() != RevertedEventType(f) {
				t.Fatalf("type = %s", events[0].EventType())
			}
			if !reflect.DeepEqual(start, reverted) {
				t.Fatalf("state after revert = %+v, want %+v", reverted, start)
			}

			var invalid *InvalidTokenError
			if _, err := Decide(reverted, Redeem{Token: mustToken(t, "t2")}); !errors.As(err, &invalid) {
				t.Fatalf("second redeem err = %v, want *InvalidTokenError", err)
			}
		})
	}
}

func TestScenarioCreateChangeRevertUndo(t *testing.T) {
	addr := homeAddress(t)
	addr.Street, addr.PostalCode, addr.Country = "", "", ""

	state, events := apply(t, Initial(), Create{Address: addr, Token: mustToken(t, "t1")})
	if only(t, events).RevertToken() != mustToken(t, "t1") {
		t.Fatal("expected Created to carry t1")
	}

	state, events = apply(t, state, ChangeField{Field: FieldCity, Value: "Lyon", Token: mustToken(t, "t2")})
	if got := only(t, events).(FieldChanged); got.Old != "Paris" || got.New != "Lyon" {
		t.Fatalf("changed = %+v", got)
	}

	state, events = apply(t, state, Redeem{Token: mustToken(t, "t2")})
	if only(t, events).EventType() != "address.city_reverted" {
		t.Fatalf("type = %s", events[0].EventType())
	}
	if state.Current.City != "Paris" {
		t.Fatalf("city = %q, want Paris", state.Current.City)
	}
	if _, err := Decide(state, Redeem{Token: mustToken(t, "t2")}); err == nil {
		t.Fatal("expected t2 to be invalid")
	}

	state, events = apply(t, state, Redeem{Token: mustToken(t, "t1")})
	if _, ok := only(t, events).(CreationReverted); !ok {
		t.Fatalf("event = %T, want CreationReverted", events[0])
	}
	if state.Current != nil {
		t.Fatalf("current = %+v, want absent", state.Current)
	}
	if len(state.PendingReverts) != 0 {
		t.Fatalf("pending = %v, want empty", state.PendingReverts)
	}
}

func TestScenarioDeleteRestore(t *testing.T) {
	addr := homeAddress(t)
	state, _ := apply(t, Initial(), Create{Address: addr, Token: mustToken(t, "t1")})
	state, events := apply(t, state, Delete{Token: mustToken(t, "t3")})
	if only(t, events).RevertToken() != mustToken(t, "t3") {
		t.Fatal("expected Deleted to carry t3")
	}

	state, events = apply(t, state, Redeem{Token: mustToken(t, "t3")})
	restored, ok := only(t, events).(Restored)
	if !ok {
		t.Fatalf("event = %T, want Restored", events[0])
	}
	if restored.Snapshot != addr || *state.Current != addr {
		t.Fatalf("restored = %+v current = %+v, want %+v", restored.Snapshot, state.Current, addr)
	}
}

// randomHistory drives Decide with random commands and returns every emitted
// event plus the number of action and correction events.
func randomHistory(t *testing.T, seed uint64, steps int) ([]Event, int, int) {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	tokens := &tokenSource{}
	values := []string{"home", "work", "Paris", "Lyon", "x"}

	state := Initial()
	var history []Event
	actions, corrections := 0, 0
	for i := 0; i < steps; i++ {
		var cmd Command
		switch rng.IntN(4) {
		case 0:
			cmd = Create{Address: homeAddress(t), Token: tokens.next(t)}
		case 1:
			cmd = ChangeField{Field: Fields[rng.IntN(len(Fields))], Value: values[rng.IntN(len(values))], Token: tokens.next(t)}
		case 2:
			cmd = Delete{Token: tokens.next(t)}
		default:
			pending := make([]ids.Token, 0, len(state.PendingReverts))
			for token := range state.PendingReverts {
				pending = append(pending, token)
			}
			if len(pending) == 0 {
				continue
			}
			// Sort for a seed-stable pick.
			slices.SortFunc(pending, func(a, b ids.Token) int { return strings.Compare(a.String(), b.String()) })
			cmd = Redeem{Token: pending[rng.IntN(len(pending))]}
		}
		events, err := Decide(state, cmd)
		if err != nil {
			continue
		}
		for _, evt := range events {
			if evt.IsAction() {
				actions++
			} else {
				corrections++
			}
			state = Evolve(state, evt)
			history = append(history, evt)
		}
	}
	return history, actions, corrections
}

func TestFoldIsDeterministic(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		history, _, _ := randomHistory(t, seed, 60)
		first := Fold(history)
		second := Fold(history)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("seed %d: folds differ", seed)
		}
	}
}

func TestTokenSymmetry(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		history, actions, corrections := randomHistory(t, seed, 80)

		seen := map[ids.Token]int{}
		for _, evt := range history {
			if evt.IsAction() {
				seen[evt.RevertToken()]++
			}
		}
		for token, n := range seen {
			if n != 1 {
				t.Fatalf("seed %d: token %s issued %d times", seed, token, n)
			}
		}

		state := Fold(history)
		if len(state.PendingReverts) != actions-corrections {
			t.Fatalf("seed %d: pending = %d, want %d-%d", seed, len(state.PendingReverts), actions, corrections)
		}
	}
}
