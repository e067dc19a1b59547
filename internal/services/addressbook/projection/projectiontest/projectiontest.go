// Package projectiontest holds the behaviour every projection.IndexStore
// backend must share.
package projectiontest

import (
	"context"
	"testing"

	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"
	"github.com/louisbranch/addressbook/internal/services/addressbook/projection"
)

// RunIndexStoreTests exercises a backend. newStore must return an empty store.
func RunIndexStoreTests(t *testing.T, newStore func(t *testing.T) projection.IndexStore) {
	t.Run("profile names delete only their own id", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		p1, p2 := profileID(t, "p1"), profileID(t, "p2")

		if _, ok, err := store.ProfileIDByName(ctx, "ada"); err != nil || ok {
			t.Fatalf("lookup empty = %v %v", ok, err)
		}
		mustDo(t, store.PutProfileName(ctx, "ada", p1))
		mustDo(t, store.DeleteProfileName(ctx, "ada", p2))
		if got, ok, err := store.ProfileIDByName(ctx, "ada"); err != nil || !ok || got != p1 {
			t.Fatalf("name = %v %v %v, want p1", got, ok, err)
		}
		mustDo(t, store.DeleteProfileName(ctx, "ada", p1))
		if _, ok, _ := store.ProfileIDByName(ctx, "ada"); ok {
			t.Fatal("expected name removed")
		}
	})

	t.Run("labels delete only their own id", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		a1, a2 := addressID(t, "a1"), addressID(t, "a2")
		key := projection.LabelKey{Owner: profileID(t, "p1"), Label: "summer house/2"}
		other := projection.LabelKey{Owner: profileID(t, "p2"), Label: "summer house/2"}

		mustDo(t, store.PutLabel(ctx, key, a2))
		if _, ok, _ := store.AddressIDByLabel(ctx, other); ok {
			t.Fatal("label leaked across owners")
		}
		mustDo(t, store.DeleteLabel(ctx, key, a1))
		if got, ok, err := store.AddressIDByLabel(ctx, key); err != nil || !ok || got != a2 {
			t.Fatalf("label = %v %v %v, want a2", got, ok, err)
		}
		mustDo(t, store.DeleteLabel(ctx, key, a2))
		if _, ok, _ := store.AddressIDByLabel(ctx, key); ok {
			t.Fatal("expected label removed")
		}
	})

	t.Run("tokens", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		token, err := ids.ParseToken("t1")
		if err != nil {
			t.Fatalf("parse token: %v", err)
		}
		a1 := addressID(t, "a1")

		mustDo(t, store.PutToken(ctx, token, a1))
		if got, ok, err := store.AddressIDByToken(ctx, token); err != nil || !ok || got != a1 {
			t.Fatalf("token = %v %v %v, want a1", got, ok, err)
		}
		mustDo(t, store.DeleteToken(ctx, token))
		mustDo(t, store.DeleteToken(ctx, token))
		if _, ok, _ := store.AddressIDByToken(ctx, token); ok {
			t.Fatal("expected token removed")
		}
	})

	t.Run("reverse entries", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		a1 := addressID(t, "a1")
		key := projection.LabelKey{Owner: profileID(t, "p1"), Label: "work"}

		mustDo(t, store.PutReverse(ctx, a1, key))
		if got, ok, err := store.LabelByAddressID(ctx, a1); err != nil || !ok || got != key {
			t.Fatalf("reverse = %+v %v %v, want %+v", got, ok, err, key)
		}
		moved := projection.LabelKey{Owner: key.Owner, Label: "office"}
		mustDo(t, store.PutReverse(ctx, a1, moved))
		if got, _, _ := store.LabelByAddressID(ctx, a1); got != moved {
			t.Fatalf("reverse = %+v, want %+v", got, moved)
		}
		mustDo(t, store.DeleteReverse(ctx, a1))
		if _, ok, _ := store.LabelByAddressID(ctx, a1); ok {
			t.Fatal("expected reverse removed")
		}
	})

	t.Run("owner sets are sorted", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		owner := profileID(t, "p1")

		empty, err := store.AddressIDsByOwner(ctx, owner)
		if err != nil || len(empty) != 0 {
			t.Fatalf("empty owner = %v %v", empty, err)
		}
		for _, raw := range []string{"c", "a", "b", "a"} {
			mustDo(t, store.AddOwned(ctx, owner, addressID(t, raw)))
		}
		mustDo(t, store.RemoveOwned(ctx, owner, addressID(t, "b")))
		mustDo(t, store.RemoveOwned(ctx, owner, addressID(t, "zz")))

		got, err := store.AddressIDsByOwner(ctx, owner)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 2 || got[0].String() != "a" || got[1].String() != "c" {
			t.Fatalf("owned = %v, want [a c]", got)
		}
	})
}

func mustDo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("index write: %v", err)
	}
}

func profileID(t *testing.T, raw string) ids.ProfileID {
	t.Helper()
	id, err := ids.ParseProfileID(raw)
	if err != nil {
		t.Fatalf("parse profile id: %v", err)
	}
	return id
}

func addressID(t *testing.T, raw string) ids.AddressID {
	t.Helper()
	id, err := ids.ParseAddressID(raw)
	if err != nil {
		t.Fatalf("parse address id: %v", err)
	}
	return id
}
