// Package eventtest holds the behaviour every event.Store backend must share.
package eventtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/event"
)

// RunStoreTests exercises a backend. newStore must return an empty store and
// may register cleanup with t.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) event.Store) {
	t.Run("append then load keeps call order", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		stream := event.StreamID("address-a1")

		mustAppend(t, store, stream, "address.created")
		mustAppend(t, store, "profile-p1", "profile.registered")
		stored := mustAppend(t, store, stream, "address.field_changed", "address.deleted")
		if stored[0].Seq != 2 || stored[1].Seq != 3 {
			t.Fatalf("stored seqs = %d,%d, want 2,3", stored[0].Seq, stored[1].Seq)
		}
		if stored[1].Position <= stored[0].Position {
			t.Fatalf("positions not increasing: %d then %d", stored[0].Position, stored[1].Position)
		}

		loaded, err := store.Load(ctx, stream)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		want := []event.Type{"address.created", "address.field_changed", "address.deleted"}
		if len(loaded) != len(want) {
			t.Fatalf("loaded %d events, want %d", len(loaded), len(want))
		}
		for i, typ := range want {
			if loaded[i].Type != typ || loaded[i].Seq != uint64(i+1) || loaded[i].StreamID != stream {
				t.Fatalf("loaded[%d] = %+v", i, loaded[i])
			}
		}
	})

	t.Run("empty append is a no-op", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		if _, err := store.Append(ctx, "address-a1", nil); err != nil {
			t.Fatalf("append: %v", err)
		}
		loaded, err := store.Load(ctx, "address-a1")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(loaded) != 0 {
			t.Fatalf("loaded = %+v, want none", loaded)
		}
	})

	t.Run("unknown stream loads empty", func(t *testing.T) {
		loaded, err := newStore(t).Load(context.Background(), "address-missing")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(loaded) != 0 {
			t.Fatalf("loaded = %+v, want none", loaded)
		}
	})

	t.Run("payload and timestamp survive", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		ts := time.Date(2026, 3, 4, 5, 6, 7, 8_000_000, time.UTC)
		if _, err := store.Append(ctx, "profile-p1", []event.Envelope{{
			Type:        "profile.registered",
			Timestamp:   ts,
			PayloadJSON: []byte(`{"profile":{"name":"ada"}}`),
		}}); err != nil {
			t.Fatalf("append: %v", err)
		}
		loaded, err := store.Load(ctx, "profile-p1")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if string(loaded[0].PayloadJSON) != `{"profile":{"name":"ada"}}` {
			t.Fatalf("payload = %s", loaded[0].PayloadJSON)
		}
		if !loaded[0].Timestamp.Equal(ts) {
			t.Fatalf("timestamp = %s, want %s", loaded[0].Timestamp, ts)
		}
	})

	t.Run("read all pages in global order", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		order := []event.StreamID{"address-a1", "profile-p1", "address-a1", "address-a2", "profile-p1"}
		for _, stream := range order {
			mustAppend(t, store, stream, "test.appended")
		}

		var got []event.StreamID
		var after uint64
		for {
			page, err := store.ReadAll(ctx, after, 2)
			if err != nil {
				t.Fatalf("read all: %v", err)
			}
			for _, env := range page {
				if env.Position <= after {
					t.Fatalf("position %d not after %d", env.Position, after)
				}
				after = env.Position
				got = append(got, env.StreamID)
			}
			if len(page) < 2 {
				break
			}
		}
		if fmt.Sprint(got) != fmt.Sprint(order) {
			t.Fatalf("global order = %v, want %v", got, order)
		}
	})
}

func mustAppend(t *testing.T, store event.Store, stream event.StreamID, types ...event.Type) []event.Envelope {
	t.Helper()
	envs := make([]event.Envelope, 0, len(types))
	for _, typ := range types {
		envs = append(envs, event.Envelope{Type: typ, Timestamp: time.Now(), PayloadJSON: []byte(`{}`)})
	}
	stored, err := store.Append(context.Background(), stream, envs)
	if err != nil {
		t.Fatalf("append %s: %v", stream, err)
	}
	if len(stored) != len(types) {
		t.Fatalf("stored %d envelopes, want %d", len(stored), len(types))
	}
	return stored
}
