package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"
	"github.com/louisbranch/addressbook/internal/services/addressbook/projection"
	"github.com/louisbranch/addressbook/internal/services/addressbook/projection/projectiontest"
)

const urlEnv = "ADDRESSBOOK_TEST_REDIS_URL"

func TestOpenRejectsBadURL(t *testing.T) {
	if _, err := Open(context.Background(), "not-a-url", ""); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNewDefaultsPrefix(t *testing.T) {
	store := New(nil, "")
	if store.prefix != DefaultPrefix {
		t.Fatalf("prefix = %q, want %q", store.prefix, DefaultPrefix)
	}
	if got := store.nameKey("ada"); got != "addressbook:name:ada" {
		t.Fatalf("name key = %q", got)
	}
}

func TestCloseNilStore(t *testing.T) {
	var store *IndexStore
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
}

func TestEmptyAndReset(t *testing.T) {
	url := os.Getenv(urlEnv)
	if url == "" {
		t.Skipf("%s not set", urlEnv)
	}
	ctx := context.Background()
	store, err := Open(ctx, url, fmt.Sprintf("addressbook-test:%d:reset:", time.Now().UnixNano()))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if empty, err := store.Empty(ctx); err != nil || !empty {
		t.Fatalf("fresh store empty = %v %v", empty, err)
	}
	owner, err := ids.ParseProfileID("p1")
	if err != nil {
		t.Fatalf("parse owner: %v", err)
	}
	for i := 0; i < 3; i++ {
		id, err := ids.ParseAddressID(fmt.Sprintf("a%d", i))
		if err != nil {
			t.Fatalf("parse address: %v", err)
		}
		if err := store.AddOwned(ctx, owner, id); err != nil {
			t.Fatalf("add owned: %v", err)
		}
		if err := store.PutLabel(ctx, projection.LabelKey{Owner: owner, Label: fmt.Sprintf("l%d", i)}, id); err != nil {
			t.Fatalf("put label: %v", err)
		}
	}
	if empty, err := store.Empty(ctx); err != nil || empty {
		t.Fatalf("populated store empty = %v %v", empty, err)
	}
	if err := store.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if empty, err := store.Empty(ctx); err != nil || !empty {
		t.Fatalf("reset store empty = %v %v", empty, err)
	}
}

func TestIndexStoreConformance(t *testing.T) {
	url := os.Getenv(urlEnv)
	if url == "" {
		t.Skipf("%s not set", urlEnv)
	}

	run := time.Now().UnixNano()
	n := 0
	projectiontest.RunIndexStoreTests(t, func(t *testing.T) projection.IndexStore {
		n++
		store, err := Open(context.Background(), url, fmt.Sprintf("addressbook-test:%d:%d:", run, n))
		if err != nil {
			t.Fatalf("open store: %v", err)
		}
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}
