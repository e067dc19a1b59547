package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/event"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/event/eventtest"
)

const dsnEnv = "ADDRESSBOOK_TEST_POSTGRES_DSN"

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}

func TestCloseNilStore(t *testing.T) {
	var store *Store
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
}

func TestStoreConformance(t *testing.T) {
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set", dsnEnv)
	}

	eventtest.RunStoreTests(t, func(t *testing.T) event.Store {
		store, err := Open(context.Background(), dsn)
		if err != nil {
			t.Fatalf("open store: %v", err)
		}
		if _, err := store.sqlDB.ExecContext(context.Background(), "TRUNCATE events RESTART IDENTITY"); err != nil {
			t.Fatalf("truncate events: %v", err)
		}
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}
