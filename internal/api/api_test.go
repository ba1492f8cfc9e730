package api

import (
	"path/filepath"
	"testing"

	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/notify"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/store"
)

func TestBuildStoreDefaultsToMemory(t *testing.T) {
	st, err := buildStore(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := st.(*store.InMemoryStore); !ok {
		t.Errorf("expected in-memory store, got %T", st)
	}
}

func TestBuildStoreSQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "agent.db")
	st, err := buildStore([]store.Option{store.WithSQLiteDSN(dsn)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := st.(*store.SQLiteStore); !ok {
		t.Errorf("expected SQLite store, got %T", st)
	}
	if closer, ok := st.(interface{ Close() error }); ok {
		closer.Close()
	}
}

func TestNewServerDefaultsNotifier(t *testing.T) {
	srv := NewServer(nil, nil, nil)
	if srv.notifier == nil {
		t.Fatal("expected a default notifier")
	}
	if _, ok := srv.notifier.(notify.NoopNotifier); !ok {
		t.Errorf("expected noop notifier, got %T", srv.notifier)
	}
	if srv.addr != DefaultAddr {
		t.Errorf("expected default addr %q, got %q", DefaultAddr, srv.addr)
	}

	srv = NewServer(nil, nil, notify.NewMockNotifier(), WithAddr(":9999"))
	if srv.addr != ":9999" {
		t.Errorf("expected addr override, got %q", srv.addr)
	}
}
