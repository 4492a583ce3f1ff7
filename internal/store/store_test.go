package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/miradorstack/meterd/internal/utils"
)

func exerciseProvider(t *testing.T, p Provider) {
	t.Helper()
	ctx := context.Background()

	if _, err := p.Get(ctx, "meter-value"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing key, got %v", err)
	}
	if err := p.Set(ctx, "meter-value", "42.5"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := p.Set(ctx, "meter-value", "43"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := p.Get(ctx, "meter-value")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "43" {
		t.Fatalf("expected 43, got %q", got)
	}
}

func TestMemoryProvider(t *testing.T) {
	exerciseProvider(t, NewMemoryProvider())
}

func TestSQLiteProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs", "meterd.db")
	p, err := NewSQLiteProvider(context.Background(), path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	exerciseProvider(t, p)
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewSQLiteProvider(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get(context.Background(), "meter-value")
	if err != nil || got != "43" {
		t.Fatalf("expected value to survive reopen, got %q err=%v", got, err)
	}
}

func TestOpenBackends(t *testing.T) {
	p, err := Open(context.Background(), Options{})
	if err != nil {
		t.Fatalf("default backend: %v", err)
	}
	if _, ok := p.(*MemoryProvider); !ok {
		t.Fatalf("expected memory provider, got %T", p)
	}

	_, err = Open(context.Background(), Options{Backend: "etcd"})
	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError for unknown backend, got %v", err)
	}

	if _, err := Open(context.Background(), Options{Backend: BackendRedis}); err == nil {
		t.Fatalf("expected error when redis addr is missing")
	}
}

func TestPrefixedKey(t *testing.T) {
	if got := prefixedKey("", "meter-value"); got != "meter-value" {
		t.Fatalf("unexpected key without prefix: %s", got)
	}
	if got := prefixedKey("meterd", "meter-value"); got != "meterd:meter-value" {
		t.Fatalf("unexpected prefixed key: %s", got)
	}
}
