package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Get(ctx, "missing"); err != ErrMiss {
		t.Fatalf("expected miss, got %v", err)
	}

	if err := m.Set(ctx, "greeting", "vanakkam", 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := m.Get(ctx, "greeting")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "vanakkam" {
		t.Fatalf("unexpected value %q", got)
	}

	if err := m.Delete(ctx, "greeting"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get(ctx, "greeting"); err != ErrMiss {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	current := time.Now()
	m.now = func() time.Time { return current }

	if err := m.Set(ctx, "short", "lived", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := m.Get(ctx, "short"); err != nil {
		t.Fatalf("expected hit before expiry, got %v", err)
	}

	current = current.Add(2 * time.Minute)
	if _, err := m.Get(ctx, "short"); err != ErrMiss {
		t.Fatalf("expected miss after expiry, got %v", err)
	}
}
