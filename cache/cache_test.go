package cache

import (
	"errors"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_SetGet(t *testing.T) {
	c := newTestCache(t)

	if err := c.Set("k", "hola"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get("k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "hola" {
		t.Errorf("Get = %q, want %q", got, "hola")
	}
}

func TestCache_MissOnAbsentKey(t *testing.T) {
	c := newTestCache(t)

	if _, err := c.Get("nope"); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get = %v, want ErrMiss", err)
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := newTestCache(t)

	if err := c.SetTTL("k", "v", 50*time.Millisecond); err != nil {
		t.Fatalf("SetTTL: %v", err)
	}
	if _, err := c.Get("k"); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if _, err := c.Get("k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get after expiry = %v, want ErrMiss", err)
	}
}

func TestKey(t *testing.T) {
	a := Key("hello", "en", "es")
	b := Key("hello", "en", "es")
	if a != b {
		t.Error("same parts produced different keys")
	}
	if a == Key("hello", "en", "fr") {
		t.Error("different parts produced the same key")
	}
	// Joining must not be ambiguous across part boundaries.
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("part boundaries not preserved")
	}
	if len(a) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(a))
	}
}

func TestCache_DiskBacked(t *testing.T) {
	dir := t.TempDir()

	c, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Set("k", "persisted"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c.Close()

	got, err := c.Get("k")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got != "persisted" {
		t.Errorf("Get = %q, want %q", got, "persisted")
	}
}
