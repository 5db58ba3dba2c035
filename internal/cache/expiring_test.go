package cache_test

import (
	"testing"
	"time"

	"go-bitcoin/internal/cache"
)

func TestExpiringInsertAndHas(t *testing.T) {
	c := cache.NewExpiring[[32]byte](time.Hour)
	var key [32]byte
	key[0] = 1

	if c.Has(key) {
		t.Fatal("expected miss before insert")
	}
	c.Insert(key)
	if !c.Has(key) {
		t.Fatal("expected hit after insert")
	}
	if c.Len() != 1 {
		t.Fatalf("expected len 1, got %d", c.Len())
	}
}

func TestExpiringLazyEviction(t *testing.T) {
	c := cache.NewExpiring[string](time.Millisecond)
	c.Insert("a")
	time.Sleep(5 * time.Millisecond)

	if c.Has("a") {
		t.Fatal("expected entry to have expired")
	}
	if c.Len() != 0 {
		t.Fatalf("expected len 0 after sweep, got %d", c.Len())
	}
}

func TestExpiringRemove(t *testing.T) {
	c := cache.NewExpiring[int](time.Hour)
	c.Insert(42)
	c.Remove(42)
	if c.Has(42) {
		t.Fatal("expected entry to be gone after remove")
	}
}
