package cache

import (
	"errors"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New[string](Config{MaxItems: 10, TTL: time.Minute})
	defer c.Close()

	c.Set("y'", "diff(y(x),x)")

	got, ok := c.Get("y'")
	if !ok || got != "diff(y(x),x)" {
		t.Errorf("Get() = %q, %v", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should miss")
	}

	hits, misses, rate := c.Stats()
	if hits != 1 || misses != 1 || rate != 50 {
		t.Errorf("Stats() = %d, %d, %v", hits, misses, rate)
	}
}

func TestCache_Expiration(t *testing.T) {
	c := New[int](Config{MaxItems: 10, TTL: time.Minute})
	defer c.Close()

	c.SetWithTTL("short", 1, 10*time.Millisecond)
	c.SetWithTTL("forever", 2, 0)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("expired entry should not be returned")
	}
	if v, ok := c.Get("forever"); !ok || v != 2 {
		t.Error("entry without TTL should never expire")
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestCache_Eviction(t *testing.T) {
	c := New[int](Config{MaxItems: 2, TTL: time.Minute})
	defer c.Close()

	c.SetWithTTL("a", 1, time.Second)
	c.SetWithTTL("b", 2, time.Hour)
	c.SetWithTTL("c", 3, time.Hour)

	if c.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", c.Size())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("entry closest to expiry should be evicted first")
	}

	// overwriting an existing key never evicts
	c.Set("b", 20)
	if _, ok := c.Get("c"); !ok {
		t.Error("overwrite should not evict other entries")
	}
}

func TestCache_GetOrSet(t *testing.T) {
	c := New[string](DefaultConfig())
	defer c.Close()

	calls := 0
	compute := func() (string, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrSet("k", compute)
		if err != nil || v != "value" {
			t.Fatalf("GetOrSet() = %q, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}

	_, err := c.GetOrSet("bad", func() (string, error) { return "", errors.New("boom") })
	if err == nil {
		t.Error("GetOrSet() should return the compute error")
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("errors must not be cached")
	}
}

func TestCache_DeleteClear(t *testing.T) {
	c := New[int](Config{})
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	if c.Size() != 1 {
		t.Errorf("Size() after Delete = %d", c.Size())
	}
	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Size() after Clear = %d", c.Size())
	}
}

func TestCache_CleanupLoop(t *testing.T) {
	c := New[int](Config{MaxItems: 10, TTL: 5 * time.Millisecond, CleanupInterval: 5 * time.Millisecond})
	c.Set("a", 1)

	deadline := time.Now().Add(time.Second)
	for c.Size() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if c.Size() != 0 {
		t.Error("cleanup loop did not remove expired entry")
	}

	c.Close()
	c.Close()
}
