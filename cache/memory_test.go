package cache

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(4, 0)

	if err := m.Set(ctx, "a", []byte("payload"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	data, ok, err := m.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected a cache hit")
	}
	if !bytes.Equal(data, []byte("payload")) {
		t.Errorf("Expected payload, got %q", data)
	}
}

func TestMemory_Miss(t *testing.T) {
	m := NewMemory(4, 0)

	_, ok, err := m.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("Expected a miss for an absent key")
	}
}

func TestMemory_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2, 0)

	m.Set(ctx, "a", []byte("1"), 0)
	m.Set(ctx, "b", []byte("2"), 0)

	// Touch "a" so "b" becomes the eviction candidate.
	m.Get(ctx, "a")
	m.Set(ctx, "c", []byte("3"), 0)

	if m.Len() != 2 {
		t.Errorf("Expected capacity 2 to hold, got %d entries", m.Len())
	}
	if _, ok, _ := m.Get(ctx, "b"); ok {
		t.Error("Least recently used entry should have been evicted")
	}
	if _, ok, _ := m.Get(ctx, "a"); !ok {
		t.Error("Recently used entry should survive eviction")
	}
}

func TestMemory_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(4, 0)

	m.Set(ctx, "a", []byte("1"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, ok, _ := m.Get(ctx, "a"); ok {
		t.Error("Expired entry should not be returned")
	}
}

func TestMemory_Remove(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(4, 0)

	m.Set(ctx, "a", []byte("1"), 0)
	if err := m.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "a"); ok {
		t.Error("Removed entry should not be returned")
	}

	if err := m.Remove(ctx, "a"); err != nil {
		t.Errorf("Removing an absent key should not error, got %v", err)
	}
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(64, 0)

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d-%d", n, j)
				m.Set(ctx, key, []byte("x"), 0)
				m.Get(ctx, key)
			}
		}(i)
	}
	for i := 0; i < 4; i++ {
		<-done
	}
}

func TestEncodeDecode(t *testing.T) {
	data, err := Encode("png", []byte{0x89, 0x50})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	format, payload, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if format != "png" {
		t.Errorf("Expected format png, got %s", format)
	}
	if !bytes.Equal(payload, []byte{0x89, 0x50}) {
		t.Errorf("Payload mismatch: %v", payload)
	}
}

func TestDecode_Garbage(t *testing.T) {
	if _, _, err := Decode([]byte("not msgpack at all")); err == nil {
		t.Error("Decode should fail on garbage input")
	}
}
