package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_SetAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, "/projects/1", []byte(`{"id":1}`), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, ok, err := s.Get(ctx, "/projects/1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() miss, want hit")
	}
	if string(value) != `{"id":1}` {
		t.Errorf("Get() = %s, want {\"id\":1}", value)
	}
}

func TestMemoryStore_Miss(t *testing.T) {
	s := NewMemoryStore()

	value, ok, err := s.Get(context.Background(), "/projects/404")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok || value != nil {
		t.Errorf("Get() = (%v, %v), want (nil, false)", value, ok)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, "/tasks/1", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok, _ := s.Get(ctx, "/tasks/1"); ok {
		t.Error("Get() hit after expiry, want miss")
	}
}

func TestMemoryStore_ZeroTTLNotCached(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, "/tasks/1", []byte("v"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, ok, _ := s.Get(ctx, "/tasks/1"); ok {
		t.Error("Get() hit for zero-TTL set, want miss")
	}
}

func TestMemoryStore_Overwrite(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.Set(ctx, "/projects/1", []byte("old"), time.Minute)
	_ = s.Set(ctx, "/projects/1", []byte("new"), time.Minute)

	value, ok, _ := s.Get(ctx, "/projects/1")
	if !ok || string(value) != "new" {
		t.Errorf("Get() = (%s, %v), want (new, true)", value, ok)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.Set(ctx, "/projects/1", []byte("v"), time.Minute)

	if err := s.Delete(ctx, "/projects/1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := s.Get(ctx, "/projects/1"); ok {
		t.Error("Get() hit after delete, want miss")
	}

	// Deleting again is a no-op.
	if err := s.Delete(ctx, "/projects/1"); err != nil {
		t.Errorf("Delete() second call error = %v", err)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				_ = s.Set(ctx, "/shared", []byte("v"), time.Minute)
				_, _, _ = s.Get(ctx, "/shared")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
