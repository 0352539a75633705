package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/travelq/internal/db"
)

func TestGetSet(t *testing.T) {
	s := NewStore(0)
	ctx := context.Background()

	if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	val := []byte("v1")
	if err := s.Set(ctx, "k", val); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val[0] = 'X'

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v1" {
		t.Errorf("stored value aliased caller slice: %q", got)
	}
}

func TestSetWithTTL_Expires(t *testing.T) {
	s := NewStore(0)
	ctx := context.Background()

	if err := s.SetWithTTL(ctx, "k", []byte("v"), 20*time.Millisecond); err != nil {
		t.Fatalf("SetWithTTL: %v", err)
	}
	time.Sleep(40 * time.Millisecond)

	if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected expired key, got %v", err)
	}
}

func TestIncrBy(t *testing.T) {
	s := NewStore(0)
	ctx := context.Background()

	for _, n := range []int64{5, 7, -2} {
		if err := s.IncrBy(ctx, "c", n); err != nil {
			t.Fatalf("IncrBy: %v", err)
		}
	}
	got, _ := s.Get(ctx, "c")
	if string(got) != "10" {
		t.Errorf("counter = %s, want 10", got)
	}

	_ = s.Set(ctx, "text", []byte("abc"))
	var dbErr *db.Error
	if err := s.IncrBy(ctx, "text", 1); !errors.As(err, &dbErr) {
		t.Errorf("expected db.Error for non-numeric value, got %v", err)
	}
}

func TestExpire_NX(t *testing.T) {
	s := NewStore(0)
	ctx := context.Background()

	_ = s.IncrBy(ctx, "c", 1)
	if err := s.Expire(ctx, "c", 30*time.Millisecond, true); err != nil {
		t.Fatalf("Expire: %v", err)
	}
	// NX must not push the deadline out.
	if err := s.Expire(ctx, "c", time.Hour, true); err != nil {
		t.Fatalf("Expire: %v", err)
	}
	_ = s.IncrBy(ctx, "c", 1)

	time.Sleep(60 * time.Millisecond)
	if _, err := s.Get(ctx, "c"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected key to expire with the first TTL, got %v", err)
	}
}

func TestIncrWindow_ArmsFirstTTL(t *testing.T) {
	s := NewStore(0)
	ctx := context.Background()

	if err := s.IncrWindow(ctx, "w", 4, 30*time.Millisecond); err != nil {
		t.Fatalf("IncrWindow: %v", err)
	}
	if err := s.IncrWindow(ctx, "w", 6, time.Hour); err != nil {
		t.Fatalf("IncrWindow: %v", err)
	}
	if got, _ := s.Get(ctx, "w"); string(got) != "10" {
		t.Errorf("counter = %s, want 10", got)
	}

	time.Sleep(60 * time.Millisecond)
	if _, err := s.Get(ctx, "w"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected counter to expire with the first TTL, got %v", err)
	}
}

func TestExpire_MissingKey(t *testing.T) {
	s := NewStore(0)
	if err := s.Expire(context.Background(), "nope", time.Minute, false); err != nil {
		t.Errorf("Expire on missing key: %v", err)
	}
}

func TestPingAndReady(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if err := s.WaitForReady(context.Background(), time.Second); err != nil {
		t.Errorf("WaitForReady: %v", err)
	}
}
