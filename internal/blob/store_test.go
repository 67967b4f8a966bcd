package blob

import (
	"context"
	"testing"
	"time"
)

func TestAudioKey(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	if got, want := AudioKey("42", at), "lm_audio_42_1700000000123"; got != want {
		t.Errorf("AudioKey = %q, want %q", got, want)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	b, err := s.Get(context.Background(), "nope")
	if err != nil || b != nil {
		t.Errorf("Get(missing) = %v, %v; want nil, nil", b, err)
	}
}

func TestMemoryStoreDeleteIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.Put(ctx, Blob{Key: "k", Data: []byte("x")}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.Delete(ctx, "k"); err != nil {
			t.Errorf("Delete #%d: %v", i+1, err)
		}
	}
	if b, _ := s.Get(ctx, "k"); b != nil {
		t.Error("blob still present after delete")
	}
}

func TestPurgerRemovesExpired(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Put(ctx, Blob{Key: "old", CreatedAt: now.Add(-3*time.Minute - time.Second)})
	s.Put(ctx, Blob{Key: "fresh", CreatedAt: now.Add(-2 * time.Minute)})

	p := &Purger{Store: s, Now: func() time.Time { return now }}
	n, err := p.PurgeOnce(ctx)
	if err != nil {
		t.Fatalf("PurgeOnce: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d, want 1", n)
	}
	keys := s.Keys()
	if len(keys) != 1 || keys[0] != "fresh" {
		t.Errorf("remaining keys = %v, want [fresh]", keys)
	}
}

func TestPurgerRunStopsOnCancel(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		(&Purger{Store: s, Interval: time.Millisecond}).Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
