// Package blob defines the short-lived local blob buffer that holds session
// audio until a dispute claims it or the grace period runs out.
package blob

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// DefaultGrace is how long an unclaimed blob is kept.
const DefaultGrace = 3 * time.Minute

// Blob is a stored object.
type Blob struct {
	Key       string
	Data      []byte
	MIME      string
	CreatedAt time.Time
}

// Store is the blob buffer. Get returns (nil, nil) for a missing key and
// Delete of a missing key is not an error.
type Store interface {
	Put(ctx context.Context, b Blob) error
	Get(ctx context.Context, key string) (*Blob, error)
	Delete(ctx context.Context, key string) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// AudioKey builds the key a session recording is stored under.
func AudioKey(sessionID string, at time.Time) string {
	return fmt.Sprintf("lm_audio_%s_%d", sessionID, at.UnixMilli())
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string]Blob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]Blob)}
}

func (s *MemoryStore) Put(_ context.Context, b Blob) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	b.Data = append([]byte(nil), b.Data...)
	s.mu.Lock()
	s.blobs[b.Key] = b
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, nil
	}
	b.Data = append([]byte(nil), b.Data...)
	return &b, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.blobs, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) PurgeOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, b := range s.blobs {
		if b.CreatedAt.Before(cutoff) {
			delete(s.blobs, k)
			n++
		}
	}
	return n, nil
}

// Keys lists stored keys in order.
func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.blobs))
	for k := range s.blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Purger deletes blobs older than Grace every Interval.
type Purger struct {
	Store    Store
	Grace    time.Duration
	Interval time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

// PurgeOnce runs a single purge pass.
func (p *Purger) PurgeOnce(ctx context.Context) (int, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	grace := p.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}
	return p.Store.PurgeOlderThan(ctx, now().Add(-grace))
}

// Run purges until ctx is canceled. Failures are logged and retried on the
// next tick.
func (p *Purger) Run(ctx context.Context) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := p.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		n, err := p.PurgeOnce(ctx)
		switch {
		case err != nil:
			logger.Warn("blob purge failed", "error", err)
		case n > 0:
			logger.Debug("purged blobs", "count", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
