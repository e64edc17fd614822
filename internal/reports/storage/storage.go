package storage

import (
	"sync"
	"time"

	"github.com/quoteflow/quoteflow-backend/internal/reports/domain"
)

// ResultStore keeps recent parse results in memory so a client can fetch a
// result again by report ID without a database. Entries expire after a TTL.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]*domain.ParseResult
	ttl     time.Duration
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

// DefaultTTL applies when NewResultStore is given a non-positive TTL
const DefaultTTL = 15 * time.Minute

// NewResultStore creates a store and starts its cleanup loop
func NewResultStore(ttl time.Duration) *ResultStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &ResultStore{
		results: make(map[string]*domain.ParseResult),
		ttl:     ttl,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Store saves a parse result under its report ID
func (s *ResultStore) Store(result *domain.ParseResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.ReportID] = result
}

// Get returns a result that has not yet expired, or nil
func (s *ResultStore) Get(reportID string) *domain.ParseResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[reportID]
	if !ok || r.CreatedAt.Before(s.now().Add(-s.ttl)) {
		return nil
	}
	return r
}

// Len returns the number of results held, expired ones included
func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

// Close stops the cleanup loop
func (s *ResultStore) Close() {
	s.once.Do(func() { close(s.done) })
}

// ZeroBytes overwrites an upload buffer once it has been parsed. Driver
// records are personal data and must not linger in memory.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// cleanupLoop periodically removes expired results
func (s *ResultStore) cleanupLoop() {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.done:
			return
		}
	}
}

func (s *ResultStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.ttl)
	for id, r := range s.results {
		if r.CreatedAt.Before(cutoff) {
			delete(s.results, id)
		}
	}
}
