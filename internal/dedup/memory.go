package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Memory is an in-process Deduplicator.
type Memory struct {
	clock clockwork.Clock
	ttl   time.Duration

	mu        sync.Mutex
	expiry    map[string]time.Time
	nextSweep time.Time
}

func NewMemory(clock clockwork.Clock, ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		clock:     clock,
		ttl:       ttl,
		expiry:    make(map[string]time.Time),
		nextSweep: clock.Now().Add(ttl),
	}
}

func (m *Memory) Seen(_ context.Context, messageID string) (bool, error) {
	if messageID == "" {
		return false, nil
	}

	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if !now.Before(m.nextSweep) {
		m.sweep(now)
	}

	if exp, ok := m.expiry[messageID]; ok && now.Before(exp) {
		return true, nil
	}
	m.expiry[messageID] = now.Add(m.ttl)
	return false, nil
}

// Len returns the number of remembered ids, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.expiry)
}

func (m *Memory) sweep(now time.Time) {
	for id, exp := range m.expiry {
		if !now.Before(exp) {
			delete(m.expiry, id)
		}
	}
	m.nextSweep = now.Add(m.ttl)
}
