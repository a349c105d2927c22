package limiter

import (
	"context"
	"sync"
	"time"
)

type attempt struct {
	fails        int
	updatedAt    time.Time
	blockedUntil time.Time
}

// Memory is an in-process limiter with the same policy semantics as PG.
type Memory struct {
	mu     sync.Mutex
	policy Policy
	now    func() time.Time
	byKey  map[string]*attempt
}

// NewMemory constructs an in-process limiter.
func NewMemory(p Policy) *Memory {
	return &Memory{policy: p, now: time.Now, byKey: map[string]*attempt{}}
}

func key(email string, ipHash []byte) string { return email + "\x00" + string(ipHash) }

// Allow reports whether sign-in is currently allowed and a retry-after duration.
func (m *Memory) Allow(_ context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byKey[key(email, ipHash)]
	if !ok {
		return true, 0, nil
	}
	if now := m.now(); a.blockedUntil.After(now) {
		return false, a.blockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

// Success resets counters for (email, ip).
func (m *Memory) Success(_ context.Context, email string, ipHash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byKey, key(email, ipHash))
	return nil
}

// Failure records a failed attempt; may set a block until a future time.
func (m *Memory) Failure(_ context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	k := key(email, ipHash)
	a, ok := m.byKey[k]
	if !ok {
		a = &attempt{}
		m.byKey[k] = a
	}
	if now.Sub(a.updatedAt) > m.policy.Window {
		a.fails = 0
	}
	a.fails++
	a.updatedAt = now
	if a.fails < m.policy.MaxFails {
		return false, 0, nil
	}
	a.blockedUntil = now.Add(m.policy.BlockFor)
	return true, m.policy.BlockFor, nil
}
