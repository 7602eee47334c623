package repo

import (
	"context"
	"sync"
	"time"

	"masterbox/internal/services/claims/domain"
)

// Memory is an in-process ledger used by tests and local development. One
// mutex plays the role of the store-wide lock, so Claim has the same
// check-then-append atomicity as the Postgres ledger.
type Memory struct {
	mu   sync.Mutex
	rows map[string]domain.ClaimRecord
	test []domain.ClaimRecord

	// FailFind and FailAppend inject backend failures for fail-open /
	// fail-closed tests
	FailFind   error
	FailAppend error
}

// NewMemory builds an empty in-process ledger.
func NewMemory() *Memory {
	return &Memory{rows: make(map[string]domain.ClaimRecord)}
}

// Find implements domain.Ledger.
func (m *Memory) Find(_ context.Context, orderIDNorm string) (*domain.ClaimRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailFind != nil {
		return nil, m.FailFind
	}
	if rec, ok := m.rows[orderIDNorm]; ok {
		return &rec, nil
	}
	return nil, nil
}

// Claim implements domain.Ledger.
func (m *Memory) Claim(_ context.Context, rec domain.ClaimRecord) (*domain.ClaimRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailFind != nil {
		return nil, false, m.FailFind
	}
	if prior, ok := m.rows[rec.OrderIDNorm]; ok {
		return &prior, false, nil
	}
	if m.FailAppend != nil {
		return nil, false, m.FailAppend
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	m.rows[rec.OrderIDNorm] = rec
	return nil, true, nil
}

// AppendTest implements domain.Ledger.
func (m *Memory) AppendTest(_ context.Context, rec domain.ClaimRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAppend != nil {
		return m.FailAppend
	}
	m.test = append(m.test, rec)
	return nil
}

// Len reports the number of production rows.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// TestLen reports the number of test-namespace rows.
func (m *Memory) TestLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.test)
}
