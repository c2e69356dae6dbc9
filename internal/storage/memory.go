package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryLedger keeps paid bounties for the lifetime of the process.
type MemoryLedger struct {
	mu   sync.RWMutex
	data map[uint64]PaidRecord
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{data: make(map[uint64]PaidRecord)}
}

func (m *MemoryLedger) IsPaid(_ context.Context, bountyID uint64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[bountyID]
	return ok, nil
}

func (m *MemoryLedger) MarkPaid(_ context.Context, record PaidRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[record.BountyID] = record
	return nil
}

func (m *MemoryLedger) List(_ context.Context) ([]PaidRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedRecords(m.data), nil
}

func sortedRecords(data map[uint64]PaidRecord) []PaidRecord {
	out := make([]PaidRecord, 0, len(data))
	for _, rec := range data {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BountyID < out[j].BountyID })
	return out
}
