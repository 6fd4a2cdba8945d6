package adapter

import (
	"context"
	"sync"

	"quiz-drill/internal/domain"
)

// MemoryRecordStore keeps records in process memory. Nothing survives a restart.
type MemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string]string
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{records: make(map[string]string)}
}

func (m *MemoryRecordStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.records[key]
	if !ok {
		return "", domain.ErrRecordNotFound
	}
	return val, nil
}

func (m *MemoryRecordStore) Set(_ context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = value
	return nil
}

func (m *MemoryRecordStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.records, k)
	}
	return nil
}

func (m *MemoryRecordStore) Ping(context.Context) error {
	return nil
}
