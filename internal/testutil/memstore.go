package testutil

import (
	"context"
	"fmt"
	"sync"
)

// MemRecordStore is an in-memory RecordStore for tests. It counts every
// backing-store access so tests can assert that caching keeps calls off
// the store, and it can be told to fail individual operations.
type MemRecordStore struct {
	mu   sync.Mutex
	data map[string][]byte

	GetCalls    int
	PutCalls    int
	DeleteCalls int
	ClearCalls  int
	BatchCalls  int

	FailGet    bool
	FailPut    bool
	FailDelete bool
	FailClear  bool
	FailBatch  bool
}

func NewMemRecordStore() *MemRecordStore {
	return &MemRecordStore{data: make(map[string][]byte)}
}

func (m *MemRecordStore) key(collection, key string) string {
	return collection + "/" + key
}

func (m *MemRecordStore) Get(ctx context.Context, collection, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls++
	if m.FailGet {
		return nil, false, fmt.Errorf("injected get failure")
	}
	value, ok := m.data[m.key(collection, key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (m *MemRecordStore) Put(ctx context.Context, collection, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PutCalls++
	if m.FailPut {
		return fmt.Errorf("injected put failure")
	}
	m.data[m.key(collection, key)] = append([]byte(nil), value...)
	return nil
}

func (m *MemRecordStore) Delete(ctx context.Context, collection, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls++
	if m.FailDelete {
		return fmt.Errorf("injected delete failure")
	}
	delete(m.data, m.key(collection, key))
	return nil
}

func (m *MemRecordStore) Clear(ctx context.Context, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ClearCalls++
	if m.FailClear {
		return fmt.Errorf("injected clear failure")
	}
	prefix := collection + "/"
	for k := range m.data {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *MemRecordStore) BatchRead(ctx context.Context, collection string, keys []string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BatchCalls++
	if m.FailBatch {
		return nil, fmt.Errorf("injected batch failure")
	}
	found := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if value, ok := m.data[m.key(collection, key)]; ok {
			found[key] = append([]byte(nil), value...)
		}
	}
	return found, nil
}

// Corrupt overwrites a stored record with bytes that will not decode.
func (m *MemRecordStore) Corrupt(collection, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[m.key(collection, key)] = []byte("not json{")
}

// Len returns the number of stored records across all collections.
func (m *MemRecordStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
