package store

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrKeyNotFound is returned by KV.Get for a missing key.
var ErrKeyNotFound = errors.New("key not found")

// Item is one key/value pair from a scan.
type Item struct {
	Key   string
	Value []byte
}

// KV is the minimal store surface the backend needs. Keys are file
// paths; ns is the resolved namespace isolating one tenant.
type KV interface {
	Get(ctx context.Context, ns, key string) ([]byte, error)
	Put(ctx context.Context, ns, key string, value []byte) error
	Delete(ctx context.Context, ns, key string) error
	Scan(ctx context.Context, ns string) ([]Item, error)
}

// MemKV is an in-memory KV for tests and ephemeral deployments.
type MemKV struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemKV returns an empty in-memory KV.
func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string]map[string][]byte)}
}

// Get implements KV.
func (m *MemKV) Get(ctx context.Context, ns, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[ns][key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put implements KV.
func (m *MemKV) Put(ctx context.Context, ns, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.data[ns]
	if !ok {
		bucket = make(map[string][]byte)
		m.data[ns] = bucket
	}
	v := make([]byte, len(value))
	copy(v, value)
	bucket[key] = v
	return nil
}

// Delete implements KV.
func (m *MemKV) Delete(ctx context.Context, ns, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[ns], key)
	return nil
}

// Scan implements KV.
func (m *MemKV) Scan(ctx context.Context, ns string) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bucket := m.data[ns]
	items := make([]Item, 0, len(bucket))
	for k, v := range bucket {
		value := make([]byte, len(v))
		copy(value, v)
		items = append(items, Item{Key: k, Value: value})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items, nil
}
