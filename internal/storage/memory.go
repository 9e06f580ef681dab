package storage

import (
	"sort"
	"sync"
	"time"
)

// Memory is an in-process key-value store. SetErr, when non-nil, is
// returned by every Set so tests can simulate a failing disk.
type Memory struct {
	mu      sync.RWMutex
	values  map[string]string
	updated map[string]time.Time
	writes  int

	SetErr error
}

func NewMemory() *Memory {
	return &Memory{
		values:  make(map[string]string),
		updated: make(map[string]time.Time),
	}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.values[key] = value
	m.updated[key] = time.Now().UTC()
	m.writes++
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	delete(m.updated, key)
	return nil
}

// Writes counts successful Set calls.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

func (m *Memory) Entries() ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]Entry, 0, len(m.values))
	for k, v := range m.values {
		entries = append(entries, Entry{Key: k, Size: len(v), UpdatedAt: m.updated[k]})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}
