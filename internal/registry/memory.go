package registry

import (
	"context"
	"sync"
	"time"

	"sagachat/go-backend/pkg/models"
)

type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]models.RegistryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]models.RegistryEntry), now: time.Now}
}

func (m *MemoryStore) Lookup(_ context.Context, walletAddress string) (models.RegistryEntry, bool, error) {
	walletAddress, err := normalizeLookup(walletAddress)
	if err != nil {
		return models.RegistryEntry{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[walletAddress]
	return entry, ok, nil
}

func (m *MemoryStore) Publish(_ context.Context, walletAddress string, key [32]byte) (models.PublishResult, error) {
	walletAddress, err := validatePublish(walletAddress, key)
	if err != nil {
		return models.PublishResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var prev *models.RegistryEntry
	if existing, ok := m.entries[walletAddress]; ok {
		prev = &existing
	}
	next, res := apply(prev, walletAddress, key, m.now())
	m.entries[walletAddress] = next
	return res, nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
