package cache

import (
	"context"
	"sync"
	"time"

	"github.com/backsoul/quizdeck/pkg/models"
)

type memoryEntry struct {
	quiz     models.Quiz
	storedAt time.Time
	ttl      time.Duration
}

// MemoryStore caché en memoria del proceso
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// MemoryOption ajusta un MemoryStore
type MemoryOption func(*MemoryStore)

// WithClock sustituye el reloj usado para calcular la vigencia
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		m.now = now
	}
}

// NewMemoryStore crea una caché en memoria vacía
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get devuelve una copia del quiz si la entrada sigue vigente
func (m *MemoryStore) Get(_ context.Context, key string) (models.Quiz, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return models.Quiz{}, false, nil
	}
	if m.now().Sub(entry.storedAt) >= entry.ttl {
		m.mu.Lock()
		if current, ok := m.entries[key]; ok && current.storedAt.Equal(entry.storedAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return models.Quiz{}, false, nil
	}

	return entry.quiz.Clone(), true, nil
}

// Set guarda una copia del quiz con la marca de tiempo actual
func (m *MemoryStore) Set(_ context.Context, key string, quiz models.Quiz, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{
		quiz:     quiz.Clone(),
		storedAt: m.now(),
		ttl:      ttl,
	}
	return nil
}

// Purge elimina todas las entradas
func (m *MemoryStore) Purge(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]memoryEntry)
	return nil
}

// Len número de entradas guardadas, vigentes o no
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// HealthCheck siempre sano
func (m *MemoryStore) HealthCheck(_ context.Context) error {
	return nil
}
