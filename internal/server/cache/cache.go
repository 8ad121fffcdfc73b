// Package cache — кэш ответов листинга опросов.
//
// Ключ — путь с нормализованной query (например "/polls?limit=20&offset=0").
// Invalidate(path) снимает все ключи, начинающиеся с path, и поднимает версию кэша.
// Set пишет только если версия не менялась с момента Version: так ответ,
// прочитанный из БД до инвалидации, не попадёт в кэш после неё.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultTTL — срок жизни записи, если ttl не задан.
const DefaultTTL = time.Minute

// ListingCache — то, что нужно HTTP-слою и сервису опросов.
type ListingCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Version — текущая версия, её надо взять до чтения из БД.
	Version(ctx context.Context) (int64, error)
	// Set кладёт value, только если версия всё ещё равна version.
	Set(ctx context.Context, key string, value []byte, version int64) error
	Invalidate(ctx context.Context, path string) error
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory — кэш в памяти процесса, для dev и тестов.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	version int64
	items   map[string]memoryEntry
}

// NewMemory создаёт кэш в памяти. ttl <= 0 — DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]memoryEntry),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if m.now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Version(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version, nil
}

// Set заодно вычищает протухшие записи.
func (m *Memory) Set(_ context.Context, key string, value []byte, version int64) error {
	now := m.now()
	e := memoryEntry{value: append([]byte(nil), value...), expiresAt: now.Add(m.ttl)}

	m.mu.Lock()
	defer m.mu.Unlock()
	if version != m.version {
		return nil
	}
	for k, old := range m.items {
		if now.After(old.expiresAt) {
			delete(m.items, k)
		}
	}
	m.items[key] = e
	return nil
}

func (m *Memory) Invalidate(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.version++
	for k := range m.items {
		if strings.HasPrefix(k, path) {
			delete(m.items, k)
		}
	}
	return nil
}

// Len — число живых и протухших, но ещё не вычищенных записей.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Nop — кэш выключен: всегда промах, Invalidate ничего не делает.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Version(context.Context) (int64, error)            { return 0, nil }
func (Nop) Set(context.Context, string, []byte, int64) error  { return nil }
func (Nop) Invalidate(context.Context, string) error          { return nil }
