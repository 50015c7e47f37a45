package session

import (
	"context"
	"sync"
)

// Store хранит сессионное состояние асессора: какой чат открыт
// в какой вкладке. Ключ - chatAbierto_<vista>, область видимости - сессия.
type Store interface {
	SetOpenChat(ctx context.Context, vista, casoID string) error
	OpenChat(ctx context.Context, vista string) (string, error)
	ClearOpenChat(ctx context.Context, vista string) error
}

func chatKey(asesorID, vista string) string {
	return "sac:" + asesorID + ":chatAbierto_" + vista
}

// MemoryStore - хранилище в памяти процесса. Используется в тестах
// и когда Redis не сконфигурирован.
type MemoryStore struct {
	asesorID string

	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore создает хранилище для одного асессора
func NewMemoryStore(asesorID string) *MemoryStore {
	return &MemoryStore{asesorID: asesorID, data: make(map[string]string)}
}

func (s *MemoryStore) SetOpenChat(_ context.Context, vista, casoID string) error {
	s.mu.Lock()
	s.data[chatKey(s.asesorID, vista)] = casoID
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) OpenChat(_ context.Context, vista string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[chatKey(s.asesorID, vista)], nil
}

func (s *MemoryStore) ClearOpenChat(_ context.Context, vista string) error {
	s.mu.Lock()
	delete(s.data, chatKey(s.asesorID, vista))
	s.mu.Unlock()
	return nil
}
