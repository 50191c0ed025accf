package storage

import (
	"context"
	"sync"

	"github.com/gwgplus/nikkle/internal/domain/entity"
	"github.com/gwgplus/nikkle/internal/domain/port"
)

// MemoryStore хранилище в памяти для стендов без базы. Неизвестный
// логин получает синтетическую учётную запись без пароля, чтобы стенд
// работал без предварительной настройки.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]*entity.Account
	logs     []*entity.LogRecord
	nextID   int64
}

var (
	_ port.AccountStore = (*MemoryStore)(nil)
	_ port.LogStore     = (*MemoryStore)(nil)
)

// NewMemoryStore создаёт пустое хранилище в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*entity.Account),
		nextID:   1,
	}
}

// Lookup возвращает учётную запись по логину.
func (s *MemoryStore) Lookup(_ context.Context, accountID string) (*entity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.accounts[accountID]; ok {
		copied := *a
		return &copied, nil
	}
	return &entity.Account{
		ID:      accountID,
		Name:    accountID,
		IsAdmin: true,
	}, nil
}

// Put добавляет или заменяет учётную запись.
func (s *MemoryStore) Put(a *entity.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *a
	s.accounts[a.ID] = &copied
}

// Append добавляет запись журнала и возвращает её идентификатор.
func (s *MemoryStore) Append(_ context.Context, rec *entity.LogRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *rec
	s.logs = append(s.logs, &copied)
	id := s.nextID
	s.nextID++
	return id, nil
}

// Records возвращает копию журнала, в порядке добавления.
func (s *MemoryStore) Records() []*entity.LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*entity.LogRecord, len(s.logs))
	copy(out, s.logs)
	return out
}
