package store

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"sacagente/models"
)

// TypeLookup - кусок REST-клиента для справочника типов
type TypeLookup interface {
	Types(ctx context.Context) ([]models.CaseType, error)
	TypeByID(ctx context.Context, tipoID string) (*models.CaseType, error)
}

// TypeCache мемоизирует типы кейсов по id, чтобы не дёргать бэкенд
// на каждую строку списка. Справочник неизменяемый, инвалидация не нужна.
type TypeCache struct {
	api TypeLookup
	log *logrus.Entry

	mu    sync.RWMutex
	types map[string]models.CaseType
}

// NewTypeCache создает пустой кэш поверх REST-клиента
func NewTypeCache(api TypeLookup) *TypeCache {
	return &TypeCache{
		api:   api,
		log:   logrus.WithField("component", "typecache"),
		types: make(map[string]models.CaseType),
	}
}

// Preload разогревает кэш полным справочником /tipos
func (tc *TypeCache) Preload(ctx context.Context) error {
	types, err := tc.api.Types(ctx)
	if err != nil {
		return err
	}
	tc.mu.Lock()
	for _, t := range types {
		tc.types[t.ID] = t
	}
	tc.mu.Unlock()
	return nil
}

// Get возвращает тип по id, при промахе сходив на бэкенд один раз
func (tc *TypeCache) Get(ctx context.Context, tipoID string) (models.CaseType, error) {
	tc.mu.RLock()
	t, ok := tc.types[tipoID]
	tc.mu.RUnlock()
	if ok {
		return t, nil
	}

	fetched, err := tc.api.TypeByID(ctx, tipoID)
	if err != nil {
		return models.CaseType{}, err
	}
	tc.mu.Lock()
	tc.types[fetched.ID] = *fetched
	tc.mu.Unlock()
	return *fetched, nil
}

// All возвращает все закэшированные типы
func (tc *TypeCache) All() []models.CaseType {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	out := make([]models.CaseType, 0, len(tc.types))
	for _, t := range tc.types {
		out = append(out, t)
	}
	return out
}
