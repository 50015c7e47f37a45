package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sacagente/models"
)

type fakeTypeLookup struct {
	types     []models.CaseType
	getCalls  int
	listCalls int
}

func (f *fakeTypeLookup) Types(context.Context) ([]models.CaseType, error) {
	f.listCalls++
	return f.types, nil
}

func (f *fakeTypeLookup) TypeByID(_ context.Context, tipoID string) (*models.CaseType, error) {
	f.getCalls++
	for _, t := range f.types {
		if t.ID == tipoID {
			tt := t
			return &tt, nil
		}
	}
	return nil, fmt.Errorf("tipo %s no existe", tipoID)
}

func TestTypeCachePreload(t *testing.T) {
	api := &fakeTypeLookup{types: []models.CaseType{
		{ID: "t1", Nombre: "Facturación"},
		{ID: "t2", Nombre: "Soporte técnico"},
	}}
	tc := NewTypeCache(api)
	require.NoError(t, tc.Preload(context.Background()))

	got, err := tc.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "Facturación", got.Nombre)
	assert.Zero(t, api.getCalls, "после прогрева промахов нет")
	assert.Len(t, tc.All(), 2)
}

func TestTypeCacheMemoizesMiss(t *testing.T) {
	api := &fakeTypeLookup{types: []models.CaseType{{ID: "t1", Nombre: "Ventas"}}}
	tc := NewTypeCache(api)

	for i := 0; i < 3; i++ {
		got, err := tc.Get(context.Background(), "t1")
		require.NoError(t, err)
		assert.Equal(t, "Ventas", got.Nombre)
	}
	assert.Equal(t, 1, api.getCalls, "бэкенд дёргается один раз на id")
}

func TestTypeCacheUnknownID(t *testing.T) {
	tc := NewTypeCache(&fakeTypeLookup{})
	_, err := tc.Get(context.Background(), "fantasma")
	assert.Error(t, err)
}
