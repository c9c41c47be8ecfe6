package search

import (
	"context"
	"testing"
	"time"

	"catalog/internal/rbac/model"
	"catalog/internal/rbac/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynchronizerIgnoresOtherTypes(t *testing.T) {
	backend := newFakeBackend()
	s := NewSynchronizer(backend, memory.New(), nil)
	ctx := context.Background()

	assert.NoError(t, s.Upsert(ctx, "Customer", &model.DataRecord{ID: "c1"}))
	assert.NoError(t, s.Delete(ctx, "Customer", "c1"))
	n, err := s.ReindexAll(ctx, "Customer")
	assert.NoError(t, err)
	assert.Zero(t, n)

	assert.Zero(t, backend.ensured)
	assert.Zero(t, backend.recreated)
}

func TestSynchronizerUpsertAndDelete(t *testing.T) {
	backend := newFakeBackend()
	s := NewSynchronizer(backend, memory.New(), nil)
	ctx := context.Background()

	p := &model.Product{ID: "p1", Name: "Lamp", Price: 12.5, CreatedAt: time.Now()}
	require.NoError(t, s.Upsert(ctx, model.SearchableType, p))
	require.NoError(t, s.Upsert(ctx, model.SearchableType, *p))
	assert.Equal(t, 2, backend.ensured)
	assert.Equal(t, "Lamp", backend.docs["p1"].Name)

	require.NoError(t, s.Delete(ctx, model.SearchableType, "p1"))
	require.NoError(t, s.Delete(ctx, model.SearchableType, "p1"))
	assert.Empty(t, backend.docs)

	assert.ErrorIs(t, s.Upsert(ctx, model.SearchableType, "p1"), ErrInvalidPayload)
	assert.ErrorIs(t, s.Upsert(ctx, model.SearchableType, &model.Product{}), ErrInvalidPayload)
	assert.ErrorIs(t, s.Delete(ctx, model.SearchableType, ""), ErrInvalidPayload)

	backend.indexErr = errBoom
	assert.ErrorIs(t, s.Upsert(ctx, model.SearchableType, p), errBoom)
}

func TestSynchronizerReindexAll(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	for _, name := range []string{"Lamp", "Desk", "Chair"} {
		require.NoError(t, repo.CreateProduct(ctx, &model.Product{Name: name, Price: 1}))
	}

	backend := newFakeBackend()
	backend.docs["stale"] = &Document{ID: "stale"}
	s := NewSynchronizer(backend, repo, nil)

	n, err := s.ReindexAll(ctx, model.SearchableType)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, backend.recreated)
	assert.Len(t, backend.docs, 3)
	assert.NotContains(t, backend.docs, "stale")
}

func TestSynchronizerSearchPaginates(t *testing.T) {
	backend := newFakeBackend()
	s := NewSynchronizer(backend, memory.New(), nil)

	res, err := s.Search(context.Background(), "shoe", model.PageQuery{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 20, backend.lastFrom)
	assert.Equal(t, 10, backend.lastSize)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "p1", res.Results[0].ID)
	assert.Equal(t, 3, res.Pagination.TotalPages)
	assert.False(t, res.Pagination.HasNextPage)
	assert.True(t, res.Pagination.HasPrevPage)
}
