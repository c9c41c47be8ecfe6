package service

import (
	"errors"
	"testing"

	"catalog/internal/rbac/apperrors"
	"catalog/internal/rbac/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductMutationsEnqueueSync(t *testing.T) {
	f := newFixture(t)

	p, err := f.svc.CreateProduct(f.ctx, f.adminID, model.ProductReq{Name: "Lamp", Price: 12.5})
	require.NoError(t, err)
	_, err = f.svc.UpdateProduct(f.ctx, f.adminID, p.ID, model.ProductReq{Name: "Desk Lamp", Price: 14})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteProduct(f.ctx, f.adminID, p.ID))

	entries := f.queue.snapshot()
	require.Len(t, entries, 3)
	assert.Equal(t, model.SyncOpCreate, entries[0].op)
	assert.Equal(t, model.SyncOpUpdate, entries[1].op)
	assert.Equal(t, model.SyncOpDelete, entries[2].op)
	for _, e := range entries {
		assert.Equal(t, model.SearchableType, e.typeName)
	}
	assert.Equal(t, "Desk Lamp", entries[1].payload.(*model.Product).Name)
	assert.Equal(t, p.ID, entries[2].payload)
}

func TestProductFailuresDoNotEnqueue(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateProduct(f.ctx, f.adminID, "missing", model.ProductReq{Name: "x"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	err = f.svc.DeleteProduct(f.ctx, f.adminID, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.Empty(t, f.queue.snapshot())
}

func TestListProducts(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"a", "b", "c"} {
		_, err := f.svc.CreateProduct(f.ctx, f.adminID, model.ProductReq{Name: name})
		require.NoError(t, err)
	}

	list, err := f.svc.ListProducts(f.ctx, model.PageQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, list.Results, 2)
	assert.Equal(t, int64(3), list.Pagination.Total)
	assert.True(t, list.Pagination.HasNextPage)
}

func TestSync(t *testing.T) {
	t.Run("sync all rejects other types and return bad request", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.SyncAll(f.ctx, "Customer")
		assert.ErrorIs(t, err, apperrors.ErrBadRequest)
		assert.Equal(t, "Only Product model is supported for syncing", apperrors.Message(err))
	})

	t.Run("sync all queues a create per product", func(t *testing.T) {
		f := newFixture(t)
		for _, name := range []string{"a", "b", "c"} {
			_, err := f.svc.CreateProduct(f.ctx, f.adminID, model.ProductReq{Name: name})
			require.NoError(t, err)
		}
		require.NoError(t, f.svc.ResetSync(f.ctx))

		n, err := f.svc.SyncAll(f.ctx, "")
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		entries := f.queue.snapshot()
		require.Len(t, entries, 3)
		for _, e := range entries {
			assert.Equal(t, model.SyncOpCreate, e.op)
			assert.Equal(t, model.SearchableType, e.typeName)
			assert.IsType(t, &model.Product{}, e.payload)
		}
	})

	t.Run("sync all with backend down still queues and return nil", func(t *testing.T) {
		f := newFixture(t)
		f.indexer.err = apperrors.ErrBackendUnavailable
		_, err := f.svc.CreateProduct(f.ctx, f.adminID, model.ProductReq{Name: "Lamp"})
		require.NoError(t, err)
		before := len(f.queue.snapshot())

		n, err := f.svc.SyncAll(f.ctx, model.SearchableType)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Len(t, f.queue.snapshot(), before+1)
	})

	t.Run("rebuild reports the indexed count", func(t *testing.T) {
		f := newFixture(t)
		f.indexer.count = 7

		n, err := f.svc.RebuildIndex(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, 7, n)
		assert.Empty(t, f.queue.snapshot())
	})

	t.Run("rebuild surfaces backend failure", func(t *testing.T) {
		f := newFixture(t)
		f.indexer.err = apperrors.ErrBackendUnavailable

		_, err := f.svc.RebuildIndex(f.ctx)
		assert.True(t, errors.Is(err, apperrors.ErrBackendUnavailable))
	})

	t.Run("reset clears the queue", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateProduct(f.ctx, f.adminID, model.ProductReq{Name: "Lamp"})
		require.NoError(t, err)
		assert.Equal(t, 1, f.svc.SyncStatus(f.ctx).QueueLength)

		require.NoError(t, f.svc.ResetSync(f.ctx))
		assert.Equal(t, 0, f.svc.SyncStatus(f.ctx).QueueLength)
		assert.Equal(t, 1, f.queue.resets)
	})

	t.Run("search goes through the indexer", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.SearchProducts(f.ctx, "lamp", model.PageQuery{})
		require.NoError(t, err)
		assert.Equal(t, []string{"lamp"}, f.indexer.keywords)
	})
}
