package service

import (
	"context"
	"errors"
	"log/slog"

	"catalog/internal/rbac/apperrors"
	"catalog/internal/rbac/model"
)

var errSearchDisabled = errors.New("search index is not configured")

func (s *Service) SyncStatus(ctx context.Context) model.SyncStatus {
	if s.Queue == nil {
		return model.SyncStatus{}
	}
	return s.Queue.Status(ctx)
}

// SyncAll queues a create for every record of typeName and returns how many were queued.
// The queue's probe and retry carry the writes, so a down backend is not an error here.
func (s *Service) SyncAll(ctx context.Context, typeName string) (int, error) {
	if typeName == "" {
		typeName = model.SearchableType
	}
	if typeName != model.SearchableType {
		return 0, apperrors.BadRequestf("Only %s model is supported for syncing", model.SearchableType)
	}
	if s.Queue == nil {
		return 0, errSearchDisabled
	}

	products, err := s.Store.AllProducts(ctx)
	if err != nil {
		return 0, err
	}
	for _, p := range products {
		s.Queue.Enqueue(model.SyncOpCreate, model.SearchableType, p)
	}
	s.logger.Info("products queued for sync", slog.Int("count", len(products)))
	return len(products), nil
}

func (s *Service) ResetSync(ctx context.Context) error {
	if s.Queue == nil {
		return nil
	}
	if err := s.Queue.Reset(); err != nil {
		return err
	}
	s.logger.Info("sync queue reset")
	return nil
}

// RebuildIndex drops and recreates the index, then bulk-writes every product synchronously.
func (s *Service) RebuildIndex(ctx context.Context) (int, error) {
	if s.Indexer == nil {
		return 0, errSearchDisabled
	}
	n, err := s.Indexer.ReindexAll(ctx, model.SearchableType)
	if err != nil {
		return n, err
	}
	s.logger.Info("products reindexed", slog.Int("count", n))
	return n, nil
}
