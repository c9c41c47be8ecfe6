package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"catalog/internal/rbac/model"
)

// ErrInvalidPayload marks an entry that can never be applied.
var ErrInvalidPayload = errors.New("invalid sync payload")

// ProductSource is the primary store read used for a full reindex.
type ProductSource interface {
	AllProducts(ctx context.Context) ([]*model.Product, error)
}

// Synchronizer applies index operations for the searchable type and ignores every other type.
type Synchronizer struct {
	backend  Backend
	products ProductSource
	logger   *slog.Logger
}

func NewSynchronizer(backend Backend, products ProductSource, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{backend: backend, products: products, logger: logger}
}

func (s *Synchronizer) searchable(op, typeName string) bool {
	if typeName == model.SearchableType {
		return true
	}
	s.logger.Warn("skipping sync for non-searchable type",
		slog.String("op", op),
		slog.String("type", typeName),
	)
	return false
}

func (s *Synchronizer) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *Synchronizer) Reconnect() error {
	return s.backend.Reconnect()
}

// Upsert writes the record, creating the index on first use.
func (s *Synchronizer) Upsert(ctx context.Context, typeName string, record any) error {
	if !s.searchable("upsert", typeName) {
		return nil
	}
	doc, err := toDocument(record)
	if err != nil {
		return err
	}
	if err := s.backend.EnsureIndex(ctx); err != nil {
		return err
	}
	if err := s.backend.IndexDocument(ctx, doc); err != nil {
		return err
	}
	s.logger.Info("product indexed", slog.String("id", doc.ID))
	return nil
}

// Delete removes the document; an absent document is success.
func (s *Synchronizer) Delete(ctx context.Context, typeName, id string) error {
	if !s.searchable("delete", typeName) {
		return nil
	}
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidPayload)
	}
	if err := s.backend.DeleteDocument(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product removed from index", slog.String("id", id))
	return nil
}

// ReindexAll drops and recreates the index, then bulk-writes every product.
func (s *Synchronizer) ReindexAll(ctx context.Context, typeName string) (int, error) {
	if !s.searchable("reindex", typeName) {
		return 0, nil
	}
	products, err := s.products.AllProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load products: %w", err)
	}
	if err := s.backend.RecreateIndex(ctx); err != nil {
		return 0, err
	}

	docs := make([]*Document, 0, len(products))
	for _, p := range products {
		docs = append(docs, productDocument(p))
	}
	n, err := s.backend.BulkIndex(ctx, docs)
	if err != nil {
		return n, err
	}
	s.logger.Info("search index rebuilt", slog.Int("count", n))
	return n, nil
}

// Search returns one page of matching products.
func (s *Synchronizer) Search(ctx context.Context, keyword string, q model.PageQuery) (*model.SearchResult, error) {
	q.Normalize()
	hits, err := s.backend.Search(ctx, keyword, int(q.Skip()), q.Limit)
	if err != nil {
		return nil, err
	}
	results := make([]*model.SearchHit, 0, len(hits.Hits))
	for _, h := range hits.Hits {
		results = append(results, &model.SearchHit{
			ID:        h.ID,
			Name:      h.Name,
			Price:     h.Price,
			Image:     h.Image,
			Score:     h.Score,
			CreatedAt: h.CreatedAt,
			UpdatedAt: h.UpdatedAt,
		})
	}
	return &model.SearchResult{
		Results:    results,
		Pagination: model.NewPagination(q, hits.Total),
	}, nil
}

func toDocument(record any) (*Document, error) {
	switch v := record.(type) {
	case *model.Product:
		if v != nil && v.ID != "" {
			return productDocument(v), nil
		}
	case model.Product:
		if v.ID != "" {
			return productDocument(&v), nil
		}
	}
	return nil, fmt.Errorf("%w: %T", ErrInvalidPayload, record)
}

func productDocument(p *model.Product) *Document {
	return &Document{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
