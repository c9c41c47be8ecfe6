// Package search mirrors products into the external search index. The
// Synchronizer applies single operations, the Queue delivers them
// asynchronously in order.
package search

import (
	"context"
	"time"
)

// Document is the indexed projection of a product.
type Document struct {
	ID        string    `json:"-"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Hit struct {
	ID        string
	Score     *float64
	Name      string
	Price     float64
	Image     string
	CreatedAt string
	UpdatedAt string
}

type Hits struct {
	Total int64
	Hits  []Hit
}

// Backend is the index backend. Errors that mean the backend could not be
// reached wrap apperrors.ErrBackendUnavailable.
type Backend interface {
	Ping(ctx context.Context) error
	EnsureIndex(ctx context.Context) error
	IndexDocument(ctx context.Context, doc *Document) error
	// DeleteDocument succeeds when the document is already absent
	DeleteDocument(ctx context.Context, id string) error
	RecreateIndex(ctx context.Context) error
	BulkIndex(ctx context.Context, docs []*Document) (int, error)
	Search(ctx context.Context, keyword string, from, size int) (*Hits, error)
	Reconnect() error
}
