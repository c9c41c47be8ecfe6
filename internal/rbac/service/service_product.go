package service

import (
	"context"

	"catalog/internal/rbac/events"
	"catalog/internal/rbac/model"
)

const productNotFound = "Product not found"

func (s *Service) ListProducts(ctx context.Context, q model.PageQuery) (*model.ProductList, error) {
	q.Normalize()
	products, total, err := s.Store.ListProducts(ctx, q.Skip(), int64(q.Limit))
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []*model.Product{}
	}
	return &model.ProductList{
		Results:    products,
		Pagination: model.NewPagination(q, total),
	}, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.Store.GetProduct(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, productNotFound, "")
	}
	return p, nil
}

func (s *Service) CreateProduct(ctx context.Context, callerID string, req model.ProductReq) (*model.Product, error) {
	p := &model.Product{
		Name:      req.Name,
		Price:     req.Price,
		Image:     req.Image,
		CreatedBy: callerID,
	}
	if err := s.Store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.Events.Publish(ctx, events.Event{Type: events.ProductCreated, ActorID: callerID, Payload: p})
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, callerID, id string, req model.ProductReq) (*model.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Name = req.Name
	p.Price = req.Price
	p.Image = req.Image
	if err := s.Store.UpdateProduct(ctx, p); err != nil {
		return nil, mapStoreErr(err, productNotFound, "")
	}
	s.Events.Publish(ctx, events.Event{Type: events.ProductUpdated, ActorID: callerID, Payload: p})
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, callerID, id string) error {
	if err := s.Store.DeleteProduct(ctx, id); err != nil {
		return mapStoreErr(err, productNotFound, "")
	}
	s.Events.Publish(ctx, events.Event{Type: events.ProductDeleted, ActorID: callerID, Payload: id})
	return nil
}

func (s *Service) SearchProducts(ctx context.Context, keyword string, q model.PageQuery) (*model.SearchResult, error) {
	if s.Indexer == nil {
		return nil, errSearchDisabled
	}
	return s.Indexer.Search(ctx, keyword, q)
}

// RegisterIndexSync forwards committed product mutations to the sync queue.
// Enqueue never blocks, so the originating request is not delayed by the index.
func RegisterIndexSync(bus *events.Bus, queue SyncQueue) {
	forward := func(op string) events.Handler {
		return func(ctx context.Context, e events.Event) error {
			queue.Enqueue(op, model.SearchableType, e.Payload)
			return nil
		}
	}
	bus.Subscribe(events.ProductCreated, forward(model.SyncOpCreate))
	bus.Subscribe(events.ProductUpdated, forward(model.SyncOpUpdate))
	bus.Subscribe(events.ProductDeleted, forward(model.SyncOpDelete))
}
