package service

import (
	"context"
	"log/slog"

	"catalog/internal/rbac/apperrors"
	"catalog/internal/rbac/model"
)

const recordNotFound = "Record not found."

// activeType resolves a data route's type name to an active resource type.
func (s *Service) activeType(ctx context.Context, name string) (*model.ResourceType, error) {
	rt, err := s.Store.GetActiveResourceTypeByName(ctx, name)
	if err != nil {
		return nil, mapStoreErr(err, modelNotFound, "")
	}
	return rt, nil
}

func (s *Service) ListRecords(ctx context.Context, callerID, modelName string, q model.PageQuery) (*model.DataRecordList, error) {
	rt, err := s.activeType(ctx, modelName)
	if err != nil {
		return nil, err
	}
	if err := s.Resolver.Authorize(ctx, callerID, rt.ResourceName(), model.ActionView); err != nil {
		return nil, err
	}

	q.Normalize()
	records, total, err := s.Store.ListRecords(ctx, rt.Name, q.Skip(), int64(q.Limit))
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*model.DataRecord{}
	}
	return &model.DataRecordList{
		Results:    records,
		Pagination: model.NewPagination(q, total),
		Model:      rt,
	}, nil
}

func (s *Service) GetRecord(ctx context.Context, callerID, modelName, id string) (*model.DataRecord, error) {
	rt, err := s.activeType(ctx, modelName)
	if err != nil {
		return nil, err
	}
	if err := s.Resolver.Authorize(ctx, callerID, rt.ResourceName(), model.ActionView); err != nil {
		return nil, err
	}
	rec, err := s.Store.GetRecord(ctx, rt.Name, id)
	if err != nil {
		return nil, mapStoreErr(err, recordNotFound, "")
	}
	return rec, nil
}

func (s *Service) CreateRecord(ctx context.Context, callerID, modelName string, req model.DataRecordReq) (*model.DataRecord, error) {
	rt, err := s.activeType(ctx, modelName)
	if err != nil {
		return nil, err
	}
	if err := s.Resolver.Authorize(ctx, callerID, rt.ResourceName(), model.ActionCreate); err != nil {
		return nil, err
	}
	if err := apperrors.NewValidationError(model.ValidateFields(rt.Fields, req.Data)); err != nil {
		return nil, err
	}

	rec := &model.DataRecord{
		ModelName: rt.Name,
		Data:      req.Data,
		CreatedBy: callerID,
	}
	if err := s.Store.CreateRecord(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Debug("record created",
		slog.String("model", rt.Name),
		slog.String("id", rec.ID),
	)
	return rec, nil
}

// UpdateRecord replaces the record's data wholesale after the same field validation as create.
func (s *Service) UpdateRecord(ctx context.Context, callerID, modelName, id string, req model.DataRecordReq) (*model.DataRecord, error) {
	rt, err := s.activeType(ctx, modelName)
	if err != nil {
		return nil, err
	}
	rec, err := s.Store.GetRecord(ctx, rt.Name, id)
	if err != nil {
		return nil, mapStoreErr(err, recordNotFound, "")
	}
	if err := s.Resolver.AuthorizeRecord(ctx, callerID, rt.ResourceName(), model.ActionEdit, rec.CreatedBy); err != nil {
		return nil, err
	}
	if err := apperrors.NewValidationError(model.ValidateFields(rt.Fields, req.Data)); err != nil {
		return nil, err
	}

	rec.Data = req.Data
	if err := s.Store.UpdateRecord(ctx, rec); err != nil {
		return nil, mapStoreErr(err, recordNotFound, "")
	}
	return rec, nil
}

func (s *Service) DeleteRecord(ctx context.Context, callerID, modelName, id string) error {
	rt, err := s.activeType(ctx, modelName)
	if err != nil {
		return err
	}
	rec, err := s.Store.GetRecord(ctx, rt.Name, id)
	if err != nil {
		return mapStoreErr(err, recordNotFound, "")
	}
	if err := s.Resolver.AuthorizeRecord(ctx, callerID, rt.ResourceName(), model.ActionDelete, rec.CreatedBy); err != nil {
		return err
	}
	return mapStoreErr(s.Store.DeleteRecord(ctx, rt.Name, id), recordNotFound, "")
}
