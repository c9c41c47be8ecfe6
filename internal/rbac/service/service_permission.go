package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"catalog/internal/rbac/apperrors"
	"catalog/internal/rbac/model"
)

const permissionNotFound = "Permission not found"

func (s *Service) ListPermissions(ctx context.Context) ([]*model.Permission, error) {
	perms, err := s.Store.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	if perms == nil {
		perms = []*model.Permission{}
	}
	return perms, nil
}

func (s *Service) GetPermission(ctx context.Context, id string) (*model.Permission, error) {
	perm, err := s.Store.GetPermission(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, permissionNotFound, "")
	}
	return perm, nil
}

func (s *Service) CreatePermission(ctx context.Context, callerID string, req model.CreatePermissionReq) (*model.Permission, error) {
	if req.Description == "" {
		req.Description = model.DefaultPermissionDescription(req.Action, req.Resource)
	}
	perm := &model.Permission{
		Resource:    req.Resource,
		Action:      req.Action,
		Description: req.Description,
	}
	if err := s.Store.CreatePermission(ctx, perm); err != nil {
		return nil, mapStoreErr(err, "", fmt.Sprintf("Permission %s:%s already exists", req.Resource, req.Action))
	}

	s.logger.Info("audit: permission created", slog.String("caller", callerID), slog.String("permission", perm.Key()))
	s.recordHistory(&model.AuditEntry{
		Operation:    model.AuditPermissionCreate,
		CallerID:     callerID,
		PermissionID: perm.ID,
		Resource:     perm.Resource,
		Detail:       perm.Key(),
	})
	return perm, nil
}

func (s *Service) UpdatePermission(ctx context.Context, callerID, id string, req model.UpdatePermissionReq) (*model.Permission, error) {
	perm, err := s.GetPermission(ctx, id)
	if err != nil {
		return nil, err
	}
	perm.Description = *req.Description
	if err := s.Store.UpdatePermission(ctx, perm); err != nil {
		return nil, mapStoreErr(err, permissionNotFound, "")
	}

	s.recordHistory(&model.AuditEntry{
		Operation:    model.AuditPermissionUpdate,
		CallerID:     callerID,
		PermissionID: perm.ID,
		Resource:     perm.Resource,
		Detail:       perm.Description,
	})
	return perm, nil
}

func (s *Service) DeletePermission(ctx context.Context, callerID, id string) (*model.Permission, error) {
	perm, err := s.GetPermission(ctx, id)
	if err != nil {
		return nil, err
	}
	if perm.IsWildcard() {
		return nil, apperrors.Forbiddenf("Cannot delete system permissions")
	}
	if err := s.Store.DeletePermission(ctx, id); err != nil {
		return nil, mapStoreErr(err, permissionNotFound, "")
	}

	s.logger.Info("audit: permission deleted", slog.String("caller", callerID), slog.String("permission", perm.Key()))
	s.recordHistory(&model.AuditEntry{
		Operation:    model.AuditPermissionDelete,
		CallerID:     callerID,
		PermissionID: perm.ID,
		Resource:     perm.Resource,
		Detail:       perm.Key(),
	})
	return perm, nil
}

// CheckPermission evaluates a decision without enforcing it. Checking someone
// else requires the administrator role.
func (s *Service) CheckPermission(ctx context.Context, callerID string, req model.CheckPermissionReq) (*model.CheckPermissionResp, error) {
	target := req.UserID
	if target == "" {
		target = callerID
	}
	if target != callerID {
		if err := s.Resolver.AuthorizeAdmin(ctx, callerID); err != nil {
			return nil, err
		}
	}

	allowed, err := s.Resolver.Check(ctx, target, req.Resource, req.Action)
	if err != nil {
		if target != callerID && errors.Is(err, apperrors.ErrUnauthenticated) {
			return nil, apperrors.NotFoundf("user %s not found", target)
		}
		return nil, err
	}
	return &model.CheckPermissionResp{Allowed: allowed, Resource: req.Resource, Action: req.Action}, nil
}
