package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"catalog/internal/rbac/adapter"
	"catalog/internal/rbac/apperrors"
	"catalog/internal/rbac/model"
	"catalog/internal/rbac/repository"
)

const roleNotFound = "Role not found"

// isProtectedRole reports whether the role is administrator-equivalent or a reserved system role.
func (s *Service) isProtectedRole(role *model.Role) bool {
	if s.Resolver.IsAdministratorRole(role) {
		return true
	}
	for _, name := range model.ProtectedRoles {
		if strings.EqualFold(role.Name, name) {
			return true
		}
	}
	return false
}

func (s *Service) roleDetail(ctx context.Context, role *model.Role) (*model.RoleDetail, error) {
	perms, err := s.Store.GetPermissionsByIDs(ctx, role.PermissionIDs)
	if err != nil {
		return nil, err
	}
	users, err := s.Relations.ListRelations(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	if perms == nil {
		perms = []*model.Permission{}
	}
	if users == nil {
		users = []string{}
	}
	return &model.RoleDetail{Role: role, Permissions: perms, UserIDs: users}, nil
}

func (s *Service) getRole(ctx context.Context, id string) (*model.Role, error) {
	role, err := s.Store.GetRole(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, roleNotFound, "")
	}
	return role, nil
}

// checkPermissionIDs rejects ids that do not name an existing permission.
func (s *Service) checkPermissionIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	perms, err := s.Store.GetPermissionsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(perms) == len(ids) {
		return nil
	}
	found := make(map[string]bool, len(perms))
	for _, p := range perms {
		found[p.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return apperrors.BadRequestf("unknown permissions: %s", strings.Join(missing, ", "))
}

func (s *Service) ListRoles(ctx context.Context) ([]*model.RoleDetail, error) {
	roles, err := s.Store.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.RoleDetail, 0, len(roles))
	for _, role := range roles {
		detail, err := s.roleDetail(ctx, role)
		if err != nil {
			return nil, err
		}
		out = append(out, detail)
	}
	return out, nil
}

func (s *Service) GetRole(ctx context.Context, id string) (*model.RoleDetail, error) {
	role, err := s.getRole(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.roleDetail(ctx, role)
}

func (s *Service) CreateRole(ctx context.Context, callerID string, req model.CreateRoleReq) (*model.RoleDetail, error) {
	if err := s.checkPermissionIDs(ctx, req.PermissionIDs); err != nil {
		return nil, err
	}

	role := &model.Role{
		Name:          req.Name,
		Description:   req.Description,
		PermissionIDs: req.PermissionIDs,
	}
	if err := s.Store.CreateRole(ctx, role); err != nil {
		return nil, mapStoreErr(err, "", fmt.Sprintf("Role with name %q already exists", req.Name))
	}

	s.logger.Info("audit: role created",
		slog.String("caller", callerID),
		slog.String("role_id", role.ID),
		slog.String("name", role.Name),
	)
	s.recordHistory(&model.AuditEntry{
		Operation: model.AuditRoleCreate,
		CallerID:  callerID,
		RoleID:    role.ID,
		Detail:    role.Name,
	})
	return s.roleDetail(ctx, role)
}

func (s *Service) UpdateRole(ctx context.Context, callerID, id string, req model.UpdateRoleReq) (*model.RoleDetail, error) {
	role, err := s.getRole(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && !strings.EqualFold(*req.Name, role.Name) {
		if s.isProtectedRole(role) {
			return nil, apperrors.Conflictf("Cannot rename system roles")
		}
		role.Name = *req.Name
	}
	if req.Description != nil {
		role.Description = *req.Description
	}
	if err := s.Store.UpdateRole(ctx, role); err != nil {
		return nil, mapStoreErr(err, roleNotFound, fmt.Sprintf("Role with name %q already exists", role.Name))
	}

	if req.PermissionIDs != nil {
		if err := s.replacePermissions(ctx, role.ID, *req.PermissionIDs); err != nil {
			return nil, err
		}
	}

	s.recordHistory(&model.AuditEntry{
		Operation: model.AuditRoleUpdate,
		CallerID:  callerID,
		RoleID:    role.ID,
		Detail:    role.Name,
	})

	updated, err := s.getRole(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.roleDetail(ctx, updated)
}

// replacePermissions is the edit path: remove every grant, then add the selected ones.
func (s *Service) replacePermissions(ctx context.Context, roleID string, ids []string) error {
	if err := s.checkPermissionIDs(ctx, ids); err != nil {
		return err
	}
	if err := s.Store.RemovePermissionsFromRole(ctx, roleID); err != nil {
		return mapStoreErr(err, roleNotFound, "")
	}
	if len(ids) == 0 {
		return nil
	}
	return mapStoreErr(s.Store.AddPermissionsToRole(ctx, roleID, ids), roleNotFound, "")
}

func (s *Service) DeleteRole(ctx context.Context, callerID, id string) (*model.Role, error) {
	role, err := s.getRole(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.isProtectedRole(role) {
		return nil, apperrors.Conflictf("Cannot delete system roles")
	}
	if err := s.Store.DeleteRole(ctx, id); err != nil {
		return nil, mapStoreErr(err, roleNotFound, "")
	}

	s.logger.Info("audit: role deleted", slog.String("caller", callerID), slog.String("role_id", id))
	s.recordHistory(&model.AuditEntry{
		Operation: model.AuditRoleDelete,
		CallerID:  callerID,
		RoleID:    id,
		Detail:    role.Name,
	})
	return role, nil
}

func (s *Service) AddRolePermissions(ctx context.Context, callerID, id string, req model.RolePermissionsReq) (*model.RoleDetail, error) {
	role, err := s.getRole(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkPermissionIDs(ctx, req.PermissionIDs); err != nil {
		return nil, err
	}
	if len(req.PermissionIDs) > 0 {
		if err := s.Store.AddPermissionsToRole(ctx, role.ID, req.PermissionIDs); err != nil {
			return nil, mapStoreErr(err, roleNotFound, "")
		}
	}

	s.recordHistory(&model.AuditEntry{
		Operation: model.AuditRolePermissionsSet,
		CallerID:  callerID,
		RoleID:    role.ID,
		Detail:    "add " + strings.Join(req.PermissionIDs, ","),
	})
	return s.GetRole(ctx, id)
}

func (s *Service) SetRolePermissions(ctx context.Context, callerID, id string, req model.RolePermissionsReq) (*model.RoleDetail, error) {
	role, err := s.getRole(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.replacePermissions(ctx, role.ID, req.PermissionIDs); err != nil {
		return nil, err
	}

	s.recordHistory(&model.AuditEntry{
		Operation: model.AuditRolePermissionsSet,
		CallerID:  callerID,
		RoleID:    role.ID,
		Detail:    "set " + strings.Join(req.PermissionIDs, ","),
	})
	return s.GetRole(ctx, id)
}

func (s *Service) AssignRoleUsers(ctx context.Context, callerID, id string, req model.RoleUsersReq) (*model.BatchResult, error) {
	role, err := s.getRole(ctx, id)
	if err != nil {
		return nil, err
	}
	result, err := s.Relations.CreateRelations(ctx, &adapter.RelationRequest{RoleID: role.ID, PrincipalIDs: req.UserIDs})
	if err != nil {
		return nil, err
	}

	s.logger.Info("audit: users assigned to role",
		slog.String("caller", callerID),
		slog.String("role", role.Name),
		slog.Int("assigned", result.SuccessCount),
		slog.Int("failed", result.FailedCount),
	)
	s.recordHistory(&model.AuditEntry{
		Operation: model.AuditRoleUsersAssign,
		CallerID:  callerID,
		RoleID:    role.ID,
		UserIDs:   req.UserIDs,
	})
	return result, nil
}

func (s *Service) RemoveRoleUsers(ctx context.Context, callerID, id string, req model.RoleUsersReq) error {
	role, err := s.getRole(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Relations.DeleteRelations(ctx, &adapter.RelationRequest{RoleID: role.ID, PrincipalIDs: req.UserIDs}); err != nil {
		return err
	}

	s.recordHistory(&model.AuditEntry{
		Operation: model.AuditRoleUsersRemove,
		CallerID:  callerID,
		RoleID:    role.ID,
		UserIDs:   req.UserIDs,
	})
	return nil
}

// ensureRole finds a role by name or creates it.
func (s *Service) ensureRole(ctx context.Context, name, description string) (*model.Role, bool, error) {
	role, err := s.Store.GetRoleByName(ctx, name)
	if err == nil {
		return role, false, nil
	}
	if !isNotFound(err) {
		return nil, false, err
	}
	role = &model.Role{Name: name, Description: description}
	if err := s.Store.CreateRole(ctx, role); err != nil {
		// lost a race with a concurrent creator
		if isDuplicate(err) {
			existing, gerr := s.Store.GetRoleByName(ctx, name)
			return existing, false, gerr
		}
		return nil, false, err
	}
	return role, true, nil
}

func isNotFound(err error) bool {
	return err != nil && errors.Is(err, repository.ErrNotFound)
}

func isDuplicate(err error) bool {
	return err != nil && errors.Is(err, repository.ErrDuplicate)
}
