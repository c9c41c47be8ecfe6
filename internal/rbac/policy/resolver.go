package policy

import (
	"context"
	"errors"
	"strings"

	"catalog/internal/rbac/apperrors"
	"catalog/internal/rbac/model"
	"catalog/internal/rbac/repository"
)

// GrantStore is the read side of the principal, role and permission stores.
type GrantStore interface {
	GetPrincipal(ctx context.Context, id string) (*model.Principal, error)
	GetRolesByIDs(ctx context.Context, ids []string) ([]*model.Role, error)
	GetPermissionsByIDs(ctx context.Context, ids []string) ([]*model.Permission, error)
}

// Resolver decides whether a principal may perform an action on a resource.
// Every call reads current grants; nothing is cached.
type Resolver struct {
	store     GrantStore
	adminRole string
}

func NewResolver(store GrantStore, adminRoleName string) *Resolver {
	if strings.TrimSpace(adminRoleName) == "" {
		adminRoleName = model.RoleAdmin
	}
	return &Resolver{store: store, adminRole: adminRoleName}
}

// AdminRoleName is the reserved administrator role name.
func (r *Resolver) AdminRoleName() string {
	return r.adminRole
}

// IsAdministratorRole reports whether a single role is administrator-equivalent.
func (r *Resolver) IsAdministratorRole(role *model.Role) bool {
	return role != nil && strings.EqualFold(strings.TrimSpace(role.Name), r.adminRole)
}

// IsAdministrator is the one definition of administrator equivalence.
func (r *Resolver) IsAdministrator(roles []*model.Role) bool {
	for _, role := range roles {
		if r.IsAdministratorRole(role) {
			return true
		}
	}
	return false
}

// Grants reports whether any permission covers resource/action:
// an exact match, manage on the same resource, or the *:* wildcard.
func Grants(perms []*model.Permission, resource, action string) bool {
	for _, p := range perms {
		if p.IsWildcard() {
			return true
		}
		if p.Resource != resource {
			continue
		}
		if p.Action == action || p.Action == model.ActionManage {
			return true
		}
	}
	return false
}

// PrincipalRoles loads an active principal and its roles.
func (r *Resolver) PrincipalRoles(ctx context.Context, principalID string) (*model.Principal, []*model.Role, error) {
	if strings.TrimSpace(principalID) == "" {
		return nil, nil, apperrors.ErrUnauthenticated
	}
	principal, err := r.store.GetPrincipal(ctx, principalID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperrors.ErrUnauthenticated
	}
	if err != nil {
		return nil, nil, err
	}
	if !principal.Active {
		return nil, nil, apperrors.ErrUnauthenticated
	}
	roles, err := r.store.GetRolesByIDs(ctx, principal.RoleIDs)
	if err != nil {
		return nil, nil, err
	}
	return principal, roles, nil
}

// IsAdmin resolves the principal and applies IsAdministrator.
func (r *Resolver) IsAdmin(ctx context.Context, principalID string) (bool, error) {
	_, roles, err := r.PrincipalRoles(ctx, principalID)
	if err != nil {
		return false, err
	}
	return r.IsAdministrator(roles), nil
}

// Check returns the decision without turning a deny into an error.
func (r *Resolver) Check(ctx context.Context, principalID, resource, action string) (bool, error) {
	_, roles, err := r.PrincipalRoles(ctx, principalID)
	if err != nil {
		return false, err
	}
	return r.allowed(ctx, roles, resource, action)
}

func (r *Resolver) allowed(ctx context.Context, roles []*model.Role, resource, action string) (bool, error) {
	// 1. Administrator short-circuit
	if r.IsAdministrator(roles) {
		return true, nil
	}

	// 2. Union of the roles' permissions
	var ids []string
	seen := make(map[string]bool)
	for _, role := range roles {
		for _, id := range role.PermissionIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return false, nil
	}
	perms, err := r.store.GetPermissionsByIDs(ctx, ids)
	if err != nil {
		return false, err
	}
	return Grants(perms, resource, action), nil
}

// Authorize returns nil on allow, ErrUnauthenticated without a valid principal,
// and a *apperrors.ForbiddenError on deny.
func (r *Resolver) Authorize(ctx context.Context, principalID, resource, action string) error {
	ok, err := r.Check(ctx, principalID, resource, action)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Forbidden(resource, action)
	}
	return nil
}

// AuthorizeAdmin requires administrator equivalence.
func (r *Resolver) AuthorizeAdmin(ctx context.Context, principalID string) error {
	isAdmin, err := r.IsAdmin(ctx, principalID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return apperrors.Forbiddenf("administrator role required")
	}
	return nil
}

// AuthorizeRecord is Authorize for a single existing record. When the blanket
// check denies, the record's creator is still allowed.
func (r *Resolver) AuthorizeRecord(ctx context.Context, principalID, resource, action, creatorID string) error {
	_, roles, err := r.PrincipalRoles(ctx, principalID)
	if err != nil {
		return err
	}
	ok, err := r.allowed(ctx, roles, resource, action)
	if err != nil {
		return err
	}
	if ok || (creatorID != "" && creatorID == principalID) {
		return nil
	}
	return apperrors.Forbidden(resource, action)
}
