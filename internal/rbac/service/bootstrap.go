package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"catalog/internal/rbac/model"

	"golang.org/x/crypto/bcrypt"
)

type BootstrapConfig struct {
	AdminEmail    string
	AdminPassword string
}

// BootstrapResult reports what a bootstrap run created. A second run creates nothing.
type BootstrapResult struct {
	PermissionsCreated int
	RolesCreated       int
	AdminCreated       bool
	AdminID            string
}

type roleSeed struct {
	name        string
	description string
	grants      [][2]string
}

func defaultRoleSeeds(adminRole string) []roleSeed {
	crud := []string{model.ActionView, model.ActionCreate, model.ActionEdit, model.ActionDelete}
	var manager [][2]string
	for _, resource := range []string{model.ResourceProduct, model.ResourceCategory} {
		for _, action := range crud {
			manager = append(manager, [2]string{resource, action})
		}
	}
	return []roleSeed{
		{name: adminRole, description: "Full access to every resource", grants: [][2]string{{model.ResourceAll, model.ActionAll}}},
		{name: model.RoleManager, description: "Manages products and categories", grants: manager},
		{name: model.RoleUser, description: "Browses products and categories", grants: [][2]string{
			{model.ResourceProduct, model.ActionView},
			{model.ResourceCategory, model.ActionView},
		}},
	}
}

// Bootstrap seeds the wildcard and default permissions, the default roles and
// the administrator principal. It is safe to run on every start.
func (s *Service) Bootstrap(ctx context.Context, cfg BootstrapConfig) (*BootstrapResult, error) {
	res := &BootstrapResult{}

	perms := map[string]*model.Permission{}
	seed := func(resource, action string) error {
		p, created, err := s.Store.FindOrCreatePermission(ctx, &model.Permission{
			Resource:    resource,
			Action:      action,
			Description: model.DefaultPermissionDescription(action, resource),
		})
		if err != nil {
			return fmt.Errorf("seed permission %s:%s: %w", resource, action, err)
		}
		if created {
			res.PermissionsCreated++
		}
		perms[p.Key()] = p
		return nil
	}

	if err := seed(model.ResourceAll, model.ActionAll); err != nil {
		return nil, err
	}
	for _, resource := range model.DefaultResources {
		for _, action := range []string{model.ActionView, model.ActionCreate, model.ActionEdit, model.ActionDelete} {
			if err := seed(resource, action); err != nil {
				return nil, err
			}
		}
	}
	for _, resource := range model.ManagedResources {
		if err := seed(resource, model.ActionManage); err != nil {
			return nil, err
		}
	}

	var adminRole *model.Role
	for _, rs := range defaultRoleSeeds(s.Resolver.AdminRoleName()) {
		role, created, err := s.ensureRole(ctx, rs.name, rs.description)
		if err != nil {
			return nil, fmt.Errorf("seed role %s: %w", rs.name, err)
		}
		if created {
			res.RolesCreated++
		}
		ids := make([]string, 0, len(rs.grants))
		for _, g := range rs.grants {
			ids = append(ids, perms[g[0]+":"+g[1]].ID)
		}
		if err := s.Store.AddPermissionsToRole(ctx, role.ID, ids); err != nil {
			return nil, fmt.Errorf("grant role %s: %w", rs.name, err)
		}
		if s.Resolver.IsAdministratorRole(role) {
			adminRole = role
		}
	}

	if adminRole == nil {
		return nil, fmt.Errorf("administrator role %q was not seeded", s.Resolver.AdminRoleName())
	}

	admin, created, err := s.ensureAdminPrincipal(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if admin != nil {
		if _, err := s.Store.AddRoleToPrincipals(ctx, adminRole.ID, []string{admin.ID}); err != nil {
			return nil, fmt.Errorf("assign administrator role: %w", err)
		}
		res.AdminCreated = created
		res.AdminID = admin.ID
	}

	s.logger.Info("bootstrap complete",
		slog.Int("permissions_created", res.PermissionsCreated),
		slog.Int("roles_created", res.RolesCreated),
		slog.Bool("admin_created", res.AdminCreated),
	)
	return res, nil
}

func (s *Service) ensureAdminPrincipal(ctx context.Context, cfg BootstrapConfig) (*model.Principal, bool, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" {
		s.logger.Warn("no bootstrap admin email configured, skipping admin principal")
		return nil, false, nil
	}

	existing, err := s.Store.GetPrincipalByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !isNotFound(err) {
		return nil, false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("hash admin password: %w", err)
	}
	p := &model.Principal{
		Email:        email,
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Active:       true,
	}
	if err := s.Store.CreatePrincipal(ctx, p); err != nil {
		if isDuplicate(err) {
			existing, gerr := s.Store.GetPrincipalByEmail(ctx, email)
			return existing, false, gerr
		}
		return nil, false, err
	}
	return p, true, nil
}
