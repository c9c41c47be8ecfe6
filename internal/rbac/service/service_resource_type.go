package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"catalog/internal/rbac/apperrors"
	"catalog/internal/rbac/events"
	"catalog/internal/rbac/model"
	"catalog/internal/rbac/repository"

	"golang.org/x/sync/errgroup"
)

const modelNotFound = "Model not found."

// resourceTypeChange is the payload of a ResourceTypeUpdated event.
type resourceTypeChange struct {
	Before *model.ResourceType
	After  *model.ResourceType
}

func modelConflict(name string) string {
	return fmt.Sprintf("A model with the name %q already exists.", name)
}

func reservedModelName(name string) error {
	return apperrors.BadRequestf("%q is reserved for a built-in resource and cannot be used as a model name.", name)
}

func (s *Service) RegisterResourceType(ctx context.Context, callerID string, req model.CreateResourceTypeReq) (*model.ResourceType, error) {
	if model.IsReservedResource(req.Name) {
		return nil, reservedModelName(req.Name)
	}
	if _, err := s.Store.GetActiveResourceTypeByName(ctx, req.Name); err == nil {
		return nil, apperrors.Conflictf("%s", modelConflict(req.Name))
	} else if !isNotFound(err) {
		return nil, err
	}

	rt := &model.ResourceType{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Fields:      req.Fields,
		Active:      true,
		CreatedBy:   callerID,
	}
	if err := s.Store.CreateResourceType(ctx, rt); err != nil {
		return nil, mapStoreErr(err, "", modelConflict(req.Name))
	}

	s.logger.Info("audit: resource type created",
		slog.String("caller", callerID),
		slog.String("name", rt.Name),
	)
	s.recordHistory(&model.AuditEntry{
		Operation: model.AuditResourceTypeCreate,
		CallerID:  callerID,
		Resource:  rt.ResourceName(),
		Detail:    rt.Name,
	})

	// provisioning failures are logged by the bus and never undo the type
	s.Events.Publish(ctx, events.Event{Type: events.ResourceTypeCreated, ActorID: callerID, Payload: rt})
	return rt, nil
}

func (s *Service) ListResourceTypes(ctx context.Context) ([]*model.ResourceType, error) {
	types, err := s.Store.ListResourceTypes(ctx, false)
	if err != nil {
		return nil, err
	}
	if types == nil {
		types = []*model.ResourceType{}
	}
	return types, nil
}

func (s *Service) GetResourceType(ctx context.Context, id string) (*model.ResourceType, error) {
	rt, err := s.Store.GetResourceType(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, modelNotFound, "")
	}
	if !rt.Active {
		return nil, apperrors.NotFoundf("%s", modelNotFound)
	}
	return rt, nil
}

func (s *Service) UpdateResourceType(ctx context.Context, callerID, id string, req model.UpdateResourceTypeReq) (*model.ResourceType, error) {
	current, err := s.GetResourceType(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *current
	updated := *current

	if req.Name != nil && *req.Name != current.Name {
		if model.IsReservedResource(*req.Name) {
			return nil, reservedModelName(*req.Name)
		}
		if other, err := s.Store.GetActiveResourceTypeByName(ctx, *req.Name); err == nil && other.ID != id {
			return nil, apperrors.Conflictf("%s", modelConflict(*req.Name))
		} else if err != nil && !isNotFound(err) {
			return nil, err
		}
		updated.Name = *req.Name
	}
	if req.DisplayName != nil {
		updated.DisplayName = *req.DisplayName
	}
	if req.Fields != nil {
		updated.Fields = *req.Fields
	}

	if err := s.Store.UpdateResourceType(ctx, &updated); err != nil {
		return nil, mapStoreErr(err, modelNotFound, modelConflict(updated.Name))
	}

	if updated.Name != before.Name {
		n, err := s.Store.RenameModel(ctx, before.Name, updated.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to move records to %s: %w", updated.Name, err)
		}
		s.logger.Info("records moved to renamed type",
			slog.String("from", before.Name),
			slog.String("to", updated.Name),
			slog.Int64("records", n),
		)
	}

	s.recordHistory(&model.AuditEntry{
		Operation: model.AuditResourceTypeUpdate,
		CallerID:  callerID,
		Resource:  updated.ResourceName(),
		Detail:    before.Name + " -> " + updated.Name,
	})
	s.Events.Publish(ctx, events.Event{
		Type:    events.ResourceTypeUpdated,
		ActorID: callerID,
		Payload: resourceTypeChange{Before: &before, After: &updated},
	})
	return &updated, nil
}

func (s *Service) DeactivateResourceType(ctx context.Context, callerID, id string) (*repository.DeactivateResult, error) {
	rt, err := s.GetResourceType(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.Store.DeactivateResourceType(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, modelNotFound, "")
	}

	s.logger.Info("audit: resource type deactivated",
		slog.String("caller", callerID),
		slog.String("name", rt.Name),
		slog.Int64("records_deleted", res.RecordsDeleted),
		slog.Int64("permissions_deleted", res.PermissionsDeleted),
	)
	s.recordHistory(&model.AuditEntry{
		Operation: model.AuditResourceTypeDisable,
		CallerID:  callerID,
		Resource:  rt.ResourceName(),
		Detail:    rt.Name,
	})
	return res, nil
}

// provisionPermissions find-or-creates the standard action set for a resource.
// It is idempotent and safe to run concurrently.
func (s *Service) provisionPermissions(ctx context.Context, resource, displayName string) ([]*model.Permission, error) {
	perms := make([]*model.Permission, len(model.StandardActions))
	g, gctx := errgroup.WithContext(ctx)
	for i, action := range model.StandardActions {
		g.Go(func() error {
			p, _, err := s.Store.FindOrCreatePermission(gctx, &model.Permission{
				Resource:    resource,
				Action:      action,
				Description: model.DefaultPermissionDescription(action, displayName),
			})
			if err != nil {
				return fmt.Errorf("provision %s:%s: %w", resource, action, err)
			}
			perms[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return perms, nil
}

func permissionIDs(perms []*model.Permission, actions ...string) []string {
	var ids []string
	for _, p := range perms {
		if len(actions) == 0 || slices.Contains(actions, p.Action) {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// grantAdministrator gives the administrator role every permission in perms.
func (s *Service) grantAdministrator(ctx context.Context, perms []*model.Permission) error {
	admin, err := s.Store.GetRoleByName(ctx, s.Resolver.AdminRoleName())
	if isNotFound(err) {
		s.logger.Warn("administrator role missing, skipping grant", slog.String("role", s.Resolver.AdminRoleName()))
		return nil
	}
	if err != nil {
		return err
	}
	return s.Store.AddPermissionsToRole(ctx, admin.ID, permissionIDs(perms))
}

// grantCreator gives view and create to each non-administrator role of a
// non-administrator creator.
func (s *Service) grantCreator(ctx context.Context, creatorID string, perms []*model.Permission) error {
	if creatorID == "" {
		return nil
	}
	_, roles, err := s.Resolver.PrincipalRoles(ctx, creatorID)
	if errors.Is(err, apperrors.ErrUnauthenticated) {
		return nil
	}
	if err != nil {
		return err
	}
	if s.Resolver.IsAdministrator(roles) {
		return nil
	}

	ids := permissionIDs(perms, model.ActionView, model.ActionCreate)
	var errs []error
	for _, role := range roles {
		if err := s.Store.AddPermissionsToRole(ctx, role.ID, ids); err != nil {
			errs = append(errs, fmt.Errorf("grant role %s: %w", role.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) onResourceTypeCreated(ctx context.Context, e events.Event) error {
	rt, ok := e.Payload.(*model.ResourceType)
	if !ok {
		return fmt.Errorf("unexpected payload %T", e.Payload)
	}

	perms, err := s.provisionPermissions(ctx, rt.ResourceName(), rt.DisplayName)
	if err != nil {
		return err
	}
	if err := s.grantAdministrator(ctx, perms); err != nil {
		return fmt.Errorf("grant administrator: %w", err)
	}
	if err := s.grantCreator(ctx, e.ActorID, perms); err != nil {
		return fmt.Errorf("grant creator roles: %w", err)
	}

	s.logger.Info("permissions provisioned",
		slog.String("resource", rt.ResourceName()),
		slog.Int("count", len(perms)),
	)
	return nil
}

func (s *Service) onResourceTypeUpdated(ctx context.Context, e events.Event) error {
	change, ok := e.Payload.(resourceTypeChange)
	if !ok {
		return fmt.Errorf("unexpected payload %T", e.Payload)
	}
	oldResource := change.Before.ResourceName()
	newResource := change.After.ResourceName()

	if oldResource != newResource {
		if err := s.migratePermissions(ctx, oldResource, newResource, change.After.DisplayName); err != nil {
			return err
		}
	}
	if change.Before.DisplayName != change.After.DisplayName || oldResource != newResource {
		return s.rewriteDescriptions(ctx, newResource, change.After.DisplayName)
	}
	return nil
}

// migratePermissions moves the old resource's permissions and their grants to
// the new resource name, merging with any permission that already exists
// there, then fills in missing standard actions.
func (s *Service) migratePermissions(ctx context.Context, oldResource, newResource, displayName string) error {
	oldPerms, err := s.Store.ListPermissionsByResource(ctx, oldResource)
	if err != nil {
		return err
	}

	for _, p := range oldPerms {
		existing, err := s.Store.GetPermissionByKey(ctx, newResource, p.Action)
		switch {
		case err == nil:
			if err := s.Store.ReplacePermissionInRoles(ctx, p.ID, existing.ID); err != nil {
				return fmt.Errorf("merge %s into %s: %w", p.Key(), existing.Key(), err)
			}
			if err := s.Store.DeletePermission(ctx, p.ID); err != nil && !isNotFound(err) {
				return err
			}
		case isNotFound(err):
			p.Resource = newResource
			if err := s.Store.UpdatePermission(ctx, p); err != nil {
				return fmt.Errorf("move %s: %w", p.Action, err)
			}
		default:
			return err
		}
	}

	perms, err := s.provisionPermissions(ctx, newResource, displayName)
	if err != nil {
		return err
	}
	if err := s.grantAdministrator(ctx, perms); err != nil {
		return err
	}

	s.logger.Info("permissions migrated",
		slog.String("from", oldResource),
		slog.String("to", newResource),
		slog.Int("moved", len(oldPerms)),
	)
	return nil
}

// rewriteDescriptions substitutes the display name into the standard description of each permission.
func (s *Service) rewriteDescriptions(ctx context.Context, resource, displayName string) error {
	perms, err := s.Store.ListPermissionsByResource(ctx, resource)
	if err != nil {
		return err
	}
	for _, p := range perms {
		desc := model.DefaultPermissionDescription(p.Action, displayName)
		if p.Description != "" && !strings.HasPrefix(p.Description, "Can ") {
			continue
		}
		if p.Description == desc {
			continue
		}
		p.Description = desc
		if err := s.Store.UpdatePermission(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
