package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"catalog/internal/rbac/apperrors"
	"catalog/internal/rbac/model"
	"catalog/internal/rbac/policy"
	"catalog/internal/rbac/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type enqueued struct {
	op       string
	typeName string
	payload  any
}

type fakeQueue struct {
	mu      sync.Mutex
	entries []enqueued
	resets  int
}

func (q *fakeQueue) Enqueue(op, typeName string, payload any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, enqueued{op: op, typeName: typeName, payload: payload})
}

func (q *fakeQueue) Status(ctx context.Context) model.SyncStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return model.SyncStatus{QueueLength: len(q.entries), BackendAvailable: true}
}

func (q *fakeQueue) Reset() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = nil
	q.resets++
	return nil
}

func (q *fakeQueue) snapshot() []enqueued {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]enqueued(nil), q.entries...)
}

type fakeIndexer struct {
	count    int
	err      error
	result   *model.SearchResult
	keywords []string
}

func (f *fakeIndexer) ReindexAll(ctx context.Context, typeName string) (int, error) {
	return f.count, f.err
}

func (f *fakeIndexer) Search(ctx context.Context, keyword string, q model.PageQuery) (*model.SearchResult, error) {
	f.keywords = append(f.keywords, keyword)
	if f.result == nil {
		return &model.SearchResult{Results: []*model.SearchHit{}}, f.err
	}
	return f.result, f.err
}

type fixture struct {
	ctx     context.Context
	repo    *memory.Repository
	svc     *Service
	queue   *fakeQueue
	indexer *fakeIndexer
	adminID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repo := memory.New()
	queue := &fakeQueue{}
	indexer := &fakeIndexer{}
	svc := NewService(Deps{
		Store:    repo,
		Resolver: policy.NewResolver(repo, model.RoleAdmin),
		Queue:    queue,
		Indexer:  indexer,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	res, err := svc.Bootstrap(ctx, BootstrapConfig{AdminEmail: "admin@example.com", AdminPassword: "Admin123!"})
	require.NoError(t, err)

	return &fixture{ctx: ctx, repo: repo, svc: svc, queue: queue, indexer: indexer, adminID: res.AdminID}
}

// role creates a role granting each resource:action pair, creating permissions as needed.
func (f *fixture) role(t *testing.T, name string, grants ...[2]string) *model.Role {
	t.Helper()
	r := &model.Role{Name: name}
	require.NoError(t, f.repo.CreateRole(f.ctx, r))
	for _, g := range grants {
		p, _, err := f.repo.FindOrCreatePermission(f.ctx, &model.Permission{Resource: g[0], Action: g[1]})
		require.NoError(t, err)
		require.NoError(t, f.repo.AddPermissionsToRole(f.ctx, r.ID, []string{p.ID}))
	}
	return r
}

func (f *fixture) principal(t *testing.T, email string, roles ...*model.Role) string {
	t.Helper()
	p := &model.Principal{Email: email, Active: true}
	require.NoError(t, f.repo.CreatePrincipal(f.ctx, p))
	for _, r := range roles {
		_, err := f.repo.AddRoleToPrincipals(f.ctx, r.ID, []string{p.ID})
		require.NoError(t, err)
	}
	return p.ID
}

func (f *fixture) allowed(t *testing.T, principalID, resource, action string) bool {
	t.Helper()
	ok, err := f.svc.Resolver.Check(f.ctx, principalID, resource, action)
	require.NoError(t, err)
	return ok
}

func (f *fixture) roleByName(t *testing.T, name string) *model.Role {
	t.Helper()
	r, err := f.repo.GetRoleByName(f.ctx, name)
	require.NoError(t, err)
	return r
}

func TestBootstrap(t *testing.T) {
	t.Run("seeds roles with the default grant matrix", func(t *testing.T) {
		f := newFixture(t)
		manager := f.principal(t, "manager@example.com", f.roleByName(t, model.RoleManager))
		user := f.principal(t, "user@example.com", f.roleByName(t, model.RoleUser))

		assert.True(t, f.allowed(t, f.adminID, "anything", model.ActionDelete))
		assert.True(t, f.allowed(t, manager, model.ResourceProduct, model.ActionDelete))
		assert.True(t, f.allowed(t, manager, model.ResourceCategory, model.ActionCreate))
		assert.False(t, f.allowed(t, manager, model.ResourceRole, model.ActionView))
		assert.True(t, f.allowed(t, user, model.ResourceProduct, model.ActionView))
		assert.False(t, f.allowed(t, user, model.ResourceProduct, model.ActionEdit))
	})

	t.Run("second run creates nothing", func(t *testing.T) {
		f := newFixture(t)
		before, err := f.repo.ListPermissions(f.ctx)
		require.NoError(t, err)

		res, err := f.svc.Bootstrap(f.ctx, BootstrapConfig{AdminEmail: "ADMIN@example.com", AdminPassword: "other"})
		require.NoError(t, err)
		assert.Zero(t, res.PermissionsCreated)
		assert.Zero(t, res.RolesCreated)
		assert.False(t, res.AdminCreated)
		assert.Equal(t, f.adminID, res.AdminID)

		after, err := f.repo.ListPermissions(f.ctx)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})

	t.Run("admin password is stored hashed", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.repo.GetPrincipal(f.ctx, f.adminID)
		require.NoError(t, err)
		assert.NotEmpty(t, p.PasswordHash)
		assert.NotEqual(t, "Admin123!", p.PasswordHash)
	})
}

func TestRoles(t *testing.T) {
	t.Run("create role with unknown permission and return bad request", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateRole(f.ctx, f.adminID, model.CreateRoleReq{Name: "Sales", PermissionIDs: []string{"missing"}})
		assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	})

	t.Run("create duplicate role name and return conflict", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateRole(f.ctx, f.adminID, model.CreateRoleReq{Name: "Sales"})
		require.NoError(t, err)
		_, err = f.svc.CreateRole(f.ctx, f.adminID, model.CreateRoleReq{Name: "SALES"})
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("delete administrator role and return conflict", func(t *testing.T) {
		f := newFixture(t)
		admin := f.roleByName(t, model.RoleAdmin)
		_, err := f.svc.DeleteRole(f.ctx, f.adminID, admin.ID)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
		assert.Equal(t, "Cannot delete system roles", apperrors.Message(err))
	})

	t.Run("update with permission list replaces every grant", func(t *testing.T) {
		f := newFixture(t)
		sales := f.role(t, "Sales", [2]string{"product", "view"}, [2]string{"product", "edit"})
		member := f.principal(t, "sam@example.com", sales)
		create, err := f.repo.GetPermissionByKey(f.ctx, "product", "create")
		require.NoError(t, err)

		ids := []string{create.ID}
		detail, err := f.svc.UpdateRole(f.ctx, f.adminID, sales.ID, model.UpdateRoleReq{PermissionIDs: &ids})
		require.NoError(t, err)
		assert.Equal(t, []string{create.ID}, detail.PermissionIDs)
		assert.Equal(t, []string{member}, detail.UserIDs)

		assert.True(t, f.allowed(t, member, "product", "create"))
		assert.False(t, f.allowed(t, member, "product", "edit"))
	})

	t.Run("assign users reports unknown principals", func(t *testing.T) {
		f := newFixture(t)
		sales := f.role(t, "Sales")
		sam := f.principal(t, "sam@example.com")

		res, err := f.svc.AssignRoleUsers(f.ctx, f.adminID, sales.ID, model.RoleUsersReq{UserIDs: []string{sam, "ghost"}})
		require.NoError(t, err)
		assert.Equal(t, 1, res.SuccessCount)
		assert.Equal(t, 1, res.FailedCount)

		require.NoError(t, f.svc.RemoveRoleUsers(f.ctx, f.adminID, sales.ID, model.RoleUsersReq{UserIDs: []string{sam}}))
		detail, err := f.svc.GetRole(f.ctx, sales.ID)
		require.NoError(t, err)
		assert.Empty(t, detail.UserIDs)
	})
}

func TestPermissions(t *testing.T) {
	t.Run("create permission defaults the description", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.svc.CreatePermission(f.ctx, f.adminID, model.CreatePermissionReq{Resource: "report", Action: "view"})
		require.NoError(t, err)
		assert.Equal(t, "Can view report", p.Description)

		_, err = f.svc.CreatePermission(f.ctx, f.adminID, model.CreatePermissionReq{Resource: "report", Action: "view"})
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("delete wildcard permission and return forbidden", func(t *testing.T) {
		f := newFixture(t)
		wildcard, err := f.repo.GetPermissionByKey(f.ctx, model.ResourceAll, model.ActionAll)
		require.NoError(t, err)

		_, err = f.svc.DeletePermission(f.ctx, f.adminID, wildcard.ID)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		assert.Equal(t, "Cannot delete system permissions", apperrors.Message(err))
	})

	t.Run("delete permission revokes it from roles", func(t *testing.T) {
		f := newFixture(t)
		sales := f.role(t, "Sales", [2]string{"report", "view"})
		sam := f.principal(t, "sam@example.com", sales)
		p, err := f.repo.GetPermissionByKey(f.ctx, "report", "view")
		require.NoError(t, err)

		_, err = f.svc.DeletePermission(f.ctx, f.adminID, p.ID)
		require.NoError(t, err)
		assert.False(t, f.allowed(t, sam, "report", "view"))
	})

	t.Run("check permission for self and for another user", func(t *testing.T) {
		f := newFixture(t)
		sam := f.principal(t, "sam@example.com", f.role(t, "Sales", [2]string{"product", "view"}))

		resp, err := f.svc.CheckPermission(f.ctx, sam, model.CheckPermissionReq{Resource: "product", Action: "view"})
		require.NoError(t, err)
		assert.True(t, resp.Allowed)

		_, err = f.svc.CheckPermission(f.ctx, sam, model.CheckPermissionReq{UserID: f.adminID, Resource: "product", Action: "view"})
		assert.ErrorIs(t, err, apperrors.ErrForbidden)

		resp, err = f.svc.CheckPermission(f.ctx, f.adminID, model.CheckPermissionReq{UserID: sam, Resource: "product", Action: "delete"})
		require.NoError(t, err)
		assert.False(t, resp.Allowed)

		_, err = f.svc.CheckPermission(f.ctx, f.adminID, model.CheckPermissionReq{UserID: "ghost", Resource: "product", Action: "view"})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
