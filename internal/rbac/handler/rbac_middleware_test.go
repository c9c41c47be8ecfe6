package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalog/internal/rbac/handler"
	"catalog/internal/rbac/model"
	"catalog/internal/rbac/policy"
	"catalog/internal/rbac/repository"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockGrantStore struct {
	mock.Mock
}

func (m *mockGrantStore) GetPrincipal(ctx context.Context, id string) (*model.Principal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Principal), args.Error(1)
}

func (m *mockGrantStore) GetRolesByIDs(ctx context.Context, ids []string) ([]*model.Role, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Role), args.Error(1)
}

func (m *mockGrantStore) GetPermissionsByIDs(ctx context.Context, ids []string) ([]*model.Permission, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Permission), args.Error(1)
}

// setupRBACMiddlewareTest mounts stub handlers behind the real embedded route policies
func setupRBACMiddlewareTest(t *testing.T, store *mockGrantStore) *echo.Echo {
	policies, err := policy.NewLoader().LoadRoutePolicies()
	assert.NoError(t, err)
	rbac := handler.NewRBACMiddleware(policy.NewResolver(store, model.RoleAdmin), policies)

	ok := func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}

	e := echo.New()
	e.Use(handler.AuthMiddleware(handler.AuthConfig{TrustUserHeader: true}))
	e.Use(rbac.Middleware())
	e.GET("/api/v1/roles", ok)
	e.DELETE("/api/v1/roles/:id", ok)
	e.GET("/api/v1/permissions", ok)
	e.POST("/api/v1/products", ok)
	e.GET("/api/v1/products", ok)
	e.POST("/api/v1/sync/rebuild", ok)
	return e
}

func performMiddlewareRequest(e *echo.Echo, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func principalWith(store *mockGrantStore, id string, role *model.Role, perms []*model.Permission) {
	store.On("GetPrincipal", mock.Anything, id).Return(&model.Principal{ID: id, Active: true, RoleIDs: []string{role.ID}}, nil)
	store.On("GetRolesByIDs", mock.Anything, []string{role.ID}).Return([]*model.Role{role}, nil)
	if perms != nil {
		store.On("GetPermissionsByIDs", mock.Anything, role.PermissionIDs).Return(perms, nil)
	}
}

func TestRBACMiddleware(t *testing.T) {
	productEditor := &model.Role{ID: "r-editor", Name: "Editor", PermissionIDs: []string{"p1"}}
	productCreate := []*model.Permission{{ID: "p1", Resource: "product", Action: "create"}}

	t.Run("route without policy passes anonymous caller and return 200", func(t *testing.T) {
		store := new(mockGrantStore)
		e := setupRBACMiddlewareTest(t, store)

		rec := performMiddlewareRequest(e, http.MethodGet, "/api/v1/products", nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		store.AssertNotCalled(t, "GetPrincipal", mock.Anything, mock.Anything)
	})

	t.Run("missing caller and return 401", func(t *testing.T) {
		store := new(mockGrantStore)
		e := setupRBACMiddlewareTest(t, store)

		rec := performMiddlewareRequest(e, http.MethodPost, "/api/v1/products", map[string]any{"name": "x"}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown caller and return 401", func(t *testing.T) {
		store := new(mockGrantStore)
		store.On("GetPrincipal", mock.Anything, "ghost").Return(nil, repository.ErrNotFound)
		e := setupRBACMiddlewareTest(t, store)

		rec := performMiddlewareRequest(e, http.MethodPost, "/api/v1/products", nil, map[string]string{handler.HeaderUserID: "ghost"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("permission granted and return 200", func(t *testing.T) {
		store := new(mockGrantStore)
		principalWith(store, "u1", productEditor, productCreate)
		e := setupRBACMiddlewareTest(t, store)

		rec := performMiddlewareRequest(e, http.MethodPost, "/api/v1/products", nil, map[string]string{handler.HeaderUserID: "u1"})
		assert.Equal(t, http.StatusOK, rec.Code)
		store.AssertExpectations(t)
	})

	t.Run("permission for another action and return 403", func(t *testing.T) {
		store := new(mockGrantStore)
		principalWith(store, "u1", productEditor, productCreate)
		e := setupRBACMiddlewareTest(t, store)

		rec := performMiddlewareRequest(e, http.MethodDelete, "/api/v1/roles/r1", nil, map[string]string{handler.HeaderUserID: "u1"})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		var body model.ErrorResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "You don't have permission to manage role", body.Error.Message)
	})

	t.Run("wildcard grant covers role management and return 200", func(t *testing.T) {
		superRole := &model.Role{ID: "r-super", Name: "Root", PermissionIDs: []string{"p-all"}}
		store := new(mockGrantStore)
		principalWith(store, "u2", superRole, []*model.Permission{{ID: "p-all", Resource: "*", Action: "*"}})
		e := setupRBACMiddlewareTest(t, store)

		rec := performMiddlewareRequest(e, http.MethodGet, "/api/v1/roles", nil, map[string]string{handler.HeaderUserID: "u2"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("admin role on admin_only route and return 200", func(t *testing.T) {
		adminRole := &model.Role{ID: "r-admin", Name: model.RoleAdmin}
		store := new(mockGrantStore)
		principalWith(store, "admin", adminRole, nil)
		e := setupRBACMiddlewareTest(t, store)

		rec := performMiddlewareRequest(e, http.MethodPost, "/api/v1/sync/rebuild", nil, map[string]string{handler.HeaderUserID: "admin"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("non-admin on admin_only route and return 403", func(t *testing.T) {
		store := new(mockGrantStore)
		principalWith(store, "u1", productEditor, productCreate)
		e := setupRBACMiddlewareTest(t, store)

		rec := performMiddlewareRequest(e, http.MethodGet, "/api/v1/permissions", nil, map[string]string{handler.HeaderUserID: "u1"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("store failure and return 500", func(t *testing.T) {
		store := new(mockGrantStore)
		store.On("GetPrincipal", mock.Anything, "u1").Return(nil, errors.New("connection reset"))
		e := setupRBACMiddlewareTest(t, store)

		rec := performMiddlewareRequest(e, http.MethodGet, "/api/v1/roles", nil, map[string]string{handler.HeaderUserID: "u1"})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var body model.ErrorResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Internal server error", body.Error.Message)
	})
}
