package handler

import (
	"fmt"
	"net/http"

	"catalog/internal/rbac/model"

	"github.com/labstack/echo/v4"
)

// GetRoles handles GET /roles
func (h *Handler) GetRoles(c echo.Context) error {
	roles, err := h.RBAC.ListRoles(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, roles)
}

// GetRole handles GET /roles/:id
func (h *Handler) GetRole(c echo.Context) error {
	role, err := h.RBAC.GetRole(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, role)
}

// PostRole handles POST /roles
func (h *Handler) PostRole(c echo.Context) error {
	callerID, err := extractCallerID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req model.CreateRoleReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	role, err := h.RBAC.CreateRole(c.Request().Context(), callerID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, role)
}

// PutRole handles PUT /roles/:id
func (h *Handler) PutRole(c echo.Context) error {
	callerID, err := extractCallerID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req model.UpdateRoleReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	role, err := h.RBAC.UpdateRole(c.Request().Context(), callerID, c.Param("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, role)
}

// DeleteRole handles DELETE /roles/:id
func (h *Handler) DeleteRole(c echo.Context) error {
	callerID, err := extractCallerID(c)
	if err != nil {
		return respondError(c, err)
	}

	role, err := h.RBAC.DeleteRole(c.Request().Context(), callerID, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, model.MessageResp{
		Message: fmt.Sprintf("Role '%s' deleted successfully", role.Name),
	})
}

// PostRolePermissions handles POST /roles/:id/permissions (add)
func (h *Handler) PostRolePermissions(c echo.Context) error {
	return h.changeRolePermissions(c, false)
}

// PutRolePermissions handles PUT /roles/:id/permissions (replace)
func (h *Handler) PutRolePermissions(c echo.Context) error {
	return h.changeRolePermissions(c, true)
}

func (h *Handler) changeRolePermissions(c echo.Context, replace bool) error {
	callerID, err := extractCallerID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req model.RolePermissionsReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	var role *model.RoleDetail
	if replace {
		role, err = h.RBAC.SetRolePermissions(ctx, callerID, c.Param("id"), req)
	} else {
		role, err = h.RBAC.AddRolePermissions(ctx, callerID, c.Param("id"), req)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, role)
}

// PostRoleUsers handles POST /roles/:id/users
func (h *Handler) PostRoleUsers(c echo.Context) error {
	callerID, err := extractCallerID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req model.RoleUsersReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	role, err := h.RBAC.GetRole(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	result, err := h.RBAC.AssignRoleUsers(ctx, callerID, role.ID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, model.RoleUsersResp{
		Message:     fmt.Sprintf("Users assigned to role '%s' successfully", role.Name),
		BatchResult: result,
	})
}

// DeleteRoleUsers handles DELETE /roles/:id/users
func (h *Handler) DeleteRoleUsers(c echo.Context) error {
	callerID, err := extractCallerID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req model.RoleUsersReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	role, err := h.RBAC.GetRole(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if err := h.RBAC.RemoveRoleUsers(ctx, callerID, role.ID, req); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, model.MessageResp{
		Message: fmt.Sprintf("Users removed from role '%s' successfully", role.Name),
	})
}
