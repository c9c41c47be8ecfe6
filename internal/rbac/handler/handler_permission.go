package handler

import (
	"fmt"
	"net/http"

	"catalog/internal/rbac/model"

	"github.com/labstack/echo/v4"
)

func (h *Handler) GetPermissions(c echo.Context) error {
	perms, err := h.RBAC.ListPermissions(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, perms)
}

func (h *Handler) GetPermission(c echo.Context) error {
	perm, err := h.RBAC.GetPermission(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, perm)
}

func (h *Handler) PostPermission(c echo.Context) error {
	callerID, err := extractCallerID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req model.CreatePermissionReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	perm, err := h.RBAC.CreatePermission(c.Request().Context(), callerID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, perm)
}

func (h *Handler) PutPermission(c echo.Context) error {
	callerID, err := extractCallerID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req model.UpdatePermissionReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	perm, err := h.RBAC.UpdatePermission(c.Request().Context(), callerID, c.Param("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, perm)
}

func (h *Handler) DeletePermission(c echo.Context) error {
	callerID, err := extractCallerID(c)
	if err != nil {
		return respondError(c, err)
	}

	perm, err := h.RBAC.DeletePermission(c.Request().Context(), callerID, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, model.MessageResp{
		Message: fmt.Sprintf("Permission '%s %s' deleted successfully", perm.Action, perm.Resource),
	})
}

// PostPermissionsCheck handles POST /permissions/check. Any authenticated caller may check itself.
func (h *Handler) PostPermissionsCheck(c echo.Context) error {
	callerID, err := extractCallerID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req model.CheckPermissionReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	resp, err := h.RBAC.CheckPermission(c.Request().Context(), callerID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetAudit handles GET /audit
func (h *Handler) GetAudit(c echo.Context) error {
	q := model.AuditQuery{
		Operation: c.QueryParam("operation"),
		RoleID:    c.QueryParam("role_id"),
		Resource:  c.QueryParam("resource"),
		PageQuery: pageQuery(c),
	}
	list, err := h.RBAC.ListAudit(c.Request().Context(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}
