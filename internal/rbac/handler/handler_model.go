package handler

import (
	"net/http"

	"catalog/internal/rbac/model"

	"github.com/labstack/echo/v4"
)

// GetModels handles GET /models
func (h *Handler) GetModels(c echo.Context) error {
	if _, err := extractCallerID(c); err != nil {
		return respondError(c, err)
	}
	types, err := h.Models.ListResourceTypes(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, types)
}

// GetModel handles GET /models/:id
func (h *Handler) GetModel(c echo.Context) error {
	if _, err := extractCallerID(c); err != nil {
		return respondError(c, err)
	}
	rt, err := h.Models.GetResourceType(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rt)
}

// PostModel handles POST /models. Permissions for the new type are provisioned before the response.
func (h *Handler) PostModel(c echo.Context) error {
	callerID, err := extractCallerID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req model.CreateResourceTypeReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	rt, err := h.Models.RegisterResourceType(c.Request().Context(), callerID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, model.ResourceTypeResp{Message: "Model created successfully.", Model: rt})
}

// PutModel handles PUT /models/:id
func (h *Handler) PutModel(c echo.Context) error {
	callerID, err := extractCallerID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req model.UpdateResourceTypeReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	rt, err := h.Models.UpdateResourceType(c.Request().Context(), callerID, c.Param("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, model.ResourceTypeResp{Message: "Model updated successfully.", Model: rt})
}

// DeleteModel handles DELETE /models/:id by deactivating the type and purging its records and permissions.
func (h *Handler) DeleteModel(c echo.Context) error {
	callerID, err := extractCallerID(c)
	if err != nil {
		return respondError(c, err)
	}

	res, err := h.Models.DeactivateResourceType(c.Request().Context(), callerID, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, model.DeactivateResp{
		Message:            "Model deleted successfully.",
		RecordsDeleted:     res.RecordsDeleted,
		PermissionsDeleted: res.PermissionsDeleted,
	})
}
