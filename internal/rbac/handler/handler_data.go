package handler

import (
	"net/http"

	"catalog/internal/rbac/model"

	"github.com/labstack/echo/v4"
)

// Records are authorized in the service: the resource name comes from the :model path segment.

func (h *Handler) GetRecords(c echo.Context) error {
	callerID, err := extractCallerID(c)
	if err != nil {
		return respondError(c, err)
	}
	list, err := h.Models.ListRecords(c.Request().Context(), callerID, c.Param("model"), pageQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) GetRecord(c echo.Context) error {
	callerID, err := extractCallerID(c)
	if err != nil {
		return respondError(c, err)
	}
	rec, err := h.Models.GetRecord(c.Request().Context(), callerID, c.Param("model"), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) PostRecord(c echo.Context) error {
	callerID, err := extractCallerID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req model.DataRecordReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	rec, err := h.Models.CreateRecord(c.Request().Context(), callerID, c.Param("model"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, model.DataRecordResp{Message: "Record created successfully.", Record: rec})
}

func (h *Handler) PutRecord(c echo.Context) error {
	callerID, err := extractCallerID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req model.DataRecordReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	rec, err := h.Models.UpdateRecord(c.Request().Context(), callerID, c.Param("model"), c.Param("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, model.DataRecordResp{Message: "Record updated successfully.", Record: rec})
}

func (h *Handler) DeleteRecord(c echo.Context) error {
	callerID, err := extractCallerID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Models.DeleteRecord(c.Request().Context(), callerID, c.Param("model"), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, model.MessageResp{Message: "Record deleted successfully."})
}
