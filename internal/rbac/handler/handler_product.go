package handler

import (
	"net/http"

	"catalog/internal/rbac/model"

	"github.com/labstack/echo/v4"
)

func (h *Handler) GetProducts(c echo.Context) error {
	list, err := h.Catalog.ListProducts(c.Request().Context(), pageQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// SearchProducts handles GET /products/search?q=
func (h *Handler) SearchProducts(c echo.Context) error {
	keyword := c.QueryParam("q")
	if keyword == "" {
		keyword = c.QueryParam("keyword")
	}
	result, err := h.Catalog.SearchProducts(c.Request().Context(), keyword, pageQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) GetProduct(c echo.Context) error {
	p, err := h.Catalog.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) PostProduct(c echo.Context) error {
	callerID, err := extractCallerID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req model.ProductReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	p, err := h.Catalog.CreateProduct(c.Request().Context(), callerID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) PutProduct(c echo.Context) error {
	callerID, err := extractCallerID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req model.ProductReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	p, err := h.Catalog.UpdateProduct(c.Request().Context(), callerID, c.Param("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteProduct(c echo.Context) error {
	callerID, err := extractCallerID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Catalog.DeleteProduct(c.Request().Context(), callerID, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, model.MessageResp{Message: "Product deleted successfully"})
}
