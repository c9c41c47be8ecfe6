package handler

import (
	"net/http"

	"catalog/internal/rbac/model"
	"catalog/internal/rbac/service"

	"github.com/labstack/echo/v4"
)

// Handler serves the /api/v1 routes. Each service may be nil when its routes are not mounted.
type Handler struct {
	RBAC    service.RBACService
	Models  service.ModelService
	Catalog service.CatalogService
	Sync    service.SyncService
}

// NewHandler wires every route group to the one service that implements them all.
func NewHandler(s *service.Service) *Handler {
	return &Handler{RBAC: s, Models: s, Catalog: s, Sync: s}
}

func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// validatable is implemented by every request DTO
type validatable interface {
	Validate() error
}

// bindAndValidate decodes the body into req and runs its normalisation and validation.
func bindAndValidate(c echo.Context, req validatable) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, req); err != nil {
		return &model.ErrorDetail{Code: "bad_request", Message: "Invalid body"}
	}
	return req.Validate()
}

func pageQuery(c echo.Context) model.PageQuery {
	return model.ParsePageQuery(c.QueryParam("page"), c.QueryParam("limit"))
}
