package handler

import (
	"fmt"
	"net/http"

	"catalog/internal/rbac/model"

	"github.com/labstack/echo/v4"
)

type syncAllReq struct {
	Model string `json:"model"`
}

func (h *Handler) GetSyncStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Sync.SyncStatus(c.Request().Context()))
}

// PostSyncAll handles POST /sync/all. The type defaults to Product.
func (h *Handler) PostSyncAll(c echo.Context) error {
	var req syncAllReq
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return respondError(c, &model.ErrorDetail{Code: "bad_request", Message: "Invalid body"})
	}
	if req.Model == "" {
		req.Model = c.QueryParam("model")
	}

	n, err := h.Sync.SyncAll(c.Request().Context(), req.Model)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, model.CountResult{
		Message: fmt.Sprintf("Synced %d products to Elasticsearch", n),
		Count:   n,
	})
}

func (h *Handler) PostSyncReset(c echo.Context) error {
	if err := h.Sync.ResetSync(c.Request().Context()); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, model.MessageResp{Message: "Sync service reset successfully"})
}

func (h *Handler) PostSyncRebuild(c echo.Context) error {
	n, err := h.Sync.RebuildIndex(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, model.CountResult{
		Message: fmt.Sprintf("Elasticsearch index rebuilt with %d products", n),
		Count:   n,
	})
}
