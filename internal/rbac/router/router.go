package router

import (
	"catalog/internal/observability"
	"catalog/internal/rbac/handler"
	"catalog/internal/rbac/policy"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Deps struct {
	Handler  *handler.Handler
	Resolver *policy.Resolver
	Policies map[string]*policy.RoutePolicy
	Auth     handler.AuthConfig
	Metrics  *observability.Metrics
}

func RegisterRoutes(e *echo.Echo, d Deps) {
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.PUT, echo.POST, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, handler.HeaderUserID},
	}))
	e.Use(d.Metrics.Middleware())

	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))

	h := d.Handler
	v1 := e.Group("/api/v1")
	v1.Use(handler.RequestIDMiddleware)
	v1.Use(handler.AuthMiddleware(d.Auth))
	v1.Use(handler.NewRBACMiddleware(d.Resolver, d.Policies).Middleware())

	// Roles
	v1.GET("/roles", h.GetRoles)
	v1.GET("/roles/:id", h.GetRole)
	v1.POST("/roles", h.PostRole)
	v1.PUT("/roles/:id", h.PutRole)
	v1.DELETE("/roles/:id", h.DeleteRole)
	v1.POST("/roles/:id/permissions", h.PostRolePermissions)
	v1.PUT("/roles/:id/permissions", h.PutRolePermissions)
	v1.POST("/roles/:id/users", h.PostRoleUsers)
	v1.DELETE("/roles/:id/users", h.DeleteRoleUsers)

	// Permissions
	v1.POST("/permissions/check", h.PostPermissionsCheck)
	v1.GET("/permissions", h.GetPermissions)
	v1.GET("/permissions/:id", h.GetPermission)
	v1.POST("/permissions", h.PostPermission)
	v1.PUT("/permissions/:id", h.PutPermission)
	v1.DELETE("/permissions/:id", h.DeletePermission)
	v1.GET("/audit", h.GetAudit)

	// Dynamic resource types and their records
	v1.GET("/models", h.GetModels)
	v1.GET("/models/:id", h.GetModel)
	v1.POST("/models", h.PostModel)
	v1.PUT("/models/:id", h.PutModel)
	v1.DELETE("/models/:id", h.DeleteModel)
	v1.GET("/data/:model", h.GetRecords)
	v1.GET("/data/:model/:id", h.GetRecord)
	v1.POST("/data/:model", h.PostRecord)
	v1.PUT("/data/:model/:id", h.PutRecord)
	v1.DELETE("/data/:model/:id", h.DeleteRecord)

	// Products
	v1.GET("/products", h.GetProducts)
	v1.GET("/products/search", h.SearchProducts)
	v1.GET("/products/:id", h.GetProduct)
	v1.POST("/products", h.PostProduct)
	v1.PUT("/products/:id", h.PutProduct)
	v1.DELETE("/products/:id", h.DeleteProduct)

	// Search index sync
	v1.GET("/sync/status", h.GetSyncStatus)
	v1.POST("/sync/all", h.PostSyncAll)
	v1.POST("/sync/reset", h.PostSyncReset)
	v1.POST("/sync/rebuild", h.PostSyncRebuild)
}
