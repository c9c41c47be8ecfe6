package handler

import (
	"catalog/internal/rbac/policy"

	"github.com/labstack/echo/v4"
)

// RBACMiddleware enforces the route policies loaded from the embedded JSON files
type RBACMiddleware struct {
	resolver *policy.Resolver
	policies map[string]*policy.RoutePolicy // key: "METHOD:PATH"
}

func NewRBACMiddleware(resolver *policy.Resolver, policies map[string]*policy.RoutePolicy) *RBACMiddleware {
	return &RBACMiddleware{
		resolver: resolver,
		policies: policies,
	}
}

// Middleware returns the Echo middleware function
func (m *RBACMiddleware) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// 1. Find the policy for the matched route
			p, exists := m.policies[c.Request().Method+":"+c.Path()]
			if !exists {
				// No policy for this route, the handler or service decides
				return next(c)
			}

			// 2. Caller must be authenticated
			callerID, err := extractCallerID(c)
			if err != nil {
				return respondError(c, err)
			}

			// 3. Check
			ctx := c.Request().Context()
			switch {
			case p.AdminOnly:
				err = m.resolver.AuthorizeAdmin(ctx, callerID)
			case p.RequiresPermission():
				err = m.resolver.Authorize(ctx, callerID, p.Resource, p.Action)
			}
			if err != nil {
				return respondError(c, err)
			}

			return next(c)
		}
	}
}
