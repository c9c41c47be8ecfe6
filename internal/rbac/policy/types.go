package policy

// RoutePolicy is the permission requirement of one HTTP route.
type RoutePolicy struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Resource string `json:"resource,omitempty"`
	Action   string `json:"action,omitempty"`
	// AdminOnly requires the administrator role regardless of grants
	AdminOnly bool `json:"admin_only,omitempty"`
}

// Key is the lookup key used by the RBAC middleware.
func (p *RoutePolicy) Key() string {
	return p.Method + ":" + p.Path
}

// RequiresPermission reports whether a resource/action grant must be checked.
func (p *RoutePolicy) RequiresPermission() bool {
	return p.Resource != "" && p.Action != ""
}

type routeFile struct {
	Routes []*RoutePolicy `json:"routes"`
}
