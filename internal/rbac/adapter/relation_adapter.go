package adapter

import (
	"context"

	"catalog/internal/rbac/model"
)

// RelationRequest assigns or removes principals on one role.
type RelationRequest struct {
	RoleID       string
	PrincipalIDs []string
}

// RelationAdapter manages principal-to-role membership. The local adapter
// writes to the principal store; another adapter can forward to an external
// identity provider that owns principals.
type RelationAdapter interface {
	// CreateRelations attaches the role and reports principals that could not be matched
	CreateRelations(ctx context.Context, req *RelationRequest) (*model.BatchResult, error)

	// DeleteRelations detaches the role; absent memberships are ignored
	DeleteRelations(ctx context.Context, req *RelationRequest) error

	// ListRelations returns the ids of principals holding the role
	ListRelations(ctx context.Context, roleID string) ([]string, error)

	// CheckRelation reports whether the principal holds the role
	CheckRelation(ctx context.Context, roleID, principalID string) (bool, error)
}
