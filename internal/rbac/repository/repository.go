package repository

import (
	"context"
	"errors"

	"catalog/internal/rbac/model"
)

var (
	ErrDuplicate = errors.New("duplicate record")
	ErrNotFound  = errors.New("record not found")
)

type PrincipalRepository interface {
	CreatePrincipal(ctx context.Context, p *model.Principal) error
	GetPrincipal(ctx context.Context, id string) (*model.Principal, error)
	GetPrincipalByEmail(ctx context.Context, email string) (*model.Principal, error)
	// ListPrincipalIDsByRole returns the ids of principals holding the role
	ListPrincipalIDsByRole(ctx context.Context, roleID string) ([]string, error)
	// AddRoleToPrincipals returns the ids that matched an existing principal
	AddRoleToPrincipals(ctx context.Context, roleID string, principalIDs []string) ([]string, error)
	RemoveRoleFromPrincipals(ctx context.Context, roleID string, principalIDs []string) error
}

type RoleRepository interface {
	CreateRole(ctx context.Context, role *model.Role) error
	GetRole(ctx context.Context, id string) (*model.Role, error)
	// GetRoleByName matches case-insensitively
	GetRoleByName(ctx context.Context, name string) (*model.Role, error)
	GetRolesByIDs(ctx context.Context, ids []string) ([]*model.Role, error)
	ListRoles(ctx context.Context) ([]*model.Role, error)
	UpdateRole(ctx context.Context, role *model.Role) error
	// DeleteRole also detaches the role from every principal
	DeleteRole(ctx context.Context, id string) error
	AddPermissionsToRole(ctx context.Context, roleID string, permissionIDs []string) error
	// RemovePermissionsFromRole clears every grant of the role
	RemovePermissionsFromRole(ctx context.Context, roleID string) error
	// ReplacePermissionInRoles moves every grant of oldID onto newID
	ReplacePermissionInRoles(ctx context.Context, oldID, newID string) error
}

type PermissionRepository interface {
	CreatePermission(ctx context.Context, p *model.Permission) error
	// FindOrCreatePermission is idempotent on (resource, action); created reports an insert
	FindOrCreatePermission(ctx context.Context, p *model.Permission) (perm *model.Permission, created bool, err error)
	GetPermission(ctx context.Context, id string) (*model.Permission, error)
	GetPermissionByKey(ctx context.Context, resource, action string) (*model.Permission, error)
	GetPermissionsByIDs(ctx context.Context, ids []string) ([]*model.Permission, error)
	ListPermissions(ctx context.Context) ([]*model.Permission, error)
	ListPermissionsByResource(ctx context.Context, resource string) ([]*model.Permission, error)
	UpdatePermission(ctx context.Context, p *model.Permission) error
	// DeletePermission also detaches the permission from every role
	DeletePermission(ctx context.Context, id string) error
}

// DeactivateResult counts what a resource type deactivation purged.
type DeactivateResult struct {
	RecordsDeleted     int64
	PermissionsDeleted int64
}

type ResourceTypeRepository interface {
	CreateResourceType(ctx context.Context, t *model.ResourceType) error
	GetResourceType(ctx context.Context, id string) (*model.ResourceType, error)
	// GetActiveResourceTypeByName matches case-insensitively among active types
	GetActiveResourceTypeByName(ctx context.Context, name string) (*model.ResourceType, error)
	ListResourceTypes(ctx context.Context, includeInactive bool) ([]*model.ResourceType, error)
	UpdateResourceType(ctx context.Context, t *model.ResourceType) error
	// DeactivateResourceType purges the type's records and permissions and flips it inactive atomically
	DeactivateResourceType(ctx context.Context, id string) (*DeactivateResult, error)
}

type DataRecordRepository interface {
	CreateRecord(ctx context.Context, r *model.DataRecord) error
	GetRecord(ctx context.Context, modelName, id string) (*model.DataRecord, error)
	ListRecords(ctx context.Context, modelName string, skip, limit int64) ([]*model.DataRecord, int64, error)
	UpdateRecord(ctx context.Context, r *model.DataRecord) error
	DeleteRecord(ctx context.Context, modelName, id string) error
	// RenameModel rewrites the owning type name of every record
	RenameModel(ctx context.Context, oldName, newName string) (int64, error)
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, p *model.Product) error
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, skip, limit int64) ([]*model.Product, int64, error)
	AllProducts(ctx context.Context) ([]*model.Product, error)
	UpdateProduct(ctx context.Context, p *model.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// AuditRepository defines the interface for access-control audit entries
type AuditRepository interface {
	// CreateAuditEntry creates a new entry (append-only)
	CreateAuditEntry(ctx context.Context, entry *model.AuditEntry) error
	// FindAuditEntries finds entries newest first with pagination and filtering
	FindAuditEntries(ctx context.Context, q model.AuditQuery) ([]*model.AuditEntry, int64, error)
}

// Store is everything the service layer needs from storage.
type Store interface {
	PrincipalRepository
	RoleRepository
	PermissionRepository
	ResourceTypeRepository
	DataRecordRepository
	ProductRepository
	AuditRepository
	EnsureIndexes(ctx context.Context) error
}
