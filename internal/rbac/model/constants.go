package model

import "strings"

// Actions
const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"
	ActionManage = "manage"
	ActionAll    = "*"
)

// ResourceAll is the reserved wildcard resource.
const ResourceAll = "*"

// StandardActions are provisioned for every registered resource type, in this order.
var StandardActions = []string{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionManage}

// AllowedActions is the closed action set a permission may carry.
var AllowedActions = map[string]bool{
	ActionView:   true,
	ActionCreate: true,
	ActionEdit:   true,
	ActionDelete: true,
	ActionManage: true,
	ActionAll:    true,
}

// Roles seeded at bootstrap
const (
	RoleAdmin      = "Admin"
	RoleSuperAdmin = "SuperAdmin"
	RoleManager    = "Manager"
	RoleUser       = "User"
)

// ProtectedRoles reject deletion.
var ProtectedRoles = []string{RoleAdmin, RoleSuperAdmin}

// Built-in resources
const (
	ResourceProduct    = "product"
	ResourceCategory   = "category"
	ResourceUser       = "user"
	ResourceRole       = "role"
	ResourcePermission = "permission"
	ResourceModel      = "model"
)

// DefaultResources get view/create/edit/delete at bootstrap.
var DefaultResources = []string{ResourceProduct, ResourceCategory, ResourceUser, ResourceRole, ResourcePermission, ResourceModel}

// IsReservedResource reports whether name collides with a built-in resource or the wildcard.
func IsReservedResource(name string) bool {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == ResourceAll {
		return true
	}
	for _, r := range DefaultResources {
		if key == r {
			return true
		}
	}
	return false
}

// ManagedResources additionally get the manage action at bootstrap.
var ManagedResources = []string{ResourceUser, ResourceRole, ResourcePermission, ResourceModel}

// Field types for dynamic resource types
const (
	FieldTypeString  = "string"
	FieldTypeNumber  = "number"
	FieldTypeBoolean = "boolean"
	FieldTypeDate    = "date"
)

// SearchableType is the only record type mirrored into the search index.
const SearchableType = "Product"

// Sync operations
const (
	SyncOpCreate = "create"
	SyncOpUpdate = "update"
	SyncOpDelete = "delete"
)

// Audit operations
const (
	AuditRoleCreate          = "role_create"
	AuditRoleUpdate          = "role_update"
	AuditRoleDelete          = "role_delete"
	AuditRolePermissionsSet  = "role_permissions_set"
	AuditRoleUsersAssign     = "role_users_assign"
	AuditRoleUsersRemove     = "role_users_remove"
	AuditPermissionCreate    = "permission_create"
	AuditPermissionUpdate    = "permission_update"
	AuditPermissionDelete    = "permission_delete"
	AuditResourceTypeCreate  = "resource_type_create"
	AuditResourceTypeUpdate  = "resource_type_update"
	AuditResourceTypeDisable = "resource_type_deactivate"
)
