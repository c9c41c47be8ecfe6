package model

import (
	"strings"
	"time"

	"catalog/internal/rbac/apperrors"
)

// Principal is an authenticated actor. The core only reads its role set.
type Principal struct {
	ID           string    `json:"id" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	DisplayName  string    `json:"displayName,omitempty" bson:"display_name,omitempty"`
	PasswordHash string    `json:"-" bson:"password_hash,omitempty"`
	RoleIDs      []string  `json:"roleIds" bson:"role_ids"`
	Active       bool      `json:"active" bson:"active"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`
}

type Role struct {
	ID            string    `json:"id" bson:"_id"`
	Name          string    `json:"name" bson:"name"`
	NameKey       string    `json:"-" bson:"name_key"`
	Description   string    `json:"description,omitempty" bson:"description,omitempty"`
	PermissionIDs []string  `json:"permissionIds" bson:"permission_ids"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updated_at"`
}

// RoleDetail is a role with its permissions and principals resolved.
type RoleDetail struct {
	*Role
	Permissions []*Permission `json:"permissions"`
	UserIDs     []string      `json:"userIds"`
}

type Permission struct {
	ID          string    `json:"id" bson:"_id"`
	Resource    string    `json:"resource" bson:"resource"`
	Action      string    `json:"action" bson:"action"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}

// Key renders the permission as resource:action.
func (p *Permission) Key() string {
	return p.Resource + ":" + p.Action
}

// IsWildcard reports whether this is the *:* grant.
func (p *Permission) IsWildcard() bool {
	return p.Resource == ResourceAll && p.Action == ActionAll
}

type FieldDefinition struct {
	Name     string `json:"name" bson:"name" validate:"required,max=64"`
	Type     string `json:"type" bson:"type" validate:"required,oneof=string number boolean date"`
	Required bool   `json:"required" bson:"required"`
}

// ResourceType is a runtime-defined record schema.
type ResourceType struct {
	ID          string            `json:"id" bson:"_id"`
	Name        string            `json:"name" bson:"name"`
	NameKey     string            `json:"-" bson:"name_key"`
	DisplayName string            `json:"displayName" bson:"display_name"`
	Fields      []FieldDefinition `json:"fields" bson:"fields"`
	Active      bool              `json:"isActive" bson:"is_active"`
	CreatedBy   string            `json:"createdBy,omitempty" bson:"created_by,omitempty"`
	CreatedAt   time.Time         `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time         `json:"updatedAt" bson:"updated_at"`
}

// ResourceName is the permission resource for records of this type.
func (t *ResourceType) ResourceName() string {
	return strings.ToLower(t.Name)
}

// DataRecord is an instance of a ResourceType.
type DataRecord struct {
	ID        string         `json:"id" bson:"_id"`
	ModelName string         `json:"modelName" bson:"model_name"`
	Data      map[string]any `json:"data" bson:"data"`
	CreatedBy string         `json:"createdBy,omitempty" bson:"created_by,omitempty"`
	CreatedAt time.Time      `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time      `json:"updatedAt" bson:"updated_at"`
}

// Product is the searchable primary record.
type Product struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Price     float64   `json:"price" bson:"price"`
	Image     string    `json:"image,omitempty" bson:"image,omitempty"`
	CreatedBy string    `json:"createdBy,omitempty" bson:"created_by,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// SyncStatus reports the state of the search sync queue.
type SyncStatus struct {
	QueueLength      int  `json:"queueLength"`
	Processing       bool `json:"processing"`
	BackendAvailable bool `json:"backendAvailable"`
}

type CountResult struct {
	Message string `json:"message,omitempty"`
	Count   int    `json:"count"`
}

type MessageResp struct {
	Message string `json:"message"`
}

// ResourceTypeResp wraps a resource type returned by a write.
type ResourceTypeResp struct {
	Message string        `json:"message"`
	Model   *ResourceType `json:"model"`
}

// DeactivateResp reports what deactivating a resource type purged.
type DeactivateResp struct {
	Message            string `json:"message"`
	RecordsDeleted     int64  `json:"recordsDeleted"`
	PermissionsDeleted int64  `json:"permissionsDeleted"`
}

type DataRecordResp struct {
	Message string      `json:"message"`
	Record  *DataRecord `json:"record"`
}

type RoleUsersResp struct {
	Message string `json:"message"`
	*BatchResult
}

// ErrorResponse for consistent error handling
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	RequestID string                 `json:"request_id,omitempty"`
	Details   []apperrors.FieldError `json:"details,omitempty"`
}

func (e *ErrorDetail) Error() string {
	return e.Message
}
