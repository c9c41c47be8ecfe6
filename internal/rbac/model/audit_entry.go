package model

import "time"

// AuditEntry records an access-control change (append-only, read-only after creation).
type AuditEntry struct {
	ID        string `bson:"_id,omitempty" json:"id"`
	Operation string `bson:"operation" json:"operation"`
	CallerID  string `bson:"caller_id" json:"callerId"`

	RoleID       string   `bson:"role_id,omitempty" json:"roleId,omitempty"`
	PermissionID string   `bson:"permission_id,omitempty" json:"permissionId,omitempty"`
	Resource     string   `bson:"resource,omitempty" json:"resource,omitempty"`
	UserIDs      []string `bson:"user_ids,omitempty" json:"userIds,omitempty"`
	Detail       string   `bson:"detail,omitempty" json:"detail,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

type AuditQuery struct {
	Operation string
	RoleID    string
	Resource  string
	PageQuery
}

type AuditList struct {
	Results    []*AuditEntry `json:"results"`
	Pagination Pagination    `json:"pagination"`
}
