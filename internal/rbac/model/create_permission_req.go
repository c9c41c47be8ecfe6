package model

import (
	"fmt"
	"strings"
)

type CreatePermissionReq struct {
	Resource    string `json:"resource" validate:"required,min=1,max=64"`
	Action      string `json:"action" validate:"required"`
	Description string `json:"description" validate:"max=255"`
}

func (r *CreatePermissionReq) Validate() error {
	r.Resource = strings.ToLower(strings.TrimSpace(r.Resource))
	r.Action = strings.ToLower(strings.TrimSpace(r.Action))
	r.Description = strings.TrimSpace(r.Description)

	if r.Resource == "" || r.Action == "" {
		return badRequest("Resource and action are required")
	}
	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	if !AllowedActions[r.Action] {
		return badRequest(fmt.Sprintf("action %q is not one of view, create, edit, delete, manage, *", r.Action))
	}
	return nil
}

// DefaultPermissionDescription is used when a permission is created without one.
func DefaultPermissionDescription(action, resource string) string {
	return fmt.Sprintf("Can %s %s", action, resource)
}
