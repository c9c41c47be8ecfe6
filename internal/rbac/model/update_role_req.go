package model

import "strings"

// UpdateRoleReq changes only what is present. A non-nil PermissionIDs replaces the whole grant set.
type UpdateRoleReq struct {
	Name          *string   `json:"name" validate:"omitempty,min=1,max=64"`
	Description   *string   `json:"description" validate:"omitempty,max=255"`
	PermissionIDs *[]string `json:"permissions"`
}

func (r *UpdateRoleReq) Validate() error {
	if r.Name != nil {
		name := NormalizeRoleName(*r.Name)
		if name == "" {
			return badRequest("name must not be empty")
		}
		r.Name = &name
	}
	if r.Description != nil {
		desc := strings.TrimSpace(*r.Description)
		r.Description = &desc
	}
	if r.PermissionIDs != nil {
		ids := trimIDs(*r.PermissionIDs)
		if ids == nil {
			ids = []string{}
		}
		r.PermissionIDs = &ids
	}

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}
