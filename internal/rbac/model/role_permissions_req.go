package model

// RolePermissionsReq adds to (POST) or replaces (PUT) a role's permission set.
type RolePermissionsReq struct {
	PermissionIDs []string `json:"permissions" validate:"max=500,dive,required"`
}

func (r *RolePermissionsReq) Validate() error {
	r.PermissionIDs = trimIDs(r.PermissionIDs)
	if r.PermissionIDs == nil {
		r.PermissionIDs = []string{}
	}

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}
