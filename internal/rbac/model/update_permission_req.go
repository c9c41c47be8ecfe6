package model

import "strings"

type UpdatePermissionReq struct {
	Description *string `json:"description" validate:"omitempty,max=255"`
}

func (r *UpdatePermissionReq) Validate() error {
	if r.Description == nil {
		return badRequest("description is required")
	}
	desc := strings.TrimSpace(*r.Description)
	r.Description = &desc

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}
