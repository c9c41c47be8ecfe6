package model

import "strings"

type CreateRoleReq struct {
	Name          string   `json:"name" validate:"required,min=1,max=64"`
	Description   string   `json:"description" validate:"max=255"`
	PermissionIDs []string `json:"permissions" validate:"omitempty,dive,required"`
}

func (r *CreateRoleReq) Validate() error {
	r.Name = NormalizeRoleName(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.PermissionIDs = trimIDs(r.PermissionIDs)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}

// NormalizeRoleName trims and title-cases a role name: first letter upper, rest lower.
func NormalizeRoleName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	runes := []rune(strings.ToLower(name))
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	return string(runes)
}

func trimIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
