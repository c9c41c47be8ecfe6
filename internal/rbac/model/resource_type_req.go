package model

import (
	"fmt"
	"strings"
	"unicode"
)

type CreateResourceTypeReq struct {
	Name        string            `json:"name" validate:"required,min=1,max=64"`
	DisplayName string            `json:"displayName" validate:"required,min=1,max=128"`
	Fields      []FieldDefinition `json:"fields" validate:"required,min=1,dive"`
}

func (r *CreateResourceTypeReq) Validate() error {
	r.Name = NormalizeTypeName(r.Name)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	normalizeFields(r.Fields)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return checkFieldNames(r.Fields)
}

// UpdateResourceTypeReq carries a subset of the type's attributes.
type UpdateResourceTypeReq struct {
	Name        *string            `json:"name" validate:"omitempty,min=1,max=64"`
	DisplayName *string            `json:"displayName" validate:"omitempty,min=1,max=128"`
	Fields      *[]FieldDefinition `json:"fields" validate:"omitempty,min=1,dive"`
}

func (r *UpdateResourceTypeReq) Validate() error {
	if r.Name == nil && r.DisplayName == nil && r.Fields == nil {
		return badRequest("at least one of name, displayName or fields is required")
	}
	if r.Name != nil {
		name := NormalizeTypeName(*r.Name)
		if name == "" {
			return badRequest("name must contain at least one letter or digit")
		}
		r.Name = &name
	}
	if r.DisplayName != nil {
		display := strings.TrimSpace(*r.DisplayName)
		if display == "" {
			return badRequest("displayName must not be empty")
		}
		r.DisplayName = &display
	}
	if r.Fields != nil {
		if len(*r.Fields) == 0 {
			return badRequest("fields must not be empty")
		}
		normalizeFields(*r.Fields)
	}

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	if r.Fields != nil {
		return checkFieldNames(*r.Fields)
	}
	return nil
}

// NormalizeTypeName capitalizes the first letter and strips non-alphanumerics.
func NormalizeTypeName(name string) string {
	var b strings.Builder
	for _, c := range strings.TrimSpace(name) {
		if c < unicode.MaxASCII && (unicode.IsLetter(c) || unicode.IsDigit(c)) {
			b.WriteRune(c)
		}
	}
	out := b.String()
	if out == "" {
		return out
	}
	return strings.ToUpper(out[:1]) + out[1:]
}

func normalizeFields(fields []FieldDefinition) {
	for i := range fields {
		fields[i].Name = strings.TrimSpace(fields[i].Name)
		fields[i].Type = strings.ToLower(strings.TrimSpace(fields[i].Type))
	}
}

func checkFieldNames(fields []FieldDefinition) error {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name] {
			return badRequest(fmt.Sprintf("duplicate field name %q", f.Name))
		}
		seen[f.Name] = true
	}
	return nil
}
