package apperrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForbiddenError(t *testing.T) {
	err := Forbidden("customer", "edit")

	assert.True(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, "permission denied: customer:edit", err.Error())

	var fe *ForbiddenError
	assert.True(t, errors.As(Wrap(err, "update record"), &fe))
	assert.Equal(t, "customer", fe.Resource)
	assert.Equal(t, "edit", fe.Action)
}

func TestValidationError(t *testing.T) {
	assert.Nil(t, NewValidationError(nil))

	err := NewValidationError([]FieldError{
		{Field: "fullName", Message: "fullName is required."},
		{Field: "age", Message: "age must be a valid number."},
	})
	assert.True(t, errors.Is(err, ErrBadRequest))

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Errors, 2)
}

func TestFormattedErrors(t *testing.T) {
	err := Conflictf("Model with name %q already exists", "Customer")
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, `Model with name "Customer" already exists`, Message(err))

	assert.True(t, errors.Is(NotFoundf("role %s", "r1"), ErrNotFound))
	assert.True(t, errors.Is(BadRequestf("bad"), ErrBadRequest))
	assert.True(t, errors.Is(Forbiddenf("Cannot delete system permissions"), ErrForbidden))
	assert.Equal(t, "Cannot delete system permissions", Message(Forbiddenf("Cannot delete system permissions")))
	assert.Nil(t, Wrap(nil, "ctx"))
	assert.Equal(t, "", Message(nil))
}
