package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTypeName(t *testing.T) {
	assert.Equal(t, "Customer", NormalizeTypeName("customer"))
	assert.Equal(t, "SalesLead2", NormalizeTypeName(" sales-Lead 2! "))
	assert.Equal(t, "", NormalizeTypeName("---"))
	assert.Equal(t, "Abc", NormalizeTypeName("_abc"))
}

func TestNormalizeRoleName(t *testing.T) {
	assert.Equal(t, "Sales", NormalizeRoleName("  sALES "))
	assert.Equal(t, "", NormalizeRoleName("   "))
}

func TestCreateResourceTypeReqValidate(t *testing.T) {
	t.Run("valid request is normalized", func(t *testing.T) {
		req := CreateResourceTypeReq{
			Name:        "customer",
			DisplayName: " Customer ",
			Fields:      []FieldDefinition{{Name: " fullName ", Type: "STRING", Required: true}},
		}
		require.NoError(t, req.Validate())
		assert.Equal(t, "Customer", req.Name)
		assert.Equal(t, "Customer", req.DisplayName)
		assert.Equal(t, "fullName", req.Fields[0].Name)
		assert.Equal(t, FieldTypeString, req.Fields[0].Type)
	})

	t.Run("missing fields fails", func(t *testing.T) {
		req := CreateResourceTypeReq{Name: "customer", DisplayName: "Customer"}
		assert.Error(t, req.Validate())
	})

	t.Run("unknown field type fails with field path", func(t *testing.T) {
		req := CreateResourceTypeReq{
			Name:        "customer",
			DisplayName: "Customer",
			Fields:      []FieldDefinition{{Name: "x", Type: "blob"}},
		}
		err := req.Validate()
		require.Error(t, err)
		detail, ok := err.(*ErrorDetail)
		require.True(t, ok)
		require.NotEmpty(t, detail.Details)
		assert.Equal(t, "fields[0].type", detail.Details[0].Field)
	})

	t.Run("duplicate field names fail", func(t *testing.T) {
		req := CreateResourceTypeReq{
			Name:        "customer",
			DisplayName: "Customer",
			Fields:      []FieldDefinition{{Name: "x", Type: "string"}, {Name: "x", Type: "number"}},
		}
		assert.Error(t, req.Validate())
	})
}

func TestUpdateResourceTypeReqValidate(t *testing.T) {
	empty := UpdateResourceTypeReq{}
	assert.Error(t, empty.Validate())

	name := "client!"
	req := UpdateResourceTypeReq{Name: &name}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Client", *req.Name)
}

func TestCreatePermissionReqValidate(t *testing.T) {
	req := CreatePermissionReq{Resource: " Report ", Action: "VIEW"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "report", req.Resource)
	assert.Equal(t, "view", req.Action)

	bad := CreatePermissionReq{Resource: "report", Action: "publish"}
	assert.Error(t, bad.Validate())

	missing := CreatePermissionReq{Resource: "report"}
	assert.EqualError(t, missing.Validate(), "Resource and action are required")

	assert.Equal(t, "Can view report", DefaultPermissionDescription("view", "report"))
}

func TestRoleUsersReqValidate(t *testing.T) {
	req := RoleUsersReq{UserIDs: []string{" u1 ", "u1", "", "u2"}}
	require.NoError(t, req.Validate())
	assert.Equal(t, []string{"u1", "u2"}, req.UserIDs)

	empty := RoleUsersReq{}
	assert.Error(t, empty.Validate())
}

func TestIsReservedResource(t *testing.T) {
	for _, name := range []string{"product", "Product", " ROLE ", "model", "*"} {
		assert.True(t, IsReservedResource(name), name)
	}
	for _, name := range []string{"Customer", "Products", ""} {
		assert.False(t, IsReservedResource(name), name)
	}
}
