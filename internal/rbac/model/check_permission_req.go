package model

import "strings"

type CheckPermissionReq struct {
	// UserID defaults to the caller when empty
	UserID   string `json:"userId"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

func (r *CheckPermissionReq) Validate() error {
	r.UserID = strings.TrimSpace(r.UserID)
	r.Resource = strings.ToLower(strings.TrimSpace(r.Resource))
	r.Action = strings.ToLower(strings.TrimSpace(r.Action))

	if r.Resource == "" {
		return badRequest("resource is required")
	}
	if r.Action == "" {
		return badRequest("action is required")
	}
	return nil
}

type CheckPermissionResp struct {
	Allowed  bool   `json:"allowed"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}
