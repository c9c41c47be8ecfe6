package model

type RoleUsersReq struct {
	UserIDs []string `json:"userIds" validate:"required,min=1,max=500,dive,required"`
}

func (r *RoleUsersReq) Validate() error {
	r.UserIDs = trimIDs(r.UserIDs)

	if len(r.UserIDs) == 0 {
		return badRequest("User IDs array is required")
	}
	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}

// BatchResult reports a partially successful batch operation.
type BatchResult struct {
	SuccessCount int              `json:"successCount"`
	FailedCount  int              `json:"failedCount"`
	FailedUsers  []FailedUserInfo `json:"failedUsers,omitempty"`
}

type FailedUserInfo struct {
	UserID string `json:"userId"`
	Reason string `json:"reason"`
}
