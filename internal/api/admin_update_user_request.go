// File: internal/api/admin_update_user_request.go
package api

// swagger:model api.AdminUpdateUserRequest
type AdminUpdateUserRequest struct {
	Email       *string `json:"email" validate:"omitempty,email" example:"alice@example.com"`
	FirstName   *string `json:"firstname" validate:"omitempty,max=100" example:"Alice"`
	LastName    *string `json:"lastname" validate:"omitempty,max=100" example:"Liddell"`
	LockVersion *int    `json:"lock_version" validate:"omitempty,min=0" example:"3"`
}

// swagger:model api.SetAdminRequest
type SetAdminRequest struct {
	IsAdmin *bool `json:"isadmin" validate:"required" example:"true"`
}
