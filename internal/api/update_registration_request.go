// File: internal/api/update_registration_request.go
package api

// UpdateRegistrationRequest 修改 Email 或密碼時需要 current_password
// swagger:model api.UpdateRegistrationRequest
type UpdateRegistrationRequest struct {
	Email                *string `json:"email" validate:"omitempty,email" example:"alice@example.com"`
	FirstName            *string `json:"firstname" validate:"omitempty,max=100" example:"Alice"`
	LastName             *string `json:"lastname" validate:"omitempty,max=100" example:"Liddell"`
	CurrentPassword      string  `json:"current_password" example:"Secret123!"`
	Password             string  `json:"password" validate:"omitempty,min=8,max=72" example:"NewSecret456!"`
	PasswordConfirmation string  `json:"password_confirmation" validate:"eqfield=Password" example:"NewSecret456!"`
	LockVersion          *int    `json:"lock_version" validate:"omitempty,min=0" example:"3"`
}
