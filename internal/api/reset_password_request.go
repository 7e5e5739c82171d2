// File: internal/api/reset_password_request.go
package api

// swagger:model api.ResetPasswordRequest
type ResetPasswordRequest struct {
	ResetPasswordToken   string `json:"reset_password_token" form:"reset_password_token" validate:"required" example:"k3Jx..."`
	Password             string `json:"password" form:"password" validate:"required,min=8,max=72" example:"NewSecret456!"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation" validate:"required,eqfield=Password" example:"NewSecret456!"`
}
