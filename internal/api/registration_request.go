// File: internal/api/registration_request.go
package api

// swagger:model api.RegistrationRequest
type RegistrationRequest struct {
	Email                string `json:"email" form:"email" validate:"required,email" example:"alice@example.com"`
	Password             string `json:"password" form:"password" validate:"required,min=8,max=72" example:"Secret123!"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation" validate:"required,eqfield=Password" example:"Secret123!"`
	FirstName            string `json:"firstname" form:"firstname" validate:"max=100" example:"Alice"`
	LastName             string `json:"lastname" form:"lastname" validate:"max=100" example:"Liddell"`
}
