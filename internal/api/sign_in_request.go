// File: internal/api/sign_in_request.go
package api

// swagger:model api.SignInRequest
type SignInRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email" example:"alice@example.com"`
	Password string `json:"password" form:"password" validate:"required" example:"Secret123!"`
}
