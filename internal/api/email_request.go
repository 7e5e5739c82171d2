// File: internal/api/email_request.go
package api

// EmailRequest 重寄密碼重設、驗證信、解鎖信共用
// swagger:model api.EmailRequest
type EmailRequest struct {
	Email string `json:"email" form:"email" validate:"required,email" example:"alice@example.com"`
}
