// File: internal/dto/session_response.go
package dto

import "time"

// swagger:model dto.SessionResponse
type SessionResponse struct {
	AccessToken string       `json:"access_token" example:"eyJhbGciOiJIUzI1NiIs..."`
	TokenType   string       `json:"token_type" example:"Bearer"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// RegistrationResponse 改密碼時舊 session 失效，附上新的 session
// swagger:model dto.RegistrationResponse
type RegistrationResponse struct {
	User    UserResponse     `json:"user"`
	Session *SessionResponse `json:"session,omitempty"`
}
