// File: internal/dto/user_response.go
package dto

import (
	"time"

	"quill/internal/model"

	"github.com/google/uuid"
)

// swagger:model dto.UserResponse
type UserResponse struct {
	ID          uuid.UUID  `json:"id" example:"6f1c2d3e-0000-4000-8000-000000000001"`
	Email       string     `json:"email" example:"alice@example.com"`
	FirstName   *string    `json:"firstname" example:"Alice"`
	LastName    *string    `json:"lastname" example:"Liddell"`
	IsAdmin     bool       `json:"isadmin" example:"false"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	Locked      bool       `json:"locked" example:"false"`
	LockVersion int        `json:"lock_version" example:"0"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsAdmin:     u.IsAdmin,
		ConfirmedAt: u.ConfirmedAt,
		Locked:      u.LockedAt != nil,
		LockVersion: u.LockVersion,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func NewUserResponses(users []model.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}
