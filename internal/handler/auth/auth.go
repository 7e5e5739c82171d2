// Package auth serves sign in, sign out, password reset, confirmation and unlock.
package auth

import (
	"context"
	"errors"
	"net/http"

	"quill/internal/apperror"
	"quill/internal/dto"
	"quill/internal/handler"
	"quill/internal/model"
	"quill/internal/service"

	"github.com/labstack/echo/v4"
)

// Authenticator 由 service.Authenticator 實作
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*service.Session, error)
	SignOut(ctx context.Context, token string) error
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	CheckPasswordResetToken(ctx context.Context, token string) error
	CompletePasswordReset(ctx context.Context, token, newPassword string) error
	RequestConfirmation(ctx context.Context, email string) (string, error)
	Confirm(ctx context.Context, token string) (*model.User, error)
	RequestUnlock(ctx context.Context, email string) (string, error)
	Unlock(ctx context.Context, token string) (*model.User, error)
}

const instructionsSent = "if the email is registered, instructions have been sent"

func sessionResponse(s *service.Session) dto.SessionResponse {
	return dto.SessionResponse{
		AccessToken: s.Token,
		TokenType:   "Bearer",
		ExpiresAt:   s.ExpiresAt,
		User:        dto.NewUserResponse(s.User),
	}
}

// acceptRequest 重寄類請求一律回 202，不透露帳號是否存在或狀態
func acceptRequest(c echo.Context, op string, err error) error {
	if err != nil && !errors.Is(err, apperror.ErrNotFound) && !errors.Is(err, apperror.ErrValidation) {
		return handler.RespondError(c, err)
	}
	if err != nil {
		c.Logger().Debugf("%s: %v", op, err)
	}
	return c.JSON(http.StatusAccepted, dto.MessageResponse{Message: instructionsSent})
}
