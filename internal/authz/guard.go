// Package authz decides whether a caller may reach a resource.
package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quill/internal/apperror"
	"quill/internal/model"

	"github.com/google/uuid"
)

// SessionValidator 由 service.Authenticator 實作
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*model.User, error)
}

type Guard struct {
	sessions SessionValidator
}

func NewGuard(s SessionValidator) *Guard {
	return &Guard{sessions: s}
}

// RequireAuthenticated 回傳 token 所屬使用者；token 無效或過期時回傳 ErrUnauthorized，
// 並保留原因（ErrSessionExpired / ErrSessionInvalid）
func (g *Guard) RequireAuthenticated(ctx context.Context, token string) (*model.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: missing session token", apperror.ErrUnauthorized)
	}
	user, err := g.sessions.ValidateSession(ctx, token)
	if err != nil {
		if errors.Is(err, apperror.ErrSessionExpired) || errors.Is(err, apperror.ErrSessionInvalid) {
			return nil, fmt.Errorf("%w: %w", apperror.ErrUnauthorized, err)
		}
		return nil, err
	}
	return user, nil
}

// RequireAdmin 只看目前資料庫中的 isadmin
func RequireAdmin(user *model.User) error {
	if user == nil {
		return apperror.ErrUnauthorized
	}
	if !user.IsAdmin {
		return apperror.Forbidden("admin privileges required")
	}
	return nil
}

// RequireOwnerOrAdmin 資源擁有者或管理員才可修改
func RequireOwnerOrAdmin(user *model.User, ownerID uuid.UUID) error {
	if user == nil {
		return apperror.ErrUnauthorized
	}
	if user.IsAdmin || user.ID == ownerID {
		return nil
	}
	return apperror.Forbidden("only the owner or an admin may change this resource")
}
