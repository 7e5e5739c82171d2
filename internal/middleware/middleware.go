package middleware

import (
	"errors"
	"net/http"
	"strings"

	"quill/internal/apperror"
	"quill/internal/authz"
	"quill/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

const (
	ContextUserKey  = "user"
	ContextTokenKey = "token"
)

// BearerToken 從 Authorization header 取出 token
func BearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
	}
	return strings.TrimSpace(parts[1]), nil
}

// CurrentUser 回傳 RequireAuth 放進 context 的使用者
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(ContextUserKey).(*model.User)
	return u
}

func RequireAuth(g *authz.Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := BearerToken(c)
			if err != nil {
				return err
			}
			user, err := g.RequireAuthenticated(c.Request().Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, apperror.ErrSessionExpired):
					return echo.NewHTTPError(http.StatusUnauthorized, apperror.ErrSessionExpired.Error())
				case errors.Is(err, apperror.ErrUnauthorized):
					return echo.NewHTTPError(http.StatusUnauthorized, apperror.ErrSessionInvalid.Error())
				}
				log.Errorf("middleware: validate session: %v", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
			}
			c.Set(ContextUserKey, user)
			c.Set(ContextTokenKey, token)
			return next(c)
		}
	}
}

// RequireAdmin 必須掛在 RequireAuth 之後
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authz.RequireAdmin(CurrentUser(c)); err != nil {
			return echo.NewHTTPError(apperror.HTTPStatus(err), apperror.Message(err))
		}
		return next(c)
	}
}
