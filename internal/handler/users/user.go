// Package users serves the signed-in user's own registration.
package users

import (
	"context"
	"net/http"

	"quill/internal/api"
	"quill/internal/apperror"
	"quill/internal/dto"
	"quill/internal/handler"
	"quill/internal/middleware"
	"quill/internal/model"
	"quill/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var comparePassword = service.ComparePassword

// Registrar 由 service.Authenticator 實作
type Registrar interface {
	Register(ctx context.Context, r service.Registration) (*model.User, error)
	ChangePassword(ctx context.Context, user *model.User, current, newPassword string) (*service.Session, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, upd model.UserUpdate) (*model.User, error)
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
	SignOut(ctx context.Context, token string) error
}

var RegistrationForm = dto.FormResponse{
	Action: "/",
	Method: http.MethodPost,
	Fields: []dto.FormField{
		{Name: "email", Type: "email", Required: true},
		{Name: "password", Type: "password", Required: true},
		{Name: "password_confirmation", Type: "password", Required: true},
		{Name: "firstname", Type: "text"},
		{Name: "lastname", Type: "text"},
	},
}

// @Summary     Sign up
// @Description 建立帳號並寄出 Email 驗證信；新帳號一律不是管理員
// @Tags        registrations
// @Accept      json,application/x-www-form-urlencoded
// @Produce     json
// @Param       body body     api.RegistrationRequest true "註冊資料"
// @Success     201  {object} dto.UserResponse
// @Failure     400  {object} dto.ValidationError
// @Failure     409  {object} dto.HTTPError
// @Failure     500  {object} dto.HTTPError
// @Router      / [post]
func CreateRegistrationHandler(r Registrar) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.RegistrationRequest
		if err := handler.BindAndValidate(c, &req); err != nil {
			return handler.RespondError(c, err)
		}
		user, err := r.Register(c.Request().Context(), service.Registration{
			Email:     req.Email,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		})
		if err != nil {
			return handler.RespondError(c, err)
		}
		return c.JSON(http.StatusCreated, dto.NewUserResponse(user))
	}
}

// @Summary     Current registration
// @Tags        registrations
// @Produce     json
// @Success     200 {object} dto.UserResponse
// @Failure     401 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /edit [get]
func EditRegistrationHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, dto.NewUserResponse(middleware.CurrentUser(c)))
	}
}

// @Summary     Update registration
// @Description 修改 Email 或密碼需要 current_password；改密碼後回傳新的 session
// @Tags        registrations
// @Accept      json
// @Produce     json
// @Param       body body     api.UpdateRegistrationRequest true "欲更新的欄位"
// @Success     200  {object} dto.RegistrationResponse
// @Failure     400  {object} dto.ValidationError
// @Failure     401  {object} dto.HTTPError
// @Failure     409  {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      / [put]
// @Router      / [patch]
func UpdateRegistrationHandler(r Registrar) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.UpdateRegistrationRequest
		if err := handler.BindAndValidate(c, &req); err != nil {
			return handler.RespondError(c, err)
		}
		user := middleware.CurrentUser(c)
		ctx := c.Request().Context()

		upd := model.UserUpdate{
			Email:       req.Email,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			LockVersion: req.LockVersion,
		}
		if upd.Empty() && req.Password == "" {
			return handler.RespondError(c, apperror.ValidationFailed("", "nothing to update"))
		}
		if req.Email != nil || req.Password != "" {
			if req.CurrentPassword == "" || comparePassword(user.EncryptedPassword, req.CurrentPassword) != nil {
				return handler.RespondError(c, apperror.ValidationFailed("current_password", "current password is invalid"))
			}
		}

		if !upd.Empty() {
			updated, err := r.UpdateProfile(ctx, user.ID, upd)
			if err != nil {
				return handler.RespondError(c, err)
			}
			user = updated
		}

		resp := dto.RegistrationResponse{}
		if req.Password != "" {
			session, err := r.ChangePassword(ctx, user, req.CurrentPassword, req.Password)
			if err != nil {
				return handler.RespondError(c, err)
			}
			user = session.User
			resp.Session = &dto.SessionResponse{
				AccessToken: session.Token,
				TokenType:   "Bearer",
				ExpiresAt:   session.ExpiresAt,
				User:        dto.NewUserResponse(session.User),
			}
		}
		resp.User = dto.NewUserResponse(user)
		return c.JSON(http.StatusOK, resp)
	}
}

// @Summary     Cancel registration
// @Description 刪除帳號，作者的文章一併刪除，所有 session 失效
// @Tags        registrations
// @Success     204
// @Failure     401 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      / [delete]
func DestroyRegistrationHandler(r Registrar) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := r.DeleteAccount(c.Request().Context(), middleware.CurrentUser(c).ID); err != nil {
			return handler.RespondError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// CancelHandler 放棄進行中的註冊流程，只丟掉目前的 session
// @Summary     Drop the current session
// @Tags        registrations
// @Success     204
// @Failure     401 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /cancel [get]
func CancelHandler(r Registrar) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := middleware.BearerToken(c)
		if err != nil {
			return err
		}
		if err := r.SignOut(c.Request().Context(), token); err != nil {
			return handler.RespondError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
