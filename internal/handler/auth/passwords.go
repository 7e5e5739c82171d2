// File: internal/handler/auth/passwords.go
package auth

import (
	"net/http"

	"quill/internal/api"
	"quill/internal/apperror"
	"quill/internal/dto"
	"quill/internal/handler"

	"github.com/labstack/echo/v4"
)

var (
	NewPasswordForm = dto.FormResponse{
		Action: "/iforgot",
		Method: http.MethodPost,
		Fields: []dto.FormField{{Name: "email", Type: "email", Required: true}},
	}
	EditPasswordForm = dto.FormResponse{
		Action: "/iforgot",
		Method: http.MethodPut,
		Fields: []dto.FormField{
			{Name: "reset_password_token", Type: "hidden", Required: true},
			{Name: "password", Type: "password", Required: true},
			{Name: "password_confirmation", Type: "password", Required: true},
		},
	}
)

// RequestPasswordResetHandler 寄出重設密碼連結
// @Summary     Request password reset
// @Description 不論 Email 是否存在都回 202
// @Tags        passwords
// @Accept      json,application/x-www-form-urlencoded
// @Produce     json
// @Param       body body     api.EmailRequest true "Email"
// @Success     202  {object} dto.MessageResponse
// @Failure     400  {object} dto.ValidationError
// @Router      /iforgot [post]
func RequestPasswordResetHandler(a Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.EmailRequest
		if err := handler.BindAndValidate(c, &req); err != nil {
			return handler.RespondError(c, err)
		}
		_, err := a.RequestPasswordReset(c.Request().Context(), req.Email)
		return acceptRequest(c, "request password reset", err)
	}
}

// EditPasswordHandler 檢查 token 後回傳重設表單
// @Summary     Password reset form
// @Tags        passwords
// @Produce     json
// @Param       reset_password_token query    string true "reset token"
// @Success     200                  {object} dto.FormResponse
// @Failure     400                  {object} dto.HTTPError
// @Router      /iforgot/edit [get]
func EditPasswordHandler(a Authenticator) echo.HandlerFunc {
	form := handler.FormHandler(EditPasswordForm, "reset_password_token")
	return func(c echo.Context) error {
		if err := a.CheckPasswordResetToken(c.Request().Context(), c.QueryParam("reset_password_token")); err != nil {
			return handler.RespondError(c, err)
		}
		return form(c)
	}
}

// ResetPasswordHandler 以 token 設定新密碼，所有既有 session 失效
// @Summary     Reset password
// @Tags        passwords
// @Accept      json,application/x-www-form-urlencoded
// @Produce     json
// @Param       body body     api.ResetPasswordRequest true "token 與新密碼"
// @Success     200  {object} dto.MessageResponse
// @Failure     400  {object} dto.ValidationError
// @Router      /iforgot [put]
// @Router      /iforgot [patch]
func ResetPasswordHandler(a Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.ResetPasswordRequest
		if err := handler.BindAndValidate(c, &req); err != nil {
			return handler.RespondError(c, err)
		}
		err := a.CompletePasswordReset(c.Request().Context(), req.ResetPasswordToken, req.Password)
		if err != nil {
			return handler.RespondError(c, err)
		}
		return c.JSON(http.StatusOK, dto.MessageResponse{Message: "password updated, please sign in"})
	}
}

func tokenParam(c echo.Context, name string) (string, error) {
	token := c.QueryParam(name)
	if token == "" {
		return "", &apperror.AppError{Err: apperror.ErrTokenInvalid, Message: name + " is required", Field: name}
	}
	return token, nil
}
