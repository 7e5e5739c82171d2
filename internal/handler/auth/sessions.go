// File: internal/handler/auth/sessions.go
package auth

import (
	"net/http"

	"quill/internal/api"
	"quill/internal/dto"
	"quill/internal/handler"
	"quill/internal/middleware"

	"github.com/labstack/echo/v4"
)

var SignInForm = dto.FormResponse{
	Action: "/signin",
	Method: http.MethodPost,
	Fields: []dto.FormField{
		{Name: "email", Type: "email", Required: true},
		{Name: "password", Type: "password", Required: true},
	},
}

// SignInHandler 使用 Email/Password 驗證並回傳 session token
// @Summary     Sign in
// @Description 驗證帳密後回傳 Bearer token 與到期時間；帳號鎖定、密碼錯誤、帳號不存在一律回 401
// @Tags        auth
// @Accept      json,application/x-www-form-urlencoded
// @Produce     json
// @Param       body body     api.SignInRequest true "帳密"
// @Success     200  {object} dto.SessionResponse
// @Failure     400  {object} dto.ValidationError
// @Failure     401  {object} dto.HTTPError
// @Failure     429  {object} dto.HTTPError
// @Failure     500  {object} dto.HTTPError
// @Router      /signin [post]
func SignInHandler(a Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.SignInRequest
		if err := handler.BindAndValidate(c, &req); err != nil {
			return handler.RespondError(c, err)
		}
		session, err := a.Authenticate(c.Request().Context(), req.Email, req.Password)
		if err != nil {
			return handler.RespondError(c, err)
		}
		return c.JSON(http.StatusOK, sessionResponse(session))
	}
}

// SignOutHandler 刪除目前的 session；已過期的 token 也可以登出
// @Summary     Sign out
// @Tags        auth
// @Produce     json
// @Success     204
// @Failure     401 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /signout [delete]
// @Router      /signout [get]
func SignOutHandler(a Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := middleware.BearerToken(c)
		if err != nil {
			return err
		}
		if err := a.SignOut(c.Request().Context(), token); err != nil {
			return handler.RespondError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
