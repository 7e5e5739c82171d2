// File: internal/handler/auth/unlocks.go
package auth

import (
	"net/http"

	"quill/internal/api"
	"quill/internal/dto"
	"quill/internal/handler"

	"github.com/labstack/echo/v4"
)

var NewUnlockForm = dto.FormResponse{
	Action: "/unlock",
	Method: http.MethodPost,
	Fields: []dto.FormField{{Name: "email", Type: "email", Required: true}},
}

// UnlockHandler 以 unlock token 解除鎖定
// @Summary     Unlock account
// @Tags        unlocks
// @Produce     json
// @Param       unlock_token query    string true "unlock token"
// @Success     200          {object} dto.UserResponse
// @Failure     400          {object} dto.HTTPError
// @Router      /unlock [get]
func UnlockHandler(a Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := tokenParam(c, "unlock_token")
		if err != nil {
			return handler.RespondError(c, err)
		}
		user, err := a.Unlock(c.Request().Context(), token)
		if err != nil {
			return handler.RespondError(c, err)
		}
		return c.JSON(http.StatusOK, dto.NewUserResponse(user))
	}
}

// ResendUnlockHandler 重寄解鎖信
// @Summary     Resend unlock instructions
// @Tags        unlocks
// @Accept      json,application/x-www-form-urlencoded
// @Produce     json
// @Param       body body     api.EmailRequest true "Email"
// @Success     202  {object} dto.MessageResponse
// @Failure     400  {object} dto.ValidationError
// @Router      /unlock [post]
func ResendUnlockHandler(a Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.EmailRequest
		if err := handler.BindAndValidate(c, &req); err != nil {
			return handler.RespondError(c, err)
		}
		_, err := a.RequestUnlock(c.Request().Context(), req.Email)
		return acceptRequest(c, "resend unlock", err)
	}
}
