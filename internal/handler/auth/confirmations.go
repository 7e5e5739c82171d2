// File: internal/handler/auth/confirmations.go
package auth

import (
	"net/http"

	"quill/internal/api"
	"quill/internal/dto"
	"quill/internal/handler"

	"github.com/labstack/echo/v4"
)

var NewConfirmationForm = dto.FormResponse{
	Action: "/verification",
	Method: http.MethodPost,
	Fields: []dto.FormField{{Name: "email", Type: "email", Required: true}},
}

// ConfirmHandler 完成 Email 驗證
// @Summary     Confirm email
// @Tags        confirmations
// @Produce     json
// @Param       confirmation_token query    string true "confirmation token"
// @Success     200                {object} dto.UserResponse
// @Failure     400                {object} dto.HTTPError
// @Router      /verification [get]
func ConfirmHandler(a Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := tokenParam(c, "confirmation_token")
		if err != nil {
			return handler.RespondError(c, err)
		}
		user, err := a.Confirm(c.Request().Context(), token)
		if err != nil {
			return handler.RespondError(c, err)
		}
		return c.JSON(http.StatusOK, dto.NewUserResponse(user))
	}
}

// ResendConfirmationHandler 重寄驗證信
// @Summary     Resend confirmation
// @Tags        confirmations
// @Accept      json,application/x-www-form-urlencoded
// @Produce     json
// @Param       body body     api.EmailRequest true "Email"
// @Success     202  {object} dto.MessageResponse
// @Failure     400  {object} dto.ValidationError
// @Router      /verification [post]
func ResendConfirmationHandler(a Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.EmailRequest
		if err := handler.BindAndValidate(c, &req); err != nil {
			return handler.RespondError(c, err)
		}
		_, err := a.RequestConfirmation(c.Request().Context(), req.Email)
		return acceptRequest(c, "resend confirmation", err)
	}
}
