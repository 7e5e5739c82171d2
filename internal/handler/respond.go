// File: internal/handler/respond.go
package handler

import (
	"errors"
	"net/http"

	"quill/internal/apperror"
	"quill/internal/dto"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var errInvalidBody = &apperror.AppError{Err: apperror.ErrValidation, Message: "invalid request body"}

// BindAndValidate 先 Bind 再交給 validator
func BindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errInvalidBody
	}
	return c.Validate(req)
}

// ValidationFields 把 validator 的錯誤轉成 欄位 -> 原因
func ValidationFields(err error) map[string]string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		field := fe.Field()
		if _, seen := fields[field]; seen {
			continue
		}
		switch fe.Tag() {
		case "required":
			fields[field] = "this field is required"
		case "email":
			fields[field] = "invalid email format"
		case "min":
			fields[field] = "value is too short, min: " + fe.Param()
		case "max":
			fields[field] = "value is too long, max: " + fe.Param()
		case "eqfield":
			fields[field] = "does not match " + fe.Param()
		default:
			fields[field] = "invalid value"
		}
	}
	return fields
}

// RespondError 依錯誤種類決定狀態碼；500 只記 log，不把內部錯誤回給用戶端
func RespondError(c echo.Context, err error) error {
	if fields := ValidationFields(err); fields != nil {
		return c.JSON(http.StatusBadRequest, dto.ValidationError{
			Message: apperror.ErrValidation.Error(),
			Fields:  fields,
		})
	}

	status := apperror.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		c.Logger().Errorf("%s %s [%s]: %v",
			c.Request().Method, c.Path(), c.Response().Header().Get(echo.HeaderXRequestID), err)
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "" {
		return c.JSON(status, dto.ValidationError{
			Message: appErr.Message,
			Fields:  map[string]string{appErr.Field: appErr.Message},
		})
	}
	return c.JSON(status, dto.HTTPError{Message: apperror.Message(err)})
}
