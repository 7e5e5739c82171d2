// Package admin is the user administration backend. Every route sits behind RequireAuth and RequireAdmin.
package admin

import (
	"context"
	"net/http"

	"quill/internal/api"
	"quill/internal/database"
	"quill/internal/dto"
	"quill/internal/handler"
	"quill/internal/middleware"
	"quill/internal/model"
	"quill/internal/store"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var (
	listUsers    = store.ListUsers
	getUserByID  = store.GetUserByID
	updateUser   = store.UpdateUser
	setAdminFlag = store.SetAdminFlag
	deleteUser   = store.DeleteUser
)

// SessionRevoker 刪除使用者後讓他的 session 立即失效
type SessionRevoker interface {
	RevokeSessions(ctx context.Context, userID uuid.UUID) error
}

// @Summary     List users
// @Tags        admin
// @Produce     json
// @Param       limit  query    int false "每頁筆數 (max 100)"
// @Param       offset query    int false "起始位置"
// @Success     200    {array}  dto.UserResponse
// @Failure     401    {object} dto.HTTPError
// @Failure     403    {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /admin/users [get]
func ListUsersHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit, offset, err := handler.Pagination(c)
		if err != nil {
			return handler.RespondError(c, err)
		}
		users, err := listUsers(c.Request().Context(), db, limit, offset)
		if err != nil {
			return handler.RespondError(c, err)
		}
		return c.JSON(http.StatusOK, dto.NewUserResponses(users))
	}
}

// @Summary     Get a user by ID
// @Tags        admin
// @Produce     json
// @Param       id  path     string true "使用者 ID"
// @Success     200 {object} dto.UserResponse
// @Failure     400 {object} dto.ValidationError
// @Failure     404 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /admin/users/{id} [get]
func GetUserHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := handler.ParseID(c, "id")
		if err != nil {
			return handler.RespondError(c, err)
		}
		user, err := getUserByID(c.Request().Context(), db, id)
		if err != nil {
			return handler.RespondError(c, err)
		}
		return c.JSON(http.StatusOK, dto.NewUserResponse(user))
	}
}

// @Summary     Update a user by ID
// @Description 部分更新；帶 lock_version 時版本不符回 409
// @Tags        admin
// @Accept      json
// @Produce     json
// @Param       id   path     string                     true "使用者 ID"
// @Param       body body     api.AdminUpdateUserRequest true "欲更新的欄位"
// @Success     200  {object} dto.UserResponse
// @Failure     400  {object} dto.ValidationError
// @Failure     404  {object} dto.HTTPError
// @Failure     409  {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /admin/users/{id} [put]
// @Router      /admin/users/{id} [patch]
func UpdateUserHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := handler.ParseID(c, "id")
		if err != nil {
			return handler.RespondError(c, err)
		}
		var req api.AdminUpdateUserRequest
		if err := handler.BindAndValidate(c, &req); err != nil {
			return handler.RespondError(c, err)
		}
		user, err := updateUser(c.Request().Context(), db, id, model.UserUpdate{
			Email:       req.Email,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			LockVersion: req.LockVersion,
		})
		if err != nil {
			return handler.RespondError(c, err)
		}
		return c.JSON(http.StatusOK, dto.NewUserResponse(user))
	}
}

// @Summary     Grant or revoke admin
// @Description 立即生效，不需要對方重新登入
// @Tags        admin
// @Accept      json
// @Produce     json
// @Param       id   path     string              true "使用者 ID"
// @Param       body body     api.SetAdminRequest true "isadmin"
// @Success     200  {object} dto.UserResponse
// @Failure     400  {object} dto.ValidationError
// @Failure     404  {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /admin/users/{id}/admin [put]
func SetAdminHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := handler.ParseID(c, "id")
		if err != nil {
			return handler.RespondError(c, err)
		}
		var req api.SetAdminRequest
		if err := handler.BindAndValidate(c, &req); err != nil {
			return handler.RespondError(c, err)
		}
		user, err := setAdminFlag(c.Request().Context(), db, id, *req.IsAdmin)
		if err != nil {
			return handler.RespondError(c, err)
		}
		c.Logger().Infof("admin: %s set isadmin=%t on %s", middleware.CurrentUser(c).ID, user.IsAdmin, user.ID)
		return c.JSON(http.StatusOK, dto.NewUserResponse(user))
	}
}

// @Summary     Delete a user by ID
// @Description 文章一併刪除，session 全數失效
// @Tags        admin
// @Param       id  path string true "使用者 ID"
// @Success     204
// @Failure     404 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /admin/users/{id} [delete]
func DeleteUserHandler(db database.DB, sessions SessionRevoker) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := handler.ParseID(c, "id")
		if err != nil {
			return handler.RespondError(c, err)
		}
		if err := deleteUser(c.Request().Context(), db, id); err != nil {
			return handler.RespondError(c, err)
		}
		if err := sessions.RevokeSessions(c.Request().Context(), id); err != nil {
			c.Logger().Errorf("admin: revoke sessions of %s: %v", id, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
