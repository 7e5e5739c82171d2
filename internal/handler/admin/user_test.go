package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quill/internal/apperror"
	"quill/internal/database"
	"quill/internal/handler"
	"quill/internal/middleware"
	"quill/internal/model"
	"quill/internal/store"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func restore() {
	listUsers = store.ListUsers
	getUserByID = store.GetUserByID
	updateUser = store.UpdateUser
	setAdminFlag = store.SetAdminFlag
	deleteUser = store.DeleteUser
}

type revoker struct{ revoked []uuid.UUID }

func (r *revoker) RevokeSessions(_ context.Context, id uuid.UUID) error {
	r.revoked = append(r.revoked, id)
	return nil
}

var admin = &model.User{ID: uuid.New(), IsAdmin: true}

func newCtx(method, body, id string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = handler.NewValidator()
	req := httptest.NewRequest(method, "/admin/users", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	c.Set(middleware.ContextUserKey, admin)
	return c, rec
}

func TestListAndGetUsers(t *testing.T) {
	t.Cleanup(restore)
	bob := model.User{ID: uuid.New(), Email: "bob@example.com", EncryptedPassword: "secret-hash"}
	listUsers = func(_ context.Context, _ database.DB, limit, offset int) ([]model.User, error) {
		require.Equal(t, handler.DefaultPageSize, limit)
		return []model.User{bob}, nil
	}
	getUserByID = func(_ context.Context, _ database.DB, id uuid.UUID) (*model.User, error) {
		if id == bob.ID {
			u := bob
			return &u, nil
		}
		return nil, apperror.NotFound("user", id.String())
	}

	ctx, rec := newCtx(http.MethodGet, "", "")
	require.NoError(t, ListUsersHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "bob@example.com")
	require.NotContains(t, rec.Body.String(), "secret-hash")

	ctx, rec = newCtx(http.MethodGet, "", bob.ID.String())
	require.NoError(t, GetUserHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)

	ctx, rec = newCtx(http.MethodGet, "", uuid.NewString())
	require.NoError(t, GetUserHandler(nil)(ctx))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateUserHandler(t *testing.T) {
	t.Cleanup(restore)
	id := uuid.New()
	updateUser = func(_ context.Context, _ database.DB, got uuid.UUID, upd model.UserUpdate) (*model.User, error) {
		require.Equal(t, id, got)
		if upd.LockVersion != nil && *upd.LockVersion != 4 {
			return nil, apperror.Conflict("user", got.String())
		}
		return &model.User{ID: got, Email: *upd.Email, LockVersion: 5}, nil
	}

	ctx, rec := newCtx(http.MethodPatch, `{"email":"carol@example.com","lock_version":4}`, id.String())
	require.NoError(t, UpdateUserHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"lock_version":5`)

	ctx, rec = newCtx(http.MethodPatch, `{"email":"carol@example.com","lock_version":3}`, id.String())
	require.NoError(t, UpdateUserHandler(nil)(ctx))
	require.Equal(t, http.StatusConflict, rec.Code)

	ctx, rec = newCtx(http.MethodPatch, `{"email":"nope"}`, id.String())
	require.NoError(t, UpdateUserHandler(nil)(ctx))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetAdminHandler(t *testing.T) {
	t.Cleanup(restore)
	id := uuid.New()
	setAdminFlag = func(_ context.Context, _ database.DB, got uuid.UUID, isAdmin bool) (*model.User, error) {
		return &model.User{ID: got, IsAdmin: isAdmin}, nil
	}

	ctx, rec := newCtx(http.MethodPut, `{"isadmin":true}`, id.String())
	require.NoError(t, SetAdminHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"isadmin":true`)

	ctx, rec = newCtx(http.MethodPut, `{"isadmin":false}`, id.String())
	require.NoError(t, SetAdminHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"isadmin":false`)

	ctx, rec = newCtx(http.MethodPut, `{}`, id.String())
	require.NoError(t, SetAdminHandler(nil)(ctx))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), `"isadmin"`)
}

func TestDeleteUserHandler(t *testing.T) {
	t.Cleanup(restore)
	id := uuid.New()
	deleteUser = func(_ context.Context, _ database.DB, got uuid.UUID) error {
		if got != id {
			return apperror.NotFound("user", got.String())
		}
		return nil
	}
	r := &revoker{}

	ctx, rec := newCtx(http.MethodDelete, "", id.String())
	require.NoError(t, DeleteUserHandler(nil, r)(ctx))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, []uuid.UUID{id}, r.revoked)

	ctx, rec = newCtx(http.MethodDelete, "", uuid.NewString())
	require.NoError(t, DeleteUserHandler(nil, r)(ctx))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Len(t, r.revoked, 1)
}
