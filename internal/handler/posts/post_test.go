package posts

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
	createPost = store.CreatePost
	getPost = store.GetPost
	listPosts = store.ListPosts
	updatePost = store.UpdatePost
	deletePost = store.DeletePost
}

func newCtx(method, target, body string, user *model.User, id string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = handler.NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	if user != nil {
		c.Set(middleware.ContextUserKey, user)
	}
	return c, rec
}

func TestListAndGet(t *testing.T) {
	t.Cleanup(restore)
	post := model.Post{ID: uuid.New(), AuthorID: uuid.New(), Title: "Hello"}
	var gotLimit, gotOffset int
	listPosts = func(_ context.Context, _ database.DB, limit, offset int) ([]model.Post, error) {
		gotLimit, gotOffset = limit, offset
		return []model.Post{post}, nil
	}
	getPost = func(_ context.Context, _ database.DB, id uuid.UUID) (*model.Post, error) {
		if id == post.ID {
			p := post
			return &p, nil
		}
		return nil, apperror.NotFound("post", id.String())
	}

	ctx, rec := newCtx(http.MethodGet, "/posts?limit=5&offset=10", "", nil, "")
	require.NoError(t, ListPostsHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 5, gotLimit)
	require.Equal(t, 10, gotOffset)
	require.Contains(t, rec.Body.String(), `"title":"Hello"`)

	ctx, rec = newCtx(http.MethodGet, "/posts?limit=-1", "", nil, "")
	require.NoError(t, ListPostsHandler(nil)(ctx))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	ctx, rec = newCtx(http.MethodGet, "/", "", nil, post.ID.String())
	require.NoError(t, GetPostHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)

	ctx, rec = newCtx(http.MethodGet, "/", "", nil, uuid.NewString())
	require.NoError(t, GetPostHandler(nil)(ctx))
	require.Equal(t, http.StatusNotFound, rec.Code)

	ctx, rec = newCtx(http.MethodGet, "/", "", nil, "42")
	require.NoError(t, GetPostHandler(nil)(ctx))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePostHandler(t *testing.T) {
	t.Cleanup(restore)
	author := &model.User{ID: uuid.New()}
	var got *model.Post
	createPost = func(_ context.Context, _ database.DB, p *model.Post) (*model.Post, error) {
		got = p
		out := *p
		out.ID = uuid.New()
		return &out, nil
	}

	ctx, rec := newCtx(http.MethodPost, "/posts", `{"title":"Hi","body":"there"}`, author, "")
	require.NoError(t, CreatePostHandler(nil)(ctx))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, author.ID, got.AuthorID)

	ctx, rec = newCtx(http.MethodPost, "/posts", `{"body":"no title"}`, author, "")
	require.NoError(t, CreatePostHandler(nil)(ctx))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), `"title"`)
}

func TestOwnerOrAdmin(t *testing.T) {
	t.Cleanup(restore)
	owner := &model.User{ID: uuid.New()}
	stranger := &model.User{ID: uuid.New()}
	admin := &model.User{ID: uuid.New(), IsAdmin: true}
	post := model.Post{ID: uuid.New(), AuthorID: owner.ID, Title: "Mine"}

	getPost = func(context.Context, database.DB, uuid.UUID) (*model.Post, error) {
		p := post
		return &p, nil
	}
	updatePost = func(_ context.Context, _ database.DB, p *model.Post) (*model.Post, error) {
		return p, nil
	}
	deleted := 0
	deletePost = func(context.Context, database.DB, uuid.UUID) error {
		deleted++
		return nil
	}

	tests := []struct {
		name   string
		user   *model.User
		h      echo.HandlerFunc
		method string
		body   string
		status int
	}{
		{"owner edits", owner, EditPostHandler(nil), http.MethodGet, "", http.StatusOK},
		{"stranger edits", stranger, EditPostHandler(nil), http.MethodGet, "", http.StatusForbidden},
		{"owner updates", owner, UpdatePostHandler(nil), http.MethodPut, `{"title":"New"}`, http.StatusOK},
		{"admin updates", admin, UpdatePostHandler(nil), http.MethodPatch, `{"title":"New"}`, http.StatusOK},
		{"stranger updates", stranger, UpdatePostHandler(nil), http.MethodPut, `{"title":"New"}`, http.StatusForbidden},
		{"stranger deletes", stranger, DeletePostHandler(nil), http.MethodDelete, "", http.StatusForbidden},
		{"admin deletes", admin, DeletePostHandler(nil), http.MethodDelete, "", http.StatusNoContent},
		{"owner deletes", owner, DeletePostHandler(nil), http.MethodDelete, "", http.StatusNoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx, rec := newCtx(tc.method, "/", tc.body, tc.user, post.ID.String())
			require.NoError(t, tc.h(ctx))
			require.Equal(t, tc.status, rec.Code)
		})
	}
	require.Equal(t, 2, deleted)
}
