// Package posts serves blog posts. Reading is public, writing needs the author or an admin.
package posts

import (
	"net/http"

	"quill/internal/api"
	"quill/internal/authz"
	"quill/internal/database"
	"quill/internal/dto"
	"quill/internal/handler"
	"quill/internal/middleware"
	"quill/internal/model"
	"quill/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	createPost = store.CreatePost
	getPost    = store.GetPost
	listPosts  = store.ListPosts
	updatePost = store.UpdatePost
	deletePost = store.DeletePost
)

var PostForm = dto.FormResponse{
	Action: "/posts",
	Method: http.MethodPost,
	Fields: []dto.FormField{
		{Name: "title", Type: "text", Required: true},
		{Name: "body", Type: "textarea"},
	},
}

// @Summary     List posts
// @Tags        posts
// @Produce     json
// @Param       limit  query    int false "每頁筆數 (max 100)"
// @Param       offset query    int false "起始位置"
// @Success     200    {array}  dto.PostResponse
// @Failure     400    {object} dto.ValidationError
// @Router      /posts [get]
func ListPostsHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit, offset, err := handler.Pagination(c)
		if err != nil {
			return handler.RespondError(c, err)
		}
		posts, err := listPosts(c.Request().Context(), db, limit, offset)
		if err != nil {
			return handler.RespondError(c, err)
		}
		return c.JSON(http.StatusOK, dto.NewPostResponses(posts))
	}
}

// @Summary     Get a post
// @Tags        posts
// @Produce     json
// @Param       id  path     string true "文章 ID"
// @Success     200 {object} dto.PostResponse
// @Failure     404 {object} dto.HTTPError
// @Router      /posts/{id} [get]
func GetPostHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := handler.ParseID(c, "id")
		if err != nil {
			return handler.RespondError(c, err)
		}
		post, err := getPost(c.Request().Context(), db, id)
		if err != nil {
			return handler.RespondError(c, err)
		}
		return c.JSON(http.StatusOK, dto.NewPostResponse(post))
	}
}

// @Summary     Create a post
// @Tags        posts
// @Accept      json,application/x-www-form-urlencoded
// @Produce     json
// @Param       body body     api.PostRequest true "文章內容"
// @Success     201  {object} dto.PostResponse
// @Failure     400  {object} dto.ValidationError
// @Failure     401  {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /posts [post]
func CreatePostHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.PostRequest
		if err := handler.BindAndValidate(c, &req); err != nil {
			return handler.RespondError(c, err)
		}
		post, err := createPost(c.Request().Context(), db, &model.Post{
			AuthorID: middleware.CurrentUser(c).ID,
			Title:    req.Title,
			Body:     req.Body,
		})
		if err != nil {
			return handler.RespondError(c, err)
		}
		return c.JSON(http.StatusCreated, dto.NewPostResponse(post))
	}
}

// ownedPost 讀出文章並確認目前使用者可以修改
func ownedPost(c echo.Context, db database.DB) (*model.Post, error) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		return nil, err
	}
	post, err := getPost(c.Request().Context(), db, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwnerOrAdmin(middleware.CurrentUser(c), post.AuthorID); err != nil {
		return nil, err
	}
	return post, nil
}

// @Summary     Edit form for a post
// @Tags        posts
// @Produce     json
// @Param       id  path     string true "文章 ID"
// @Success     200 {object} dto.FormResponse
// @Failure     403 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /posts/{id}/edit [get]
func EditPostHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		post, err := ownedPost(c, db)
		if err != nil {
			return handler.RespondError(c, err)
		}
		return c.JSON(http.StatusOK, dto.FormResponse{
			Action: "/posts/" + post.ID.String(),
			Method: http.MethodPut,
			Fields: []dto.FormField{
				{Name: "title", Type: "text", Required: true, Value: post.Title},
				{Name: "body", Type: "textarea", Value: post.Body},
			},
		})
	}
}

// @Summary     Update a post
// @Tags        posts
// @Accept      json,application/x-www-form-urlencoded
// @Produce     json
// @Param       id   path     string          true "文章 ID"
// @Param       body body     api.PostRequest true "文章內容"
// @Success     200  {object} dto.PostResponse
// @Failure     400  {object} dto.ValidationError
// @Failure     403  {object} dto.HTTPError
// @Failure     404  {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /posts/{id} [put]
// @Router      /posts/{id} [patch]
func UpdatePostHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		post, err := ownedPost(c, db)
		if err != nil {
			return handler.RespondError(c, err)
		}
		var req api.PostRequest
		if err := handler.BindAndValidate(c, &req); err != nil {
			return handler.RespondError(c, err)
		}
		post.Title, post.Body = req.Title, req.Body
		updated, err := updatePost(c.Request().Context(), db, post)
		if err != nil {
			return handler.RespondError(c, err)
		}
		return c.JSON(http.StatusOK, dto.NewPostResponse(updated))
	}
}

// @Summary     Delete a post
// @Tags        posts
// @Param       id  path string true "文章 ID"
// @Success     204
// @Failure     403 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /posts/{id} [delete]
func DeletePostHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		post, err := ownedPost(c, db)
		if err != nil {
			return handler.RespondError(c, err)
		}
		if err := deletePost(c.Request().Context(), db, post.ID); err != nil {
			return handler.RespondError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
