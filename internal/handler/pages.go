// File: internal/handler/pages.go
package handler

import (
	"net/http"

	"quill/internal/dto"

	"github.com/labstack/echo/v4"
)

var pages = map[string]dto.PageResponse{
	"home": {
		Page:  "home",
		Title: "Quill",
		Body:  "A small place to write. Browse /posts or sign in to start writing.",
	},
	"welcome": {
		Page:  "welcome",
		Title: "Welcome",
		Body:  "Your account is ready. Check your inbox to confirm your email address.",
	},
	"about": {
		Page:  "about",
		Title: "About",
		Body:  "Quill is a minimal blogging service with accounts, posts and an admin backend.",
	},
}

// PageHandler 靜態頁面
// @Summary     Static page
// @Tags        pages
// @Produce     json
// @Success     200 {object} dto.PageResponse
// @Router      /about [get]
// @Router      /welcome [get]
// @Router      / [get]
func PageHandler(name string) echo.HandlerFunc {
	page, ok := pages[name]
	return func(c echo.Context) error {
		if !ok {
			return c.JSON(http.StatusNotFound, dto.HTTPError{Message: "page not found"})
		}
		return c.JSON(http.StatusOK, page)
	}
}

// RedirectHandler 舊網址轉址
// @Summary     Redirect
// @Tags        pages
// @Success     302
// @Router      /users [get]
// @Router      /admin [get]
func RedirectHandler(to string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.Redirect(http.StatusFound, to)
	}
}

// FormHandler 回傳表單描述，GET 參數 prefill 指定的欄位會帶入 query 值
// @Summary     Form descriptor
// @Tags        pages
// @Produce     json
// @Param       email query    string false "預先帶入的 Email"
// @Success     200   {object} dto.FormResponse
// @Router      /signin [get]
// @Router      /signup [get]
// @Router      /iforgot/new [get]
// @Router      /verification/new [get]
// @Router      /unlock/new [get]
// @Router      /posts/new [get]
func FormHandler(form dto.FormResponse, prefill ...string) echo.HandlerFunc {
	return func(c echo.Context) error {
		out := form
		out.Fields = make([]dto.FormField, len(form.Fields))
		copy(out.Fields, form.Fields)
		for _, name := range prefill {
			v := c.QueryParam(name)
			if v == "" {
				continue
			}
			for i := range out.Fields {
				if out.Fields[i].Name == name {
					out.Fields[i].Value = v
				}
			}
		}
		return c.JSON(http.StatusOK, out)
	}
}
