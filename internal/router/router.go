// File: internal/router/router.go
package router

import (
	"time"

	"quill/internal/authz"
	"quill/internal/cache"
	"quill/internal/database"
	"quill/internal/handler"
	"quill/internal/handler/admin"
	"quill/internal/handler/auth"
	"quill/internal/handler/posts"
	"quill/internal/handler/users"
	"quill/internal/middleware"
	"quill/internal/service"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// signInLimiter 以 IP 為單位限制登入頻率；r <= 0 時不限制
func signInLimiter(r float64) []echo.MiddlewareFunc {
	if r <= 0 {
		return nil
	}
	burst := int(r)
	if burst < 1 {
		burst = 1
	}
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(r),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return []echo.MiddlewareFunc{echomw.RateLimiter(store)}
}

// Setup 註冊所有路由與中介層
func Setup(e *echo.Echo, db database.DB, c cache.Cache, a *service.Authenticator, signInRate float64) {
	guard := authz.NewGuard(a)
	requireAuth := middleware.RequireAuth(guard)

	// 健康檢查
	e.GET("/ping", handler.PingHandler(db, c))

	// 靜態頁面
	e.GET("/", handler.PageHandler("home"))
	e.GET("/about", handler.PageHandler("about"))
	e.GET("/welcome", handler.PageHandler("welcome"))
	e.GET("/users", handler.RedirectHandler("/signin"))

	// 登入登出
	e.GET("/signin", handler.FormHandler(auth.SignInForm, "email"))
	e.POST("/signin", auth.SignInHandler(a), signInLimiter(signInRate)...)
	e.DELETE("/signout", auth.SignOutHandler(a))
	e.GET("/signout", auth.SignOutHandler(a))

	// 忘記密碼
	e.GET("/iforgot/new", handler.FormHandler(auth.NewPasswordForm, "email"))
	e.GET("/iforgot/edit", auth.EditPasswordHandler(a))
	e.POST("/iforgot", auth.RequestPasswordResetHandler(a))
	e.PUT("/iforgot", auth.ResetPasswordHandler(a))
	e.PATCH("/iforgot", auth.ResetPasswordHandler(a))

	// Email 驗證
	e.GET("/verification/new", handler.FormHandler(auth.NewConfirmationForm, "email"))
	e.GET("/verification", auth.ConfirmHandler(a))
	e.POST("/verification", auth.ResendConfirmationHandler(a))

	// 帳號解鎖
	e.GET("/unlock/new", handler.FormHandler(auth.NewUnlockForm, "email"))
	e.GET("/unlock", auth.UnlockHandler(a))
	e.POST("/unlock", auth.ResendUnlockHandler(a))

	// 註冊與個人資料
	e.GET("/signup", handler.FormHandler(users.RegistrationForm, "email"))
	e.POST("/", users.CreateRegistrationHandler(a))
	e.GET("/edit", users.EditRegistrationHandler(), requireAuth)
	e.PUT("/", users.UpdateRegistrationHandler(a), requireAuth)
	e.PATCH("/", users.UpdateRegistrationHandler(a), requireAuth)
	e.DELETE("/", users.DestroyRegistrationHandler(a), requireAuth)
	e.GET("/cancel", users.CancelHandler(a))

	// 文章：讀取公開，新增需登入，修改刪除限作者或管理員
	p := e.Group("/posts")
	p.GET("", posts.ListPostsHandler(db))
	p.GET("/new", handler.FormHandler(posts.PostForm), requireAuth)
	p.GET("/:id", posts.GetPostHandler(db))
	p.GET("/:id/edit", posts.EditPostHandler(db), requireAuth)
	p.POST("", posts.CreatePostHandler(db), requireAuth)
	p.PUT("/:id", posts.UpdatePostHandler(db), requireAuth)
	p.PATCH("/:id", posts.UpdatePostHandler(db), requireAuth)
	p.DELETE("/:id", posts.DeletePostHandler(db), requireAuth)

	// 管理員後台，先驗證身分再檢查 isadmin
	adminOnly := []echo.MiddlewareFunc{requireAuth, middleware.RequireAdmin}
	e.GET("/admin", handler.RedirectHandler("/admin/users"), adminOnly...)
	u := e.Group("/admin/users")
	u.GET("", admin.ListUsersHandler(db), adminOnly...)
	u.GET("/:id", admin.GetUserHandler(db), adminOnly...)
	u.PUT("/:id", admin.UpdateUserHandler(db), adminOnly...)
	u.PATCH("/:id", admin.UpdateUserHandler(db), adminOnly...)
	u.PUT("/:id/admin", admin.SetAdminHandler(db), adminOnly...)
	u.DELETE("/:id", admin.DeleteUserHandler(db, a), adminOnly...)
}

