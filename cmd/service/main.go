// File: cmd/service/main.go
// @title        Quill API
// @version      1.0
// @description  Quill 的帳號、權限與文章 API；頁面與表單以 JSON 描述
// @host         localhost:8080
// @BasePath     /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/handler"
	"quill/internal/notify"
	"quill/internal/router"
	"quill/internal/service"
	"quill/internal/worker"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/rs/xid"

	_ "quill/docs" // 引入 swag 產出的 docs

	echoSwagger "github.com/swaggo/echo-swagger"
)

var (
	loadConfig      = config.Load
	newPgxPool      = database.NewPgxPool
	newRedisClient  = cache.NewRedisClient
	runMigrationsFn = database.RunMigrations
	rollbackAllFn   = database.RollbackAll
	startServer     = func(e *echo.Echo, addr string) error { return e.Start(addr) }
	newWorkerPool   = worker.NewPool
	exitFunc        = os.Exit
)

func newEcho(cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Logger.SetLevel(cfg.LogLevel)
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return xid.New().String() },
	}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	return e
}

func run(args []string) error {
	fs := flag.NewFlagSet("quill", flag.ContinueOnError)
	rollback := fs.Bool("rollback", false, "回滾所有 migration 後結束")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log.SetLevel(cfg.LogLevel)

	if *rollback {
		if err := rollbackAllFn(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("RollbackAll 失敗: %v", err)
		}
		log.Info("所有 migration 已回滾")
		return nil
	}

	db, err := newPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("DB 連線失敗: %v", err)
	}
	defer db.Close()

	redis, err := newRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("Redis 連線失敗: %v", err)
	}
	defer redis.Close()

	if err := runMigrationsFn(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("Migration 執行失敗: %v", err)
	}

	wp := newWorkerPool(cfg.WorkerCount)
	defer wp.Stop()

	notifier := notify.NewPoolNotifier(wp, notify.LogDeliverer)
	auth := service.NewAuthenticator(db, redis, notifier, cfg.AuthOptions())

	e := newEcho(cfg)
	router.Setup(e, db, redis, auth, cfg.SignInRateLimit)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	log.Infof("listening on %s (%d workers)", cfg.HTTPAddr, cfg.WorkerCount)
	return startServer(e, cfg.HTTPAddr)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Error(err)
		exitFunc(1)
	}
}
