package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/require"

	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/worker"
)

func restoreGlobals() {
	loadConfig = config.Load
	newPgxPool = database.NewPgxPool
	newRedisClient = cache.NewRedisClient
	runMigrationsFn = database.RunMigrations
	rollbackAllFn = database.RollbackAll
	startServer = func(e *echo.Echo, addr string) error { return e.Start(addr) }
	newWorkerPool = worker.NewPool
	exitFunc = func(code int) {}
}

func setEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "db")
	t.Setenv("REDIS_ADDR", "127")
	t.Setenv("REDIS_DB", "1")
	t.Setenv("REDIS_PASSWORD", "pw")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("WORKER_COUNT", "2")
}

type countingPool struct {
	worker.Pool
	stopped *bool
}

func (p countingPool) Stop() {
	*p.stopped = true
	p.Pool.Stop()
}

func TestRunSuccess(t *testing.T) {
	t.Cleanup(restoreGlobals)
	setEnv(t)
	called := make(map[string]bool)
	newPgxPool = func(ctx context.Context, url string) (database.DB, error) {
		called["pgx"] = true
		require.Equal(t, "db", url)
		return &database.FakeDB{CloseFn: func() { called["dbClose"] = true }}, nil
	}
	newRedisClient = func(addr, pwd string, db int) (cache.Cache, error) {
		called["redis"] = true
		require.Equal(t, "127", addr)
		require.Equal(t, "pw", pwd)
		require.Equal(t, 1, db)
		return &cache.FakeCache{CloseFn: func() error { called["redisClose"] = true; return nil }}, nil
	}
	runMigrationsFn = func(url string) error { called["migrate"] = true; return nil }
	stopped := false
	newWorkerPool = func(n int) worker.Pool {
		require.Equal(t, 2, n)
		return countingPool{Pool: worker.NewPool(n), stopped: &stopped}
	}
	startServer = func(e *echo.Echo, addr string) error {
		called["start"] = true
		require.Equal(t, ":9999", addr)

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/about", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
		return nil
	}

	require.NoError(t, run(nil))
	for _, k := range []string{"pgx", "redis", "migrate", "start", "dbClose", "redisClose"} {
		require.True(t, called[k], k)
	}
	require.True(t, stopped)
}

func TestRunRollback(t *testing.T) {
	t.Cleanup(restoreGlobals)
	setEnv(t)
	rolledBack := false
	rollbackAllFn = func(url string) error { rolledBack = true; return nil }
	newPgxPool = func(context.Context, string) (database.DB, error) {
		t.Fatal("rollback must not open the pool")
		return nil, nil
	}

	require.NoError(t, run([]string{"-rollback"}))
	require.True(t, rolledBack)

	rollbackAllFn = func(string) error { return errors.New("down failed") }
	require.Error(t, run([]string{"-rollback"}))
	require.Error(t, run([]string{"-unknown"}))
}

func TestRunErrors(t *testing.T) {
	t.Cleanup(restoreGlobals)
	setEnv(t)

	t.Setenv("DATABASE_URL", "")
	require.Error(t, run(nil))
	t.Setenv("DATABASE_URL", "db")
	t.Setenv("JWT_SECRET", "")
	require.Error(t, run(nil))
	t.Setenv("JWT_SECRET", "secret")

	newPgxPool = func(context.Context, string) (database.DB, error) { return nil, errors.New("db") }
	require.Error(t, run(nil))

	newPgxPool = func(context.Context, string) (database.DB, error) { return &database.FakeDB{CloseFn: func() {}}, nil }
	newRedisClient = func(string, string, int) (cache.Cache, error) { return nil, errors.New("redis") }
	require.Error(t, run(nil))

	newRedisClient = func(string, string, int) (cache.Cache, error) { return &cache.FakeCache{}, nil }
	runMigrationsFn = func(string) error { return errors.New("migrate") }
	require.Error(t, run(nil))

	runMigrationsFn = func(string) error { return nil }
	startServer = func(*echo.Echo, string) error { return errors.New("start") }
	require.Error(t, run(nil))
}

func TestNewEcho(t *testing.T) {
	e := newEcho(&config.Config{LogLevel: log.ERROR})
	require.NotNil(t, e.Validator)
	require.True(t, e.HideBanner)
}

func TestMainExit(t *testing.T) {
	t.Cleanup(restoreGlobals)
	exitCode := 0
	exitFunc = func(code int) { exitCode = code }
	loadConfig = func() (*config.Config, error) { return nil, errors.New("fail") }
	main()
	require.Equal(t, 1, exitCode)
}
