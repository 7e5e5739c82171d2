package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quill/internal/cache"
	"quill/internal/database"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestPingHandler(t *testing.T) {
	cases := []struct {
		name     string
		pingErr  error
		setErr   error
		wantCode int
		wantBody string
		wantSet  bool
	}{
		{name: "healthy", wantCode: http.StatusOK, wantBody: "pong", wantSet: true},
		{name: "database down", pingErr: errors.New("conn refused"), wantCode: http.StatusInternalServerError, wantBody: "database unhealthy"},
		{name: "redis down", setErr: errors.New("READONLY"), wantCode: http.StatusInternalServerError, wantBody: "cache unhealthy", wantSet: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setCalled := false
			db := &database.FakeDB{PingFn: func(context.Context) error { return tc.pingErr }}
			c := &cache.FakeCache{SetFn: func(_ context.Context, key string, val any, ttl time.Duration) *redis.StatusCmd {
				setCalled = true
				require.Equal(t, "ping", key)
				require.Equal(t, time.Second, ttl)
				return redis.NewStatusResult("OK", tc.setErr)
			}}

			rec := httptest.NewRecorder()
			ctx := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/ping", nil), rec)
			require.NoError(t, PingHandler(db, c)(ctx))
			require.Equal(t, tc.wantCode, rec.Code)
			require.Contains(t, rec.Body.String(), tc.wantBody)
			require.Equal(t, tc.wantSet, setCalled)
		})
	}
}
