package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"quill/internal/apperror"
	"quill/internal/cache"
	"quill/internal/notify"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestIssueTokenStoresDigest(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id := uuid.New()

	token, expiresAt, err := f.auth.issueToken(ctx, notify.KindPasswordReset, id, 30*time.Minute)
	require.NoError(t, err)
	require.Equal(t, f.clock.Now().Add(30*time.Minute), expiresAt)

	key := tokenKey(notify.KindPasswordReset, token)
	require.Equal(t, time.Hour, f.ttls[key])
	for k := range f.ttls {
		require.False(t, strings.Contains(k, token), "raw token leaked into key %q", k)
	}

	// 不同用途的 token 不能互用
	_, err = f.auth.consumeToken(ctx, notify.KindUnlock, token)
	require.ErrorIs(t, err, apperror.ErrTokenInvalid)

	rec, err := f.auth.peekToken(ctx, notify.KindPasswordReset, token)
	require.NoError(t, err)
	require.Equal(t, id, rec.UserID)

	rec, err = f.auth.consumeToken(ctx, notify.KindPasswordReset, token)
	require.NoError(t, err)
	require.Equal(t, id, rec.UserID)
}

func TestTokenCacheErrors(t *testing.T) {
	boom := errors.New("redis down")
	c := &cache.FakeCache{
		GetFn: func(context.Context, string) *redis.StringCmd {
			return redis.NewStringResult("", boom)
		},
		GetDelFn: func(context.Context, string) *redis.StringCmd {
			return redis.NewStringResult("", boom)
		},
	}
	a := NewAuthenticator(nil, c, nil, Options{Secret: []byte("s")})
	ctx := context.Background()

	_, _, err := a.issueToken(ctx, notify.KindUnlock, uuid.New(), time.Minute)
	require.ErrorIs(t, err, boom)
	_, err = a.consumeToken(ctx, notify.KindUnlock, "token")
	require.ErrorIs(t, err, boom)
	_, err = a.peekToken(ctx, notify.KindUnlock, "token")
	require.ErrorIs(t, err, boom)
}

func TestCorruptTokenRecord(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	require.NoError(t, f.auth.cache.Set(ctx, tokenKey(notify.KindConfirmation, "abc"), "{", time.Minute).Err())

	_, err := f.auth.consumeToken(ctx, notify.KindConfirmation, "abc")
	require.ErrorIs(t, err, apperror.ErrTokenInvalid)
}
