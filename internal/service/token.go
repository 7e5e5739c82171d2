// File: internal/service/token.go
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"quill/internal/apperror"
	"quill/internal/notify"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// 一次性 token 只存摘要，redis 外洩也拿不到可用的 token
type tokenRecord struct {
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func tokenKey(kind notify.Kind, token string) string {
	sum := sha256.Sum256([]byte(token))
	return "token:" + string(kind) + ":" + hex.EncodeToString(sum[:])
}

func latestTokenKey(kind notify.Kind, userID uuid.UUID) string {
	return "token:" + string(kind) + ":user:" + userID.String()
}

// issueToken 同一使用者同一用途只保留最新一張 token
func (a *Authenticator) issueToken(ctx context.Context, kind notify.Kind, userID uuid.UUID, ttl time.Duration) (string, time.Time, error) {
	token, err := randomToken()
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := a.now().Add(ttl)
	data, err := jsonMarshal(tokenRecord{UserID: userID, ExpiresAt: expiresAt})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("encode %s token: %w", kind, err)
	}

	latest := latestTokenKey(kind, userID)
	prev, err := a.cache.Get(ctx, latest).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", time.Time{}, fmt.Errorf("load %s token: %w", kind, err)
	}
	if prev != "" {
		if err := a.cache.Del(ctx, prev).Err(); err != nil {
			return "", time.Time{}, fmt.Errorf("drop %s token: %w", kind, err)
		}
	}

	key := tokenKey(kind, token)
	if err := a.cache.Set(ctx, key, data, 2*ttl).Err(); err != nil {
		return "", time.Time{}, fmt.Errorf("store %s token: %w", kind, err)
	}
	if err := a.cache.Set(ctx, latest, key, 2*ttl).Err(); err != nil {
		return "", time.Time{}, fmt.Errorf("store %s token: %w", kind, err)
	}
	return token, expiresAt, nil
}

func (a *Authenticator) decodeToken(raw []byte) (*tokenRecord, error) {
	var rec tokenRecord
	if err := jsonUnmarshal(raw, &rec); err != nil {
		return nil, apperror.ErrTokenInvalid
	}
	if !a.now().Before(rec.ExpiresAt) {
		return nil, apperror.ErrTokenExpired
	}
	return &rec, nil
}

// consumeToken 以 GETDEL 取出 token，第二次使用必定得到 ErrTokenInvalid
func (a *Authenticator) consumeToken(ctx context.Context, kind notify.Kind, token string) (*tokenRecord, error) {
	if token == "" {
		return nil, apperror.ErrTokenInvalid
	}
	raw, err := a.cache.GetDel(ctx, tokenKey(kind, token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrTokenInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("consume %s token: %w", kind, err)
	}
	return a.decodeToken(raw)
}

func (a *Authenticator) peekToken(ctx context.Context, kind notify.Kind, token string) (*tokenRecord, error) {
	if token == "" {
		return nil, apperror.ErrTokenInvalid
	}
	raw, err := a.cache.Get(ctx, tokenKey(kind, token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrTokenInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("load %s token: %w", kind, err)
	}
	return a.decodeToken(raw)
}
