// File: internal/service/session.go
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"quill/internal/apperror"
	"quill/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const issuer = "quill"

var (
	randRead        = rand.Read
	jsonMarshal     = json.Marshal
	jsonUnmarshal   = json.Unmarshal
	parseWithClaims = jwt.ParseWithClaims
)

// SessionClaims JWT 負載只帶 session id 與使用者 id，不快取管理員旗標
type SessionClaims struct {
	jwt.RegisteredClaims
}

// Session 登入成功後回給用戶端的憑證
type Session struct {
	Token     string      `json:"access_token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"-"`
}

type sessionRecord struct {
	UserID     uuid.UUID `json:"user_id"`
	Generation int64     `json:"generation"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func sessionKey(id string) string {
	return "session:" + id
}

func generationKey(userID uuid.UUID) string {
	return "user:" + userID.String() + ":session_gen"
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := randRead(b); err != nil {
		return "", fmt.Errorf("random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (a *Authenticator) generation(ctx context.Context, userID uuid.UUID) (int64, error) {
	v, err := a.cache.Get(ctx, generationKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("session generation: %w", err)
	}
	return strconv.ParseInt(v, 10, 64)
}

// RevokeSessions 讓使用者目前所有 session 失效
func (a *Authenticator) RevokeSessions(ctx context.Context, userID uuid.UUID) error {
	if err := a.cache.Incr(ctx, generationKey(userID)).Err(); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}

// IssueSession 發出有時效的 session token，並在 redis 留下對應紀錄
func (a *Authenticator) IssueSession(ctx context.Context, user *model.User) (*Session, error) {
	id, err := randomToken()
	if err != nil {
		return nil, err
	}
	gen, err := a.generation(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	now := a.now()
	expiresAt := now.Add(a.opts.SessionTTL).Truncate(time.Second)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.opts.Secret)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}

	data, err := jsonMarshal(sessionRecord{
		UserID:     user.ID,
		Generation: gen,
		IssuedAt:   now,
		ExpiresAt:  expiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	// 紀錄多留一個 TTL，過期後仍能回報 SessionExpired 而不是 SessionInvalid
	if err := a.cache.Set(ctx, sessionKey(id), data, 2*a.opts.SessionTTL).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &Session{Token: signed, ExpiresAt: expiresAt, User: user}, nil
}

func (a *Authenticator) parseSession(token string, validateClaims bool) (*SessionClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
	}
	if !validateClaims {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	claims := &SessionClaims{}
	tok, err := parseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.opts.Secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.ErrSessionExpired
		}
		return nil, apperror.ErrSessionInvalid
	}
	if tok == nil || !tok.Valid || claims.ID == "" {
		return nil, apperror.ErrSessionInvalid
	}
	return claims, nil
}

// ValidateSession 回傳 session 所屬使用者；使用者資料每次都重新讀取
func (a *Authenticator) ValidateSession(ctx context.Context, token string) (*model.User, error) {
	claims, err := a.parseSession(token, true)
	if err != nil {
		return nil, err
	}

	raw, err := a.cache.Get(ctx, sessionKey(claims.ID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrSessionInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var rec sessionRecord
	if err := jsonUnmarshal(raw, &rec); err != nil {
		return nil, apperror.ErrSessionInvalid
	}
	if rec.UserID.String() != claims.Subject {
		return nil, apperror.ErrSessionInvalid
	}
	if !a.now().Before(rec.ExpiresAt) {
		return nil, apperror.ErrSessionExpired
	}

	gen, err := a.generation(ctx, rec.UserID)
	if err != nil {
		return nil, err
	}
	if gen != rec.Generation {
		return nil, apperror.ErrSessionInvalid
	}

	user, err := getUserByID(ctx, a.db, rec.UserID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.ErrSessionInvalid
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SignOut 刪除 session 紀錄；已過期的 token 也能登出
func (a *Authenticator) SignOut(ctx context.Context, token string) error {
	claims, err := a.parseSession(token, false)
	if err != nil {
		return err
	}
	if err := a.cache.Del(ctx, sessionKey(claims.ID)).Err(); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}
