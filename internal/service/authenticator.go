// File: internal/service/authenticator.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"quill/internal/apperror"
	"quill/internal/cache"
	"quill/internal/database"
	"quill/internal/model"
	"quill/internal/notify"
	"quill/internal/store"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"golang.org/x/crypto/bcrypt"
)

var (
	createUser          = store.CreateUser
	getUserByID         = store.GetUserByID
	getUserByEmail      = store.GetUserByEmail
	updateUser          = store.UpdateUser
	updateUserPassword  = store.UpdateUserPassword
	confirmUser         = store.ConfirmUser
	recordFailedAttempt = store.RecordFailedAttempt
	unlockUser          = store.UnlockUser
	deleteUser          = store.DeleteUser
)

// Options 認證相關的時效與政策
type Options struct {
	Secret            []byte
	SessionTTL        time.Duration
	ResetTokenTTL     time.Duration
	ConfirmTokenTTL   time.Duration
	UnlockTokenTTL    time.Duration
	MaxFailedAttempts int
	// UnlockAfter <= 0 表示只能透過 unlock token 解鎖
	UnlockAfter       time.Duration
	BcryptCost        int
	MinPasswordLength int
}

func DefaultOptions() Options {
	return Options{
		SessionTTL:        24 * time.Hour,
		ResetTokenTTL:     6 * time.Hour,
		ConfirmTokenTTL:   72 * time.Hour,
		UnlockTokenTTL:    time.Hour,
		MaxFailedAttempts: 5,
		UnlockAfter:       time.Hour,
		BcryptCost:        bcrypt.DefaultCost,
		MinPasswordLength: 8,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SessionTTL <= 0 {
		o.SessionTTL = d.SessionTTL
	}
	if o.ResetTokenTTL <= 0 {
		o.ResetTokenTTL = d.ResetTokenTTL
	}
	if o.ConfirmTokenTTL <= 0 {
		o.ConfirmTokenTTL = d.ConfirmTokenTTL
	}
	if o.UnlockTokenTTL <= 0 {
		o.UnlockTokenTTL = d.UnlockTokenTTL
	}
	if o.MaxFailedAttempts <= 0 {
		o.MaxFailedAttempts = d.MaxFailedAttempts
	}
	if o.BcryptCost == 0 {
		o.BcryptCost = d.BcryptCost
	}
	if o.MinPasswordLength <= 0 {
		o.MinPasswordLength = d.MinPasswordLength
	}
	return o
}

// Authenticator 負責憑證、session 與一次性 token
type Authenticator struct {
	db       database.DB
	cache    cache.Cache
	notifier notify.Notifier
	opts     Options
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthenticator(db database.DB, c cache.Cache, n notify.Notifier, opts Options) *Authenticator {
	return &Authenticator{
		db:       db,
		cache:    c,
		notifier: n,
		opts:     opts.withDefaults(),
		now:      time.Now,
	}
}

// WithClock overrides the time source.
func (a *Authenticator) WithClock(now func() time.Time) *Authenticator {
	if now != nil {
		a.now = now
	}
	return a
}

func (a *Authenticator) Options() Options {
	return a.opts
}

type Registration struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Register 建立帳號並寄出 Email 驗證 token
func (a *Authenticator) Register(ctx context.Context, r Registration) (*model.User, error) {
	email, err := store.NormalizeEmail(r.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword("password", r.Password, a.opts.MinPasswordLength); err != nil {
		return nil, err
	}
	hash, err := HashPassword(r.Password, a.opts.BcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := createUser(ctx, a.db, &model.User{
		Email:             email,
		EncryptedPassword: hash,
		FirstName:         optional(r.FirstName),
		LastName:          optional(r.LastName),
	})
	if err != nil {
		return nil, err
	}
	log.Infof("auth: registered user %s", user.ID)

	if _, err := a.sendToken(ctx, notify.KindConfirmation, user, a.opts.ConfirmTokenTTL); err != nil {
		log.Errorf("auth: confirmation token for %s: %v", user.ID, err)
	}
	return user, nil
}

func (a *Authenticator) compareDummy(password string) {
	a.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("quill-dummy-password"), a.opts.BcryptCost)
		if err == nil {
			a.dummyHash = string(h)
		}
	})
	_ = ComparePassword(a.dummyHash, password)
}

// Authenticate 驗證帳密並發出 session；任何失敗都只回 ErrInvalidCredentials
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	user, err := getUserByEmail(ctx, a.db, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			a.compareDummy(password)
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}

	if until, locked := user.LockedUntil(a.opts.UnlockAfter); locked {
		if a.opts.UnlockAfter <= 0 || a.now().Before(until) {
			a.compareDummy(password)
			log.Warnf("auth: sign-in attempt on locked account %s", user.ID)
			return nil, apperror.ErrInvalidCredentials
		}
		if user, err = unlockUser(ctx, a.db, user.ID); err != nil {
			return nil, err
		}
	}

	if err := ComparePassword(user.EncryptedPassword, password); err != nil {
		if !isMismatch(err) {
			log.Errorf("auth: compare password for %s: %v", user.ID, err)
		}
		a.recordFailure(ctx, user)
		return nil, apperror.ErrInvalidCredentials
	}

	if user.FailedAttempts > 0 {
		if user, err = unlockUser(ctx, a.db, user.ID); err != nil {
			return nil, err
		}
	}
	return a.IssueSession(ctx, user)
}

func (a *Authenticator) recordFailure(ctx context.Context, user *model.User) {
	updated, err := recordFailedAttempt(ctx, a.db, user.ID, a.opts.MaxFailedAttempts)
	if err != nil {
		log.Errorf("auth: record failed attempt for %s: %v", user.ID, err)
		return
	}
	if user.LockedAt == nil && updated.LockedAt != nil {
		log.Warnf("auth: locked account %s after %d failed attempts", user.ID, updated.FailedAttempts)
		if _, err := a.sendToken(ctx, notify.KindUnlock, updated, a.opts.UnlockTokenTTL); err != nil {
			log.Errorf("auth: unlock token for %s: %v", user.ID, err)
		}
	}
}

// RequestPasswordReset 發出重設密碼 token；先前未使用的 token 失效
func (a *Authenticator) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := getUserByEmail(ctx, a.db, email)
	if err != nil {
		return "", err
	}
	return a.sendToken(ctx, notify.KindPasswordReset, user, a.opts.ResetTokenTTL)
}

// CheckPasswordResetToken 驗證 token 仍可用但不消耗
func (a *Authenticator) CheckPasswordResetToken(ctx context.Context, token string) error {
	_, err := a.peekToken(ctx, notify.KindPasswordReset, token)
	return err
}

// CompletePasswordReset 消耗 token、更新密碼、解鎖並撤銷所有既有 session
func (a *Authenticator) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	if err := validatePassword("password", newPassword, a.opts.MinPasswordLength); err != nil {
		return err
	}
	rec, err := a.consumeToken(ctx, notify.KindPasswordReset, token)
	if err != nil {
		return err
	}
	hash, err := HashPassword(newPassword, a.opts.BcryptCost)
	if err != nil {
		return err
	}
	if err := updateUserPassword(ctx, a.db, rec.UserID, hash); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.ErrTokenInvalid
		}
		return err
	}
	if _, err := unlockUser(ctx, a.db, rec.UserID); err != nil {
		log.Errorf("auth: unlock after reset for %s: %v", rec.UserID, err)
	}
	if err := a.RevokeSessions(ctx, rec.UserID); err != nil {
		return err
	}
	log.Infof("auth: password reset completed for %s", rec.UserID)
	return nil
}

func (a *Authenticator) RequestConfirmation(ctx context.Context, email string) (string, error) {
	user, err := getUserByEmail(ctx, a.db, email)
	if err != nil {
		return "", err
	}
	if user.Confirmed() {
		return "", apperror.ValidationFailed("email", "email was already confirmed")
	}
	return a.sendToken(ctx, notify.KindConfirmation, user, a.opts.ConfirmTokenTTL)
}

func (a *Authenticator) Confirm(ctx context.Context, token string) (*model.User, error) {
	rec, err := a.consumeToken(ctx, notify.KindConfirmation, token)
	if err != nil {
		return nil, err
	}
	user, err := confirmUser(ctx, a.db, rec.UserID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.ErrTokenInvalid
	}
	return user, err
}

func (a *Authenticator) RequestUnlock(ctx context.Context, email string) (string, error) {
	user, err := getUserByEmail(ctx, a.db, email)
	if err != nil {
		return "", err
	}
	if user.LockedAt == nil {
		return "", apperror.ValidationFailed("email", "account is not locked")
	}
	return a.sendToken(ctx, notify.KindUnlock, user, a.opts.UnlockTokenTTL)
}

func (a *Authenticator) Unlock(ctx context.Context, token string) (*model.User, error) {
	rec, err := a.consumeToken(ctx, notify.KindUnlock, token)
	if err != nil {
		return nil, err
	}
	user, err := unlockUser(ctx, a.db, rec.UserID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.ErrTokenInvalid
	}
	return user, err
}

// ChangePassword 需要目前密碼；成功後舊 session 全數失效並回傳新 session
func (a *Authenticator) ChangePassword(ctx context.Context, user *model.User, current, newPassword string) (*Session, error) {
	if err := ComparePassword(user.EncryptedPassword, current); err != nil {
		return nil, apperror.ValidationFailed("current_password", "current password is invalid")
	}
	if err := validatePassword("password", newPassword, a.opts.MinPasswordLength); err != nil {
		return nil, err
	}
	hash, err := HashPassword(newPassword, a.opts.BcryptCost)
	if err != nil {
		return nil, err
	}
	if err := updateUserPassword(ctx, a.db, user.ID, hash); err != nil {
		return nil, err
	}
	if err := a.RevokeSessions(ctx, user.ID); err != nil {
		return nil, err
	}
	// 密碼更新已推進 lock_version，重新讀取才不會回傳過期的版本
	updated, err := getUserByID(ctx, a.db, user.ID)
	if err != nil {
		return nil, err
	}
	return a.IssueSession(ctx, updated)
}

func (a *Authenticator) UpdateProfile(ctx context.Context, userID uuid.UUID, upd model.UserUpdate) (*model.User, error) {
	return updateUser(ctx, a.db, userID, upd)
}

// DeleteAccount 刪除帳號並撤銷它的 session
func (a *Authenticator) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if err := deleteUser(ctx, a.db, userID); err != nil {
		return err
	}
	if err := a.RevokeSessions(ctx, userID); err != nil {
		log.Errorf("auth: revoke sessions of deleted user %s: %v", userID, err)
	}
	log.Infof("auth: deleted user %s", userID)
	return nil
}

func (a *Authenticator) sendToken(ctx context.Context, kind notify.Kind, user *model.User, ttl time.Duration) (string, error) {
	token, expiresAt, err := a.issueToken(ctx, kind, user.ID, ttl)
	if err != nil {
		return "", err
	}
	if a.notifier != nil {
		err := a.notifier.Notify(ctx, notify.Message{
			Kind:      kind,
			UserID:    user.ID,
			Email:     user.Email,
			Token:     token,
			ExpiresAt: expiresAt,
		})
		if err != nil {
			return "", fmt.Errorf("send %s token: %w", kind, err)
		}
	}
	return token, nil
}
