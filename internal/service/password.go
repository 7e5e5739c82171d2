// File: internal/service/password.go
package service

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"quill/internal/apperror"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt 只看前 72 bytes，超過直接拒絕
const maxPasswordBytes = 72

var (
	bcryptGenerateFromPassword   = bcrypt.GenerateFromPassword
	bcryptCompareHashAndPassword = bcrypt.CompareHashAndPassword
)

// HashPassword 接收明文密碼，回傳 bcrypt 哈希字串
func HashPassword(password string, cost int) (string, error) {
	hashBytes, err := bcryptGenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashBytes), nil
}

// ComparePassword 比對明文密碼與 bcrypt 哈希，成功回傳 nil，失敗則回傳錯誤
func ComparePassword(hash, password string) error {
	return bcryptCompareHashAndPassword([]byte(hash), []byte(password))
}

func validatePassword(field, password string, minLength int) error {
	switch {
	case password == "":
		return apperror.ValidationFailed(field, "password is required")
	case utf8.RuneCountInString(password) < minLength:
		return apperror.ValidationFailed(field, fmt.Sprintf("password must be at least %d characters", minLength))
	case len(password) > maxPasswordBytes:
		return apperror.ValidationFailed(field, fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}
	return nil
}

func isMismatch(err error) bool {
	return errors.Is(err, bcrypt.ErrMismatchedHashAndPassword)
}
