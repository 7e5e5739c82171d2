package store

import (
	"errors"
	"fmt"

	"quill/internal/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE unique_violation
const uniqueViolation = "23505"

// wrap 把 pgx 錯誤轉成 apperror 的 sentinel，並加上操作名稱
func wrap(op string, err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", op, apperror.ErrNotFound)
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return fmt.Errorf("%s: %w", op, apperror.ErrDuplicateIdentity)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
