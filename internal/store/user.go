package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quill/internal/apperror"
	"quill/internal/database"
	"quill/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, encrypted_password, firstname, lastname, isadmin,
	confirmed_at, failed_attempts, locked_at, lock_version, created_at, updated_at`

// touch 每次寫入都要帶上
const touch = `lock_version = lock_version + 1, updated_at = GREATEST(now(), updated_at)`

var (
	newID = uuid.New
	// 與 HTTP 層的 validate:"email" 同一套規則
	emailValidator = validator.New()
)

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.EncryptedPassword,
		&u.FirstName,
		&u.LastName,
		&u.IsAdmin,
		&u.ConfirmedAt,
		&u.FailedAttempts,
		&u.LockedAt,
		&u.LockVersion,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return u, nil
}

// NormalizeEmail 去空白並轉小寫，空值或格式錯誤回傳 ErrValidation
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}
	if err := emailValidator.Var(email, "required,email"); err != nil {
		return "", apperror.ValidationFailed("email", "invalid email format")
	}
	return email, nil
}

func GetUserByID(ctx context.Context, db database.DB, userID uuid.UUID) (*model.User, error) {
	u, err := scanUser(db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		userID,
	))
	if err != nil {
		return nil, wrap("GetUserByID", err)
	}
	return u, nil
}

func GetUserByEmail(ctx context.Context, db database.DB, email string) (*model.User, error) {
	u, err := scanUser(db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	))
	if err != nil {
		return nil, wrap("GetUserByEmail", err)
	}
	return u, nil
}

func ListUsers(ctx context.Context, db database.DB, limit, offset int) ([]model.User, error) {
	rows, err := db.Query(ctx,
		`SELECT `+userColumns+` FROM users
		 ORDER BY created_at, id
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, wrap("ListUsers", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrap("ListUsers", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("ListUsers", err)
	}
	return users, nil
}

// CreateUser 新增使用者；isadmin 一律從 false 開始，只能透過 SetAdminFlag 變更
func CreateUser(ctx context.Context, db database.DB, u *model.User) (*model.User, error) {
	email, err := NormalizeEmail(u.Email)
	if err != nil {
		return nil, fmt.Errorf("CreateUser: %w", err)
	}
	if u.EncryptedPassword == "" {
		return nil, fmt.Errorf("CreateUser: %w", apperror.ValidationFailed("password", "password is required"))
	}
	id := u.ID
	if id == uuid.Nil {
		id = newID()
	}

	created, err := scanUser(db.QueryRow(ctx,
		`INSERT INTO users (id, email, encrypted_password, firstname, lastname, isadmin)
		 VALUES ($1, $2, $3, $4, $5, FALSE)
		 RETURNING `+userColumns,
		id,
		email,
		u.EncryptedPassword,
		u.FirstName,
		u.LastName,
	))
	if err != nil {
		return nil, wrap("CreateUser", err)
	}
	return created, nil
}

// UpdateUser 部分更新；帶 LockVersion 時版本不符回傳 ErrConflict
func UpdateUser(ctx context.Context, db database.DB, id uuid.UUID, upd model.UserUpdate) (*model.User, error) {
	if upd.Empty() {
		return nil, fmt.Errorf("UpdateUser: %w", apperror.ValidationFailed("", "nothing to update"))
	}
	var email *string
	if upd.Email != nil {
		e, err := NormalizeEmail(*upd.Email)
		if err != nil {
			return nil, fmt.Errorf("UpdateUser: %w", err)
		}
		email = &e
	}

	u, err := scanUser(db.QueryRow(ctx,
		`UPDATE users SET
		   email     = COALESCE($2::text, email),
		   firstname = CASE WHEN $3::text IS NULL THEN firstname ELSE NULLIF($3::text, '') END,
		   lastname  = CASE WHEN $4::text IS NULL THEN lastname ELSE NULLIF($4::text, '') END,
		   `+touch+`
		 WHERE id = $1 AND ($5::int IS NULL OR lock_version = $5::int)
		 RETURNING `+userColumns,
		id,
		email,
		upd.FirstName,
		upd.LastName,
		upd.LockVersion,
	))
	if err == nil {
		return u, nil
	}
	if errors.Is(err, pgx.ErrNoRows) && upd.LockVersion != nil {
		exists, exErr := userExists(ctx, db, id)
		if exErr != nil {
			return nil, wrap("UpdateUser", exErr)
		}
		if exists {
			return nil, fmt.Errorf("UpdateUser: %w", apperror.Conflict("user", id.String()))
		}
	}
	return nil, wrap("UpdateUser", err)
}

// SetAdminFlag 單一 UPDATE 完成，呼叫端須先通過管理員檢查
func SetAdminFlag(ctx context.Context, db database.DB, id uuid.UUID, isAdmin bool) (*model.User, error) {
	u, err := scanUser(db.QueryRow(ctx,
		`UPDATE users SET isadmin = $2, `+touch+`
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, isAdmin,
	))
	if err != nil {
		return nil, wrap("SetAdminFlag", err)
	}
	return u, nil
}

func UpdateUserPassword(ctx context.Context, db database.DB, id uuid.UUID, passwordHash string) error {
	tag, err := db.Exec(ctx,
		`UPDATE users SET encrypted_password = $2, `+touch+`
		 WHERE id = $1`,
		id, passwordHash,
	)
	if err != nil {
		return wrap("UpdateUserPassword", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("UpdateUserPassword: %w", apperror.NotFound("user", id.String()))
	}
	return nil
}

// ConfirmUser 已確認過的使用者保留原本的 confirmed_at
func ConfirmUser(ctx context.Context, db database.DB, id uuid.UUID) (*model.User, error) {
	u, err := scanUser(db.QueryRow(ctx,
		`UPDATE users SET confirmed_at = COALESCE(confirmed_at, now()), `+touch+`
		 WHERE id = $1
		 RETURNING `+userColumns,
		id,
	))
	if err != nil {
		return nil, wrap("ConfirmUser", err)
	}
	return u, nil
}

// RecordFailedAttempt 累加失敗次數，達 maxAttempts 時鎖定帳號
func RecordFailedAttempt(ctx context.Context, db database.DB, id uuid.UUID, maxAttempts int) (*model.User, error) {
	u, err := scanUser(db.QueryRow(ctx,
		`UPDATE users SET
		   failed_attempts = failed_attempts + 1,
		   locked_at = CASE
		     WHEN locked_at IS NULL AND failed_attempts + 1 >= $2 THEN now()
		     ELSE locked_at
		   END,
		   `+touch+`
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, maxAttempts,
	))
	if err != nil {
		return nil, wrap("RecordFailedAttempt", err)
	}
	return u, nil
}

// UnlockUser 清除鎖定狀態與失敗次數
func UnlockUser(ctx context.Context, db database.DB, id uuid.UUID) (*model.User, error) {
	u, err := scanUser(db.QueryRow(ctx,
		`UPDATE users SET failed_attempts = 0, locked_at = NULL, `+touch+`
		 WHERE id = $1
		 RETURNING `+userColumns,
		id,
	))
	if err != nil {
		return nil, wrap("UnlockUser", err)
	}
	return u, nil
}

// DeleteUser 刪除使用者，posts 由外鍵 ON DELETE CASCADE 一併刪除
func DeleteUser(ctx context.Context, db database.DB, id uuid.UUID) error {
	tag, err := db.Exec(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return wrap("DeleteUser", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("DeleteUser: %w", apperror.NotFound("user", id.String()))
	}
	return nil
}

func userExists(ctx context.Context, db database.DB, id uuid.UUID) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
