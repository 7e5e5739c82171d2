// File: internal/model/user.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	Email             string     `db:"email" json:"email"`
	EncryptedPassword string     `db:"encrypted_password" json:"-"`
	FirstName         *string    `db:"firstname" json:"firstname"`
	LastName          *string    `db:"lastname" json:"lastname"`
	IsAdmin           bool       `db:"isadmin" json:"isadmin"`
	ConfirmedAt       *time.Time `db:"confirmed_at" json:"confirmed_at,omitempty"`
	FailedAttempts    int        `db:"failed_attempts" json:"-"`
	LockedAt          *time.Time `db:"locked_at" json:"-"`
	LockVersion       int        `db:"lock_version" json:"lock_version"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// Confirmed 是否已完成 Email 驗證
func (u User) Confirmed() bool {
	return u.ConfirmedAt != nil
}

// LockedUntil 回傳自動解鎖的時間點；未鎖定時 ok 為 false
func (u User) LockedUntil(unlockAfter time.Duration) (until time.Time, ok bool) {
	if u.LockedAt == nil {
		return time.Time{}, false
	}
	return u.LockedAt.Add(unlockAfter), true
}

// UserUpdate 只更新非 nil 欄位；FirstName / LastName 為空字串時清成 NULL
type UserUpdate struct {
	Email       *string
	FirstName   *string
	LastName    *string
	LockVersion *int
}

func (u UserUpdate) Empty() bool {
	return u.Email == nil && u.FirstName == nil && u.LastName == nil
}
