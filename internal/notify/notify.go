// Package notify delivers one-time account tokens to their owners.
package notify

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"quill/internal/worker"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

type Kind string

const (
	KindPasswordReset Kind = "password_reset"
	KindConfirmation  Kind = "confirmation"
	KindUnlock        Kind = "unlock"
)

type Message struct {
	Kind      Kind
	UserID    uuid.UUID
	Email     string
	Token     string
	ExpiresAt time.Time
}

// Link 回傳使用者點擊後完成操作的相對路徑
func (m Message) Link() string {
	switch m.Kind {
	case KindPasswordReset:
		return "/iforgot/edit?reset_password_token=" + url.QueryEscape(m.Token)
	case KindConfirmation:
		return "/verification?confirmation_token=" + url.QueryEscape(m.Token)
	case KindUnlock:
		return "/unlock?unlock_token=" + url.QueryEscape(m.Token)
	default:
		return ""
	}
}

type Notifier interface {
	Notify(ctx context.Context, m Message) error
}

// Deliverer 實際送出訊息（寄信、推播…）
type Deliverer func(m Message) error

// LogDeliverer writes the message to the log. It is the only transport the service ships with.
func LogDeliverer(m Message) error {
	log.Infof("notify: %s for %s (user %s) %s expires %s",
		m.Kind, m.Email, m.UserID, m.Link(), m.ExpiresAt.UTC().Format(time.RFC3339))
	return nil
}

// PoolNotifier 把送信丟到 worker pool；佇列滿時最多等到請求的 ctx 結束
type PoolNotifier struct {
	pool    worker.Pool
	deliver Deliverer
}

func NewPoolNotifier(pool worker.Pool, deliver Deliverer) *PoolNotifier {
	if deliver == nil {
		deliver = LogDeliverer
	}
	return &PoolNotifier{pool: pool, deliver: deliver}
}

func (n *PoolNotifier) Notify(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := n.pool.Submit(ctx, func() {
		if err := n.deliver(m); err != nil {
			log.Errorf("notify: deliver %s to %s: %v", m.Kind, m.Email, err)
		}
	})
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}
