package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quill/internal/worker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMessageLink(t *testing.T) {
	require.Equal(t, "/iforgot/edit?reset_password_token=a%2Bb", Message{Kind: KindPasswordReset, Token: "a+b"}.Link())
	require.Equal(t, "/verification?confirmation_token=t", Message{Kind: KindConfirmation, Token: "t"}.Link())
	require.Equal(t, "/unlock?unlock_token=t", Message{Kind: KindUnlock, Token: "t"}.Link())
	require.Empty(t, Message{Kind: "other"}.Link())
}

func TestPoolNotifier(t *testing.T) {
	pool := worker.NewPool(1)
	var mu sync.Mutex
	var got []Message
	n := NewPoolNotifier(pool, func(m Message) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, m)
		return errors.New("logged, not returned")
	})

	msg := Message{Kind: KindConfirmation, UserID: uuid.New(), Email: "a@b.co", Token: "t"}
	require.NoError(t, n.Notify(context.Background(), msg))
	pool.Stop()

	require.Len(t, got, 1)
	require.Equal(t, msg, got[0])

	require.ErrorIs(t, n.Notify(context.Background(), msg), worker.ErrStopped)
}

func TestPoolNotifierCancelledContext(t *testing.T) {
	pool := worker.NewPool(1)
	defer pool.Stop()
	n := NewPoolNotifier(pool, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, n.Notify(ctx, Message{}), context.Canceled)
}

func TestLogDeliverer(t *testing.T) {
	require.NoError(t, LogDeliverer(Message{Kind: KindUnlock, Token: "x"}))
}

func TestPoolNotifierDoesNotWaitPastDeadline(t *testing.T) {
	pool := worker.NewPool(1)
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	n := NewPoolNotifier(pool, func(Message) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	})

	require.NoError(t, n.Notify(context.Background(), Message{Kind: KindUnlock}))
	<-started
	require.NoError(t, n.Notify(context.Background(), Message{Kind: KindUnlock}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := n.Notify(ctx, Message{Kind: KindUnlock})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	pool.Stop()
}
