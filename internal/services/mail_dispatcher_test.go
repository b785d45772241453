package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motorly/backend/internal/infrastructure/mailqueue"
	"github.com/motorly/backend/usecase"
)

type stubSender struct {
	mu    sync.Mutex
	sent  []string
	fail  map[string]error
	calls int
}

func (s *stubSender) Send(to, templateKey string, params map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err, ok := s.fail[to]; ok {
		return err
	}
	s.sent = append(s.sent, to+":"+templateKey)
	return nil
}

func newDispatcher(t *testing.T, sender *stubSender, maxRetries int) *MailDispatcher {
	t.Helper()
	store, err := mailqueue.Open(filepath.Join(t.TempDir(), "outbox.db"), "outbox")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewMailDispatcher(store, sender, nil, DispatcherConfig{
		Interval:   time.Minute,
		BatchSize:  10,
		MaxRetries: maxRetries,
	})
}

func TestEnqueueDoesNotDeliver(t *testing.T) {
	sender := &stubSender{}
	d := newDispatcher(t, sender, 3)

	err := d.Enqueue(context.Background(), usecase.Mail{To: "user@example.com", Template: "welcome"})
	require.NoError(t, err)

	assert.Zero(t, sender.calls, "delivery must wait for a drain")
	assert.Equal(t, 1, d.Size())
}

func TestDrainDeliversAndPurges(t *testing.T) {
	sender := &stubSender{}
	d := newDispatcher(t, sender, 3)

	require.NoError(t, d.Enqueue(context.Background(), usecase.Mail{To: "a@example.com", Template: "welcome"}))
	require.NoError(t, d.Enqueue(context.Background(), usecase.Mail{
		To:       "b@example.com",
		Template: "otp",
		Params:   map[string]string{"otp": "123456"},
	}))

	require.NoError(t, d.Drain())

	assert.Equal(t, []string{"a@example.com:welcome", "b@example.com:otp"}, sender.sent)
	assert.Zero(t, d.Size())
}

func TestDrainRequeuesFailures(t *testing.T) {
	sender := &stubSender{fail: map[string]error{"down@example.com": errors.New("smtp unavailable")}}
	d := newDispatcher(t, sender, 3)

	require.NoError(t, d.Enqueue(context.Background(), usecase.Mail{To: "down@example.com", Template: "welcome"}))
	require.NoError(t, d.Enqueue(context.Background(), usecase.Mail{To: "ok@example.com", Template: "welcome"}))

	require.NoError(t, d.Drain())

	assert.Equal(t, []string{"ok@example.com:welcome"}, sender.sent)
	assert.Equal(t, 1, d.Size(), "failed job stays queued for the next drain")
}

func TestDrainDropsAfterMaxRetries(t *testing.T) {
	sender := &stubSender{fail: map[string]error{"down@example.com": errors.New("smtp unavailable")}}
	d := newDispatcher(t, sender, 2)

	require.NoError(t, d.Enqueue(context.Background(), usecase.Mail{To: "down@example.com", Template: "welcome"}))

	require.NoError(t, d.Drain())
	assert.Equal(t, 1, d.Size())

	require.NoError(t, d.Drain())
	assert.Zero(t, d.Size(), "retry budget spent, job dropped")
}
