package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/motorly/backend/domain"
	"github.com/motorly/backend/repository"
	"github.com/motorly/backend/usecase"
)

// memoryUserRepo mimics the Postgres credential store, including the
// atomic consume semantics for reset tokens and OTPs.
type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	now   func() time.Time
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{
		users: make(map[string]*domain.User),
		now:   time.Now,
	}
}

func (r *memoryUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return nil, domain.ErrEmailTaken
		}
	}
	now := r.now()
	stored := *user
	stored.PasswordChangedAt = now
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.users[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *memoryUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || !user.Active {
		return nil, domain.ErrUserNotFound
	}
	out := *user
	return &out, nil
}

func (r *memoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) && user.Active {
			out := *user
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memoryUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || !user.Active {
		return domain.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	user.PasswordChangedAt = r.now()
	user.PasswordResetTokenHash = nil
	user.PasswordResetExpires = nil
	return nil
}

func (r *memoryUserRepo) SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || !user.Active {
		return domain.ErrUserNotFound
	}
	user.PasswordResetTokenHash = &tokenHash
	user.PasswordResetExpires = &expires
	return nil
}

func (r *memoryUserRepo) ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if !user.Active || user.PasswordResetTokenHash == nil || user.PasswordResetExpires == nil {
			continue
		}
		if *user.PasswordResetTokenHash != tokenHash || !user.PasswordResetExpires.After(r.now()) {
			continue
		}
		user.PasswordHash = newPasswordHash
		user.PasswordChangedAt = r.now()
		user.PasswordResetTokenHash = nil
		user.PasswordResetExpires = nil
		out := *user
		return &out, nil
	}
	return nil, domain.ErrInvalidOrExpired
}

func (r *memoryUserRepo) SetOTP(ctx context.Context, id, otpHash string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || !user.Active {
		return domain.ErrUserNotFound
	}
	user.OTPHash = &otpHash
	user.OTPExpires = &expires
	return nil
}

func (r *memoryUserRepo) ConsumeOTP(ctx context.Context, id, otpHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || !user.Active || user.OTPHash == nil || user.OTPExpires == nil {
		return domain.ErrInvalidOrExpired
	}
	if *user.OTPHash != otpHash || !user.OTPExpires.After(r.now()) {
		return domain.ErrInvalidOrExpired
	}
	user.OTPHash = nil
	user.OTPExpires = nil
	return nil
}

func (r *memoryUserRepo) Deactivate(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || !user.Active {
		return domain.ErrUserNotFound
	}
	user.Active = false
	return nil
}

// expireResetToken backdates a pending reset pair for expiry tests.
func (r *memoryUserRepo) expireResetToken(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok && user.PasswordResetExpires != nil {
		past := r.now().Add(-time.Minute)
		user.PasswordResetExpires = &past
	}
}

func (r *memoryUserRepo) expireOTP(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok && user.OTPExpires != nil {
		past := r.now().Add(-time.Minute)
		user.OTPExpires = &past
	}
}

var _ repository.UserRepository = (*memoryUserRepo)(nil)

// recordingMailQueue captures enqueued mail for assertions.
type recordingMailQueue struct {
	mu    sync.Mutex
	sent  []usecase.Mail
	fail  bool
	errOn string
}

func (q *recordingMailQueue) Enqueue(ctx context.Context, mail usecase.Mail) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fail || (q.errOn != "" && q.errOn == mail.Template) {
		return context.DeadlineExceeded
	}
	q.sent = append(q.sent, mail)
	return nil
}

func (q *recordingMailQueue) last() (usecase.Mail, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.sent) == 0 {
		return usecase.Mail{}, false
	}
	return q.sent[len(q.sent)-1], true
}

func (q *recordingMailQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.sent)
}

// stubThrottle approves a fixed number of attempts per key.
type stubThrottle struct {
	mu     sync.Mutex
	limit  int
	counts map[string]int
}

func newStubThrottle(limit int) *stubThrottle {
	return &stubThrottle{limit: limit, counts: make(map[string]int)}
}

func (t *stubThrottle) Allow(ctx context.Context, key string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[key]++
	return t.counts[key] <= t.limit, nil
}

func (t *stubThrottle) Reset(ctx context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.counts, key)
	return nil
}

var _ repository.LoginThrottle = (*stubThrottle)(nil)
