package repository

import "context"

// LoginThrottle rate-limits credential checks per caller to slow down
// online password guessing. Allow both records the attempt and reports
// whether the caller is still inside the window budget.
type LoginThrottle interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}
