package usecase

import "context"

// Mail describes an outbound templated notification.
type Mail struct {
	To       string
	Template string
	Params   map[string]string
}

// MailQueue abstracts the best-effort mail pipeline so use cases stay
// transport-agnostic. Enqueue failures never fail the triggering operation.
type MailQueue interface {
	Enqueue(ctx context.Context, mail Mail) error
}
