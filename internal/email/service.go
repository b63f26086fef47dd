package email

import (
	"context"
)

// Notifier delivers invitation emails. Delivery failure is never fatal to
// the operation that triggered it; callers surface the raw link instead.
type Notifier interface {
	SendInvite(ctx context.Context, to string, inviteLink string) error
}
