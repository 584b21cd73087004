package provider

import (
	"context"

	"github.com/notifyhub/receiver/internal/domain"
)

// Provider delivers one notification to one subscriber callback URL.
// A nil error means the subscriber acknowledged with a 2xx status.
type Provider interface {
	Deliver(ctx context.Context, callbackURL string, n *domain.Notification) error
}
