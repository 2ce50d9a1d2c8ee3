// Package provider defines the interface for reply delivery backends.
package provider

import (
	"context"

	"github.com/shineum/reply-composer/internal/email"
)

// Provider is the interface that delivery backends must implement.
// A provider carries a rendered reply to wherever the user writes mail:
// the terminal, the clipboard, the desktop mail client or a mail API.
type Provider interface {
	// Send delivers a reply. A returned error leaves the caller's
	// session untouched.
	Send(ctx context.Context, msg *email.Email) error

	// Name returns the human-readable name of this provider.
	Name() string
}
