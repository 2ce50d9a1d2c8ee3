// Package mailto implements a Provider that opens reply drafts in the
// desktop mail client through a mailto: link.
package mailto

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"

	"github.com/shineum/reply-composer/internal/email"
)

// OpenFunc hands a URI to something that can open it.
type OpenFunc func(ctx context.Context, uri string) error

// Provider builds "mailto:{recipient}?body={body}" for each draft and opens
// it. Whether the mail client accepts the link is not observed.
type Provider struct {
	open OpenFunc
}

// New creates a Provider that uses the operating system URL opener.
func New() *Provider {
	return &Provider{open: openURL}
}

// NewWithOpener creates a Provider with a custom opener, used for testing.
func NewWithOpener(open OpenFunc) *Provider {
	return &Provider{open: open}
}

// Send opens the mailto: link of the draft carried by msg.
func (p *Provider) Send(ctx context.Context, msg *email.Email) error {
	uri := email.DraftFrom(msg).MailtoURI()
	if err := p.open(ctx, uri); err != nil {
		return fmt.Errorf("failed to open mail client: %w", err)
	}
	slog.Debug("mail client opened", "to", msg.To)
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mailto"
}

// openerCommand returns the URL opener for goos.
func openerCommand(goos, uri string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{uri}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", uri}
	default:
		return "xdg-open", []string{uri}
	}
}

// openURL starts the opener and does not wait for the mail client. The
// opener is detached from ctx so it survives the request that launched it.
func openURL(_ context.Context, uri string) error {
	name, args := openerCommand(runtime.GOOS, uri)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
