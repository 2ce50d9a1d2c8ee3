// Package stdout implements a Provider that prints reply drafts to standard
// output in the clipboard payload format.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shineum/reply-composer/internal/email"
)

const separator = "========================================\n"

// Provider prints drafts framed by separator lines.
type Provider struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a new stdout Provider that writes to os.Stdout.
func New() *Provider {
	return &Provider{writer: os.Stdout}
}

// NewWithWriter creates a new stdout Provider that writes to the given writer.
// This is useful for testing.
func NewWithWriter(w io.Writer) *Provider {
	return &Provider{writer: w}
}

// Send prints the draft carried by msg. A subject, when set, is printed
// above the payload.
func (p *Provider) Send(_ context.Context, msg *email.Email) error {
	var b strings.Builder

	b.WriteString(separator)
	if msg.Subject != "" {
		b.WriteString(fmt.Sprintf("Subject: %s\n", msg.Subject))
	}
	b.WriteString(email.DraftFrom(msg).ClipboardText())
	b.WriteString("\n")
	b.WriteString(separator)

	if _, err := io.WriteString(p.writer, b.String()); err != nil {
		return fmt.Errorf("failed to write draft: %w", err)
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stdout"
}
