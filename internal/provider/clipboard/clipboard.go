// Package clipboard implements a Provider that copies reply drafts to the
// system clipboard through the terminal, using OSC 52 escape sequences.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aymanbagabas/go-osc52/v2"
	"golang.org/x/term"

	"github.com/shineum/reply-composer/internal/email"
)

// ErrNotTerminal is returned when the output is not attached to a terminal
// that could forward the sequence to the clipboard.
var ErrNotTerminal = errors.New("clipboard output is not a terminal")

// Modes select how the escape sequence is wrapped.
const (
	ModeAuto   = "auto"
	ModePlain  = "plain"
	ModeTmux   = "tmux"
	ModeScreen = "screen"
)

// Provider writes the clipboard payload of each draft as an OSC 52 sequence.
type Provider struct {
	out        io.Writer
	mode       string
	isTerminal func() bool
	getenv     func(string) string
}

// New creates a Provider writing to the terminal on stderr, so that the
// sequence reaches the terminal even when stdout is piped.
func New(mode string) *Provider {
	return &Provider{
		out:        os.Stderr,
		mode:       mode,
		isTerminal: func() bool { return term.IsTerminal(int(os.Stderr.Fd())) },
		getenv:     os.Getenv,
	}
}

// NewWithWriter creates a Provider writing to w, which is treated as a
// terminal. This is useful for testing.
func NewWithWriter(w io.Writer, mode string) *Provider {
	return &Provider{
		out:        w,
		mode:       mode,
		isTerminal: func() bool { return true },
		getenv:     func(string) string { return "" },
	}
}

// Send copies "To: {recipient}\n\n{body}" to the clipboard.
func (p *Provider) Send(_ context.Context, msg *email.Email) error {
	if !p.isTerminal() {
		return ErrNotTerminal
	}

	payload := email.DraftFrom(msg).ClipboardText()
	seq := osc52.New(payload)
	switch p.resolveMode() {
	case ModeTmux:
		seq = seq.Tmux()
	case ModeScreen:
		seq = seq.Screen()
	}

	if _, err := seq.WriteTo(p.out); err != nil {
		return fmt.Errorf("failed to write clipboard sequence: %w", err)
	}
	slog.Debug("draft copied to clipboard", "to", msg.To, "bytes", len(payload))
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "clipboard"
}

// resolveMode maps auto to the multiplexer found in the environment.
func (p *Provider) resolveMode() string {
	switch p.mode {
	case ModePlain, ModeTmux, ModeScreen:
		return p.mode
	}
	if p.getenv("TMUX") != "" {
		return ModeTmux
	}
	if strings.HasPrefix(p.getenv("TERM"), "screen") {
		return ModeScreen
	}
	return ModePlain
}
