// Package gmail implements a Provider that turns reply drafts into Gmail
// drafts, so they open ready to send in the user's own mailbox.
package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"mime/quotedprintable"
	"strings"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/shineum/reply-composer/internal/email"
)

// Modes select what the provider does with a reply.
const (
	ModeDraft = "draft"
	ModeSend  = "send"
)

// Config holds the configuration for creating a Provider.
type Config struct {
	CredentialsFile string
	TokenFile       string
	// User is the mailbox to act on; "me" is the authenticated user.
	User string
	Mode string
}

// MailboxAPI is the subset of the Gmail API the provider needs.
type MailboxAPI interface {
	CreateDraft(ctx context.Context, user string, draft *gmailapi.Draft) (*gmailapi.Draft, error)
	SendMessage(ctx context.Context, user string, msg *gmailapi.Message) (*gmailapi.Message, error)
}

// Provider stores each reply as a draft (or sends it) through the Gmail API.
type Provider struct {
	user string
	mode string
	api  MailboxAPI
}

// New builds a Provider from an OAuth client secret file and a token file
// written by the gmail-auth command.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	oauthCfg, err := OAuthConfig(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	tok, err := LoadToken(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("gmail token missing, run gmail-auth first: %w", err)
	}

	srv, err := gmailapi.NewService(ctx, option.WithHTTPClient(oauthCfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	p := NewWithClient(cfg.User, &service{srv: srv})
	if cfg.Mode != "" {
		p.mode = cfg.Mode
	}
	return p, nil
}

// NewWithClient creates a draft-mode Provider with a custom API client,
// used for testing.
func NewWithClient(user string, api MailboxAPI) *Provider {
	if user == "" {
		user = "me"
	}
	return &Provider{user: user, mode: ModeDraft, api: api}
}

// Send encodes msg as an RFC 5322 message and creates a draft with it, or
// sends it in send mode.
func (p *Provider) Send(ctx context.Context, msg *email.Email) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}
	raw := &gmailapi.Message{
		Raw: base64.URLEncoding.EncodeToString(buildRaw(msg)),
	}

	if p.mode == ModeSend {
		sent, err := p.api.SendMessage(ctx, p.user, raw)
		if err != nil {
			return fmt.Errorf("failed to send Gmail message: %w", err)
		}
		slog.Info("draft sent", "provider", p.Name(), "to", msg.To, "id", sent.Id)
		return nil
	}

	draft, err := p.api.CreateDraft(ctx, p.user, &gmailapi.Draft{Message: raw})
	if err != nil {
		return fmt.Errorf("failed to create Gmail draft: %w", err)
	}
	slog.Info("gmail draft created", "to", msg.To, "draft_id", draft.Id)
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "gmail"
}

// buildRaw renders msg as a plain-text quoted-printable message.
func buildRaw(msg *email.Email) []byte {
	var buf bytes.Buffer

	if msg.From != "" {
		fmt.Fprintf(&buf, "From: %s\r\n", msg.From)
	}
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(msg.To, ", "))
	if len(msg.Cc) > 0 {
		fmt.Fprintf(&buf, "Cc: %s\r\n", strings.Join(msg.Cc, ", "))
	}
	if msg.Subject != "" {
		fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", msg.Subject))
	}
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")

	body := msg.TextBody
	if body == "" {
		body = msg.HtmlBody
	}
	qp := quotedprintable.NewWriter(&buf)
	qp.Write([]byte(strings.ReplaceAll(body, "\n", "\r\n")))
	qp.Close()

	return buf.Bytes()
}

// service adapts *gmail.Service to MailboxAPI.
type service struct {
	srv *gmailapi.Service
}

func (s *service) CreateDraft(ctx context.Context, user string, draft *gmailapi.Draft) (*gmailapi.Draft, error) {
	return s.srv.Users.Drafts.Create(user, draft).Context(ctx).Do()
}

func (s *service) SendMessage(ctx context.Context, user string, msg *gmailapi.Message) (*gmailapi.Message, error) {
	return s.srv.Users.Messages.Send(user, msg).Context(ctx).Do()
}
