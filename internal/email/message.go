// Package email defines the message and draft data model shared by the intake
// listener, the session layer and the delivery providers.
package email

import (
	"fmt"
	"net/url"
	"strings"
)

// Email represents a parsed or outgoing email message.
type Email struct {
	From       string
	To         []string
	Cc         []string
	Subject    string
	TextBody   string
	HtmlBody   string
	RawHeaders map[string][]string
	MessageID  string
}

// Envelope carries the SMTP envelope of a received message. RcptTo holds
// the addresses given in RCPT TO, which may differ from the To header of a
// forwarded thread.
type Envelope struct {
	MailFrom string
	RcptTo   []string
}

// Draft is a rendered reply addressed to a single recipient.
type Draft struct {
	Recipient string
	Body      string
}

// ClipboardText returns the draft in the clipboard payload format.
func (d Draft) ClipboardText() string {
	return fmt.Sprintf("To: %s\n\n%s", d.Recipient, d.Body)
}

// MailtoURI returns a mailto: link with the recipient in the path and the
// body percent-encoded in the body query parameter.
func (d Draft) MailtoURI() string {
	return "mailto:" + d.Recipient + "?body=" + encodeURIComponent(d.Body)
}

// Message converts the draft into an outgoing Email.
func (d Draft) Message(from, subject string) *Email {
	return &Email{
		From:     from,
		To:       []string{d.Recipient},
		Subject:  subject,
		TextBody: d.Body,
	}
}

// DraftFrom rebuilds a draft from an outgoing message, joining multiple
// recipients with a comma.
func DraftFrom(msg *Email) Draft {
	body := msg.TextBody
	if body == "" {
		body = msg.HtmlBody
	}
	return Draft{
		Recipient: strings.Join(msg.To, ", "),
		Body:      body,
	}
}

// uriComponentUnescaper restores the characters that encodeURIComponent
// leaves alone but url.QueryEscape escapes.
var uriComponentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent escapes everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ).
func encodeURIComponent(s string) string {
	return uriComponentUnescaper.Replace(url.QueryEscape(s))
}
