// Package graph implements a Provider that delivers reply drafts through the
// Microsoft Graph API, either sending them or saving them as Outlook drafts.
package graph

import (
	"github.com/shineum/reply-composer/internal/email"
)

// sendMailRequest is the request body for the sendMail endpoint.
type sendMailRequest struct {
	Message         message `json:"message"`
	SaveToSentItems bool    `json:"saveToSentItems"`
}

// message is a Graph message resource. The messages endpoint takes it
// unwrapped to create a draft.
type message struct {
	Subject      string      `json:"subject"`
	Body         messageBody `json:"body"`
	ToRecipients []recipient `json:"toRecipients"`
	CcRecipients []recipient `json:"ccRecipients,omitempty"`
}

type messageBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type recipient struct {
	EmailAddress emailAddress `json:"emailAddress"`
}

type emailAddress struct {
	Address string `json:"address"`
}

// graphErrorResponse represents an error response from the Graph API.
type graphErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// buildMessage converts an outgoing reply into a Graph message resource.
func buildMessage(msg *email.Email) message {
	body := messageBody{
		ContentType: "text",
		Content:     msg.TextBody,
	}
	if msg.TextBody == "" && msg.HtmlBody != "" {
		body.ContentType = "html"
		body.Content = msg.HtmlBody
	}

	return message{
		Subject:      msg.Subject,
		Body:         body,
		ToRecipients: recipients(msg.To),
		CcRecipients: recipients(msg.Cc),
	}
}

func recipients(addrs []string) []recipient {
	out := make([]recipient, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, recipient{EmailAddress: emailAddress{Address: addr}})
	}
	return out
}
