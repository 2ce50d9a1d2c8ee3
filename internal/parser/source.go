package parser

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/shineum/reply-composer/internal/email"
)

// SourceText returns the text a user would paste for raw: the body of an
// RFC 5322 message when raw is one, otherwise raw itself. Line endings are
// normalised to LF.
func SourceText(raw []byte) string {
	msg, err := Parse(raw)
	if err != nil || !looksLikeMessage(msg) {
		return normalizeNewlines(string(raw))
	}
	return BodyText(msg)
}

// BodyText flattens a parsed message into a plain-text document, falling
// back to the HTML body rendered as text. Trailing line breaks are dropped.
func BodyText(msg *email.Email) string {
	body := msg.TextBody
	if body == "" && msg.HtmlBody != "" {
		body = HTMLToText(msg.HtmlBody)
	}
	return strings.TrimRight(normalizeNewlines(body), "\n")
}

// looksLikeMessage tells a mail message from free text that merely begins
// with a "Key: value" line.
func looksLikeMessage(msg *email.Email) bool {
	for _, key := range []string{"From", "To", "Subject", "Message-Id", "Date"} {
		if _, ok := msg.RawHeaders[key]; ok {
			return true
		}
	}
	return false
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// blockElements end a line of text when rendered.
var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "table": true, "ul": true, "ol": true,
}

// HTMLToText renders the text content of an HTML fragment. Paragraph-like
// elements are separated by a blank line so paragraph lookup keeps working.
func HTMLToText(src string) string {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return src
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" || n.Data == "head" {
				return
			}
			if n.Data == "br" {
				b.WriteString("\n")
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			b.WriteString("\n\n")
		}
	}
	walk(doc)

	return collapseBlankLines(b.String())
}

// collapseBlankLines trims each line and keeps at most one empty line
// between text lines.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(out) > 0 {
				blank = true
			}
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
