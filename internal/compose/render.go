package compose

import "strings"

// Placeholder tokens recognised in templates.
const (
	EmailToken   = "[EMAIL]"
	ContextToken = "[CONTEXT]"
)

// RenderFunc substitutes an address and its context into a template.
type RenderFunc func(tmpl, address, context string) string

// Render replaces the first occurrence of EmailToken with address and then
// the first occurrence of ContextToken with context. Later occurrences of
// either token are kept as written.
func Render(tmpl, address, context string) string {
	out := strings.Replace(tmpl, EmailToken, address, 1)
	return strings.Replace(out, ContextToken, context, 1)
}

// RenderAll is Render with every occurrence of each token replaced.
func RenderAll(tmpl, address, context string) string {
	out := strings.ReplaceAll(tmpl, EmailToken, address)
	return strings.ReplaceAll(out, ContextToken, context)
}

// Renderer picks the substitution policy.
func Renderer(replaceAll bool) RenderFunc {
	if replaceAll {
		return RenderAll
	}
	return Render
}
