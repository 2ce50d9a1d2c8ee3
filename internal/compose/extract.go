// Package compose holds the text-processing core: address extraction,
// context paragraph lookup and template rendering. Every function is pure
// and total over its inputs, including empty strings.
package compose

import (
	"regexp"
	"strings"
)

// addressPattern matches local@domain.tld where each part is drawn from
// ASCII letters, digits, dot, underscore and hyphen. Both letter cases are
// spelled out; (?i) would also fold in U+212A and U+017F.
var addressPattern = regexp.MustCompile(`[A-Za-z0-9._-]+@[A-Za-z0-9._-]+\.[A-Za-z0-9._-]+`)

// paragraphSeparator splits a document into paragraphs.
const paragraphSeparator = "\n\n"

// Extract returns the distinct address-shaped substrings of doc in order of
// first appearance. Duplicates are compared case-sensitively.
func Extract(doc string) []string {
	matches := addressPattern.FindAllString(doc, -1)
	found := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		found = append(found, m)
	}
	return found
}

// IsAddress reports whether s is exactly one address as Extract sees it.
func IsAddress(s string) bool {
	loc := addressPattern.FindStringIndex(s)
	return loc != nil && loc[0] == 0 && loc[1] == len(s)
}

// Paragraphs splits doc on blank lines.
func Paragraphs(doc string) []string {
	return strings.Split(doc, paragraphSeparator)
}

// LocateContext returns the first paragraph of doc that contains address,
// or "" when none does.
func LocateContext(doc, address string) string {
	for _, p := range Paragraphs(doc) {
		if strings.Contains(p, address) {
			return p
		}
	}
	return ""
}
