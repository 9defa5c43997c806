// Package citation renders the references section of an enhanced article.
package citation

import (
	"fmt"
	"strings"
)

const (
	heading    = "## References & Sources"
	disclosure = "*This article was enhanced with AI using insights from the sources listed above.*"
)

// Normalize trims urls, drops empty entries and keeps the first occurrence of
// each duplicate.
func Normalize(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// Format appends a numbered references section to body. Without usable urls
// the body is returned unchanged.
func Format(body string, urls []string) string {
	urls = Normalize(urls)
	if len(urls) == 0 {
		return body
	}

	var b strings.Builder
	b.WriteString(body)
	b.WriteString("\n\n---\n\n")
	b.WriteString(heading)
	b.WriteString("\n\n")
	for i, u := range urls {
		fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, u, u)
	}
	b.WriteString("\n")
	b.WriteString(disclosure)
	return b.String()
}
