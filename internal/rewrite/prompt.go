package rewrite

import (
	"fmt"
	"strings"

	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/ports"
)

const systemPrompt = "You are an expert content editor who improves blog articles using well-researched reference material."

var rewriteRules = []string{
	"Preserve the core message and intent of the original article.",
	"Incorporate relevant insights, facts and examples from the reference articles.",
	"Keep the length within 50% of the original article.",
	"Do not add meta-commentary about the rewrite or mention that references were used.",
	"Output only the article body in Markdown, without a title line.",
}

// BuildMessages assembles the chat messages for one rewrite. Each reference
// contributes at most maxRefChars runes of content.
func BuildMessages(system string, article domain.Article, refs []domain.ScrapedReference, maxRefChars int) []ports.ChatMessage {
	if strings.TrimSpace(system) == "" {
		system = systemPrompt
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Rewrite the article titled %q.\n\nRules:\n", article.Title)
	for i, rule := range rewriteRules {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rule)
	}

	b.WriteString("\nOriginal article:\n")
	b.WriteString(article.Content)
	b.WriteString("\n")

	for i, ref := range refs {
		fmt.Fprintf(&b, "\nReference %d: %s (%s)\n", i+1, ref.Title, ref.URL)
		b.WriteString(clip(ref.Content, maxRefChars))
		b.WriteString("\n")
	}

	return []ports.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: b.String()},
	}
}

func clip(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
