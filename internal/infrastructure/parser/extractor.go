package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	// MinRuleTextLength is the shortest container text a selector rule may return.
	MinRuleTextLength = 100
	// MaxBodyLength bounds extracted bodies so prompts stay small.
	MaxBodyLength = 5000
)

// NoiseSelector matches elements dropped before any extraction.
const NoiseSelector = "script, style, noscript, iframe, svg, nav, header, footer, aside, form, " +
	".advertisement, .ads, .ad, .sidebar, .social-share, .share-buttons, " +
	".comments, #comments, .comment-respond, .related-posts, .newsletter"

// DefaultContentSelectors lists article containers in priority order.
var DefaultContentSelectors = []string{
	"article",
	`[itemprop="articleBody"]`,
	".post-content",
	".entry-content",
	".article-content",
	".article-body",
	".blog-content",
	".content",
	"main",
}

var (
	inlineSpaceExpr = regexp.MustCompile(`[ \t\f\v\r\x{00a0}]+`)
	blankLinesExpr  = regexp.MustCompile(`\n{3,}`)
	titleSuffixExpr = regexp.MustCompile(`\s*\|[^|]*$`)
)

var blockElements = map[string]bool{
	"address": true, "article": true, "blockquote": true, "dd": true,
	"div": true, "dl": true, "dt": true, "figcaption": true, "figure": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "td": true, "th": true, "tr": true, "ul": true,
}

// Rule is a pure body-extraction function tried in order by the Extractor.
type Rule struct {
	Name    string
	Extract func(doc *goquery.Document) string
}

// SelectorRule returns the block text of the first element matching selector.
func SelectorRule(selector string) Rule {
	return Rule{
		Name: selector,
		Extract: func(doc *goquery.Document) string {
			sel := doc.Find(selector).First()
			if sel.Length() == 0 {
				return ""
			}
			return blockText(sel)
		},
	}
}

// DefaultRules builds selector rules from DefaultContentSelectors.
func DefaultRules() []Rule {
	rules := make([]Rule, 0, len(DefaultContentSelectors))
	for _, selector := range DefaultContentSelectors {
		rules = append(rules, SelectorRule(selector))
	}
	return rules
}

// ParagraphText joins every non-empty <p> with blank lines.
func ParagraphText(doc *goquery.Document) string {
	var parts []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}

// Extraction is the best-effort plain text of a document.
type Extraction struct {
	Title string
	Body  string
}

// Extractor turns HTML documents into title and body text.
type Extractor struct {
	rules     []Rule
	minLength int
	maxLength int
}

// NewExtractor uses DefaultRules when none are given.
func NewExtractor(rules ...Rule) *Extractor {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Extractor{rules: rules, minLength: MinRuleTextLength, maxLength: MaxBodyLength}
}

// Extract strips noise from doc in place, then tries each rule and falls back to
// paragraph text. It never fails; empty fields mean nothing usable was found.
// The title is read first since headings often sit inside <header>.
func (e *Extractor) Extract(doc *goquery.Document) Extraction {
	if doc == nil {
		return Extraction{}
	}

	title := extractTitle(doc)
	doc.Find(NoiseSelector).Remove()

	var body string
	for _, rule := range e.rules {
		text := NormalizeText(rule.Extract(doc))
		if utf8.RuneCountInString(text) >= e.minLength {
			body = text
			break
		}
	}
	if body == "" {
		body = NormalizeText(ParagraphText(doc))
	}

	return Extraction{
		Title: title,
		Body:  truncateRunes(body, e.maxLength),
	}
}

// NormalizeText collapses spaces within lines and runs of blank lines.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = inlineSpaceExpr.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	text = strings.Join(lines, "\n")
	text = blankLinesExpr.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

func extractTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	title = strings.Join(strings.Fields(title), " ")
	return strings.TrimSpace(titleSuffixExpr.ReplaceAllString(title, ""))
}

// blockText is Selection.Text with line breaks around block elements.
func blockText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "br" {
			b.WriteByte('\n')
			return
		}
		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			b.WriteByte('\n')
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return b.String()
}

func truncateRunes(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	return strings.TrimSpace(string([]rune(text)[:limit]))
}
