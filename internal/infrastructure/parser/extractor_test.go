package parser

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
)

const longSentence = "Customer support teams use automation to answer routine questions quickly and consistently. "

func mustDoc(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return doc
}

func TestExtractUsesFirstMatchingContainer(t *testing.T) {
	t.Parallel()

	markup := `<html><head><title>Ignored | Site</title></head><body>
	<nav>Home About Pricing</nav>
	<article>
	  <h1>AI in Support | The Blog</h1>
	  <p>` + strings.Repeat(longSentence, 2) + `</p>
	  <script>var tracking = true;</script>
	  <div class="comments">Great post!</div>
	</article>
	<footer>Copyright</footer>
	</body></html>`

	got := NewExtractor().Extract(mustDoc(t, markup))

	if got.Title != "AI in Support" {
		t.Fatalf("unexpected title: %q", got.Title)
	}
	if !strings.Contains(got.Body, "Customer support teams use automation") {
		t.Fatalf("body misses article text: %q", got.Body)
	}
	for _, noise := range []string{"Home About", "tracking", "Great post", "Copyright"} {
		if strings.Contains(got.Body, noise) {
			t.Fatalf("body contains noise %q: %q", noise, got.Body)
		}
	}
}

func TestExtractDropsHeaderButKeepsItsTitle(t *testing.T) {
	t.Parallel()

	markup := `<html><body>
	<header class="site-header"><a href="/">BeyondChats</a> Sign in Get started</header>
	<main>
	  <header><h1>Chatbots for Clinics</h1><span>Posted by the team</span></header>
	  <p>` + strings.Repeat(longSentence, 2) + `</p>
	</main>
	</body></html>`

	got := NewExtractor().Extract(mustDoc(t, markup))

	if got.Title != "Chatbots for Clinics" {
		t.Fatalf("unexpected title: %q", got.Title)
	}
	for _, noise := range []string{"Sign in", "Posted by"} {
		if strings.Contains(got.Body, noise) {
			t.Fatalf("body contains header text %q: %q", noise, got.Body)
		}
	}
	if !strings.HasPrefix(got.Body, "Customer support teams") {
		t.Fatalf("unexpected body: %q", got.Body)
	}
}

func TestExtractFallsBackToParagraphs(t *testing.T) {
	t.Parallel()

	markup := `<html><body><div class="wrapper">
	<p>  First   paragraph. </p>
	<p></p>
	<p>Second paragraph.</p>
	</div></body></html>`

	got := NewExtractor().Extract(mustDoc(t, markup))

	want := Extraction{Title: "", Body: "First paragraph.\n\nSecond paragraph."}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("extraction mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSkipsShortContainers(t *testing.T) {
	t.Parallel()

	markup := `<html><head><title>Listing | Example</title></head><body>
	<article>Too short.</article>
	<section><p>` + longSentence + `</p><p>Closing thoughts.</p></section>
	</body></html>`

	got := NewExtractor().Extract(mustDoc(t, markup))

	if got.Title != "Listing" {
		t.Fatalf("expected title from <title>, got %q", got.Title)
	}
	want := strings.TrimSpace(longSentence) + "\n\nClosing thoughts."
	if got.Body != want {
		t.Fatalf("expected paragraph fallback %q, got %q", want, got.Body)
	}
}

func TestExtractTruncatesBody(t *testing.T) {
	t.Parallel()

	markup := `<html><body><main><p>` + strings.Repeat("ä", MaxBodyLength+700) + `</p></main></body></html>`

	got := NewExtractor().Extract(mustDoc(t, markup))

	if n := utf8.RuneCountInString(got.Body); n != MaxBodyLength {
		t.Fatalf("expected %d runes, got %d", MaxBodyLength, n)
	}
}

func TestExtractNeverFails(t *testing.T) {
	t.Parallel()

	if got := NewExtractor().Extract(nil); got != (Extraction{}) {
		t.Fatalf("nil document must yield empty extraction, got %+v", got)
	}

	got := NewExtractor().Extract(mustDoc(t, `<html><body><img src="x.png"></body></html>`))
	if got != (Extraction{}) {
		t.Fatalf("empty document must yield empty extraction, got %+v", got)
	}
}

func TestSelectorRuleIsIndependent(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `<div class="entry-content"><h2>Heading</h2><p>One<br>Two</p></div>`)

	got := NormalizeText(SelectorRule(".entry-content").Extract(doc))
	if got != "Heading\n\nOne\nTwo" {
		t.Fatalf("unexpected rule text: %q", got)
	}
	if miss := SelectorRule(".post-content").Extract(doc); miss != "" {
		t.Fatalf("non-matching rule must return empty text, got %q", miss)
	}
}

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"a   b\t\tc":              "a b c",
		"one\n\n\n\n two":         "one\n\ntwo",
		"  \r\nlead\r\n  trail  ": "lead\ntrail",
		"":                        "",
	}
	for in, want := range cases {
		if got := NormalizeText(in); got != want {
			t.Fatalf("NormalizeText(%q) = %q, want %q", in, got, want)
		}
	}
}
