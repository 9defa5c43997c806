package citation

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormatWithoutCitationsReturnsBody(t *testing.T) {
	t.Parallel()

	for _, urls := range [][]string{nil, {}, {"  ", ""}} {
		if got := Format("body", urls); got != "body" {
			t.Fatalf("expected body unchanged for %q, got %q", urls, got)
		}
	}
}

func TestFormatNumbersInInputOrder(t *testing.T) {
	t.Parallel()

	got := Format("Body text", []string{"https://b.example", " https://a.example ", "https://b.example"})

	want := "Body text\n\n---\n\n## References & Sources\n\n" +
		"1. [https://b.example](https://b.example)\n" +
		"2. [https://a.example](https://a.example)\n\n" +
		disclosure
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("formatted body mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(got, "AI") {
		t.Fatalf("disclosure must mention AI enhancement")
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	got := Normalize([]string{"", " x ", "y", "x", "y "})
	if diff := cmp.Diff([]string{"x", "y"}, got); diff != "" {
		t.Fatalf("normalize mismatch (-want +got):\n%s", diff)
	}
}
