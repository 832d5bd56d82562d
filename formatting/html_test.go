package formatting

import (
	"strings"
	"testing"
)

func TestFormatHTMLBold(t *testing.T) {
	got := FormatHTML("Use **drip irrigation** for rows")
	if !strings.Contains(got, ">drip irrigation</strong>") {
		t.Fatalf("bold span not rendered: %q", got)
	}
	if strings.Contains(got, "**") {
		t.Fatalf("asterisks should be consumed: %q", got)
	}
}

func TestFormatHTMLBulletsAndNumbers(t *testing.T) {
	got := FormatHTML("• first tip\n1. step one\n2. step two")
	if strings.Count(got, "<div") != 3 {
		t.Fatalf("expected three list divs: %q", got)
	}
	if !strings.Contains(got, ">1.</span>step one") {
		t.Fatalf("numbered marker missing: %q", got)
	}
}

func TestFormatHTMLCollapsesBreakRuns(t *testing.T) {
	got := FormatHTML("a\n\n\n\nb")
	if strings.Contains(got, "<br><br><br>") {
		t.Fatalf("break run not collapsed: %q", got)
	}
	if !strings.Contains(got, "a<br><br>b") {
		t.Fatalf("expected exactly one paragraph break: %q", got)
	}
}

func TestFormatHTMLIdempotent(t *testing.T) {
	inputs := []string{
		"plain text with no constructs",
		"Use **mulch** now\n• keep soil moist\n1. water at dawn\n\n\n\ndone",
		"",
	}
	for _, in := range inputs {
		once := FormatHTML(in)
		twice := FormatHTML(once)
		if once != twice {
			t.Fatalf("not idempotent for %q:\nonce:  %q\ntwice: %q", in, once, twice)
		}
	}
}
