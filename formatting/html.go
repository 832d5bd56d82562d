package formatting

import (
	"regexp"
	"strings"
)

// The chat reply is a constrained markdown subset: bold spans, bullet lines,
// numbered lines, paragraph breaks. FormatHTML converts exactly that set to
// inline-styled HTML; anything else passes through unchanged.

var (
	boldPattern     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	bulletPattern   = regexp.MustCompile(`(?m)^• (.+)$`)
	numberedPattern = regexp.MustCompile(`(?m)^(\d+)\. (.+)$`)
	breakRunPattern = regexp.MustCompile(`(<br>\s*){3,}`)
)

const (
	strongStyle = `color: #2ecc71; font-weight: 600; background: rgba(46, 204, 113, 0.1); padding: 2px 4px; border-radius: 3px;`
	listStyle   = `margin: 8px 0; padding-left: 20px; position: relative; line-height: 1.6;`
	markerStyle = `position: absolute; left: 0; color: #2ecc71; font-weight: bold;`
)

// FormatHTML renders the markdown subset as HTML. Applying it to already
// formatted output is a no-op: formatted text contains no newlines, double
// asterisks, or line-leading bullets for the patterns to match again.
func FormatHTML(text string) string {
	if text == "" {
		return text
	}

	text = boldPattern.ReplaceAllString(text, `<strong style="`+strongStyle+`">$1</strong>`)
	text = bulletPattern.ReplaceAllString(text,
		`<div style="`+listStyle+`"><span style="`+markerStyle+`">•</span>$1</div>`)
	text = numberedPattern.ReplaceAllString(text,
		`<div style="`+listStyle+`"><span style="`+markerStyle+`">$1.</span>$2</div>`)
	text = strings.ReplaceAll(text, "\n", "<br>")
	text = breakRunPattern.ReplaceAllString(text, "<br><br>")
	return text
}
