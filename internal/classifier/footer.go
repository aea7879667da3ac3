package classifier

import (
	"regexp"
	"strings"
)

// footerRe matches a trailing run of bracketed tokens joined by "|", e.g.
// "[Channel A] | [Channel B]" or "[Channel A | Channel B]", optionally with
// markdown link targets after each bracket.
var footerRe = regexp.MustCompile(`\s*\[[^\[\]]*\](?:\([^()\s]*\))?(?:\s*\|\s*\[[^\[\]]*\](?:\([^()\s]*\))?)*\s*$`)

// StripFooter removes cross-posted channel promo footers from the end of text.
func StripFooter(text string) string {
	for {
		loc := footerRe.FindStringIndex(text)
		if loc == nil || !strings.Contains(text[loc[0]:loc[1]], "|") {
			return text
		}
		text = strings.TrimRight(text[:loc[0]], " \t\r\n")
	}
}
