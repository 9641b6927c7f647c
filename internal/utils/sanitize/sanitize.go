package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every tag and attribute, leaving a space where a tag was.
// bluemonday.Policy is safe for concurrent use once built; never mutate it
// after init.
var strict = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

// verbatim removes every tag and attribute without inserting anything, so
// the text around a tag keeps its exact spacing.
var verbatim = bluemonday.StrictPolicy()

// Strip removes all HTML from s without any whitespace normalisation.
//
//   - "<script>alert('xss')</script>Hello" -> "Hello"
//   - "<p>Hello <b>world</b></p>" -> "  Hello  world  "
func Strip(s string) string {
	return strict.Sanitize(s)
}

// Body cleans multi-line note content: HTML is stripped, entities are
// unescaped and CRLF becomes LF. Only surrounding whitespace is trimmed;
// indentation and spacing inside the text are kept as written.
//
//   - "<p>milk,</p>\n<p>eggs</p>" -> "milk,\neggs"
//   - "milk,   eggs\n    - indented" -> unchanged
func Body(s string) string {
	return strings.TrimSpace(text(verbatim, s))
}

// Title cleans a single-line value such as a note title: HTML is stripped
// and every run of whitespace, line breaks included, collapses to one space.
//
//   - "<h1>Groceries</h1>\nfor friday" -> "Groceries for friday"
func Title(s string) string {
	return strings.Join(strings.Fields(text(strict, s)), " ")
}

func text(p *bluemonday.Policy, s string) string {
	cleaned := html.UnescapeString(p.Sanitize(s))
	cleaned = strings.ReplaceAll(cleaned, "\u00a0", " ")
	return strings.ReplaceAll(cleaned, "\r\n", "\n")
}

// IsBlank reports whether s holds no visible text once cleaned.
func IsBlank(s string) bool {
	return Body(s) == ""
}
