// Package sanitize neutralizes markup in user-supplied free text before it
// is written to a response.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// angleEscaper re-escapes the only characters that can open markup.
var angleEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// Sanitizer strips or escapes executable markup. Implementations must be
// idempotent and safe for concurrent use.
type Sanitizer interface {
	Sanitize(text string) string
}

// Policy is a Sanitizer backed by a bluemonday policy.
type Policy struct {
	p *bluemonday.Policy
}

// New returns a Sanitizer that removes every HTML element. Elements such as
// script and style are dropped together with their content.
func New() *Policy {
	return &Policy{p: bluemonday.StrictPolicy()}
}

// Sanitize returns text with all markup removed. Responses are JSON, so
// quotes and ampersands are left as typed and only < and > stay escaped.
func (s *Policy) Sanitize(text string) string {
	if text == "" {
		return ""
	}
	return angleEscaper.Replace(html.UnescapeString(s.p.Sanitize(text)))
}
