// Package content normalizes heterogeneous message bodies into a
// text/HTML pair ready for MIME composition. Callers may submit a plain
// string, an HTML string, or a flat key-value record; the package decides
// the rendering and produces both branches where possible.
package content

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Content is a normalized message body. Either branch may be empty, but a
// message with both branches empty carries no content at all.
type Content struct {
	Text string
	HTML string
}

// IsEmpty reports whether neither branch carries content.
func (c Content) IsEmpty() bool {
	return c.Text == "" && c.HTML == ""
}

// htmlTagRe detects an HTML tag opening: "<" followed by a letter and later
// a ">". Matching is case-insensitive and spans newlines.
var htmlTagRe = regexp.MustCompile(`(?is)<[a-z].*>`)

// titleCaser upper-cases the first letter of each word without lowering the
// rest, so "customer_eMail" becomes "Customer EMail" rather than "Customer Email".
var titleCaser = cases.Title(language.Und, cases.NoLower)

// Normalize converts an arbitrary decoded JSON value into Content.
//
// Strings containing an HTML tag become the HTML branch verbatim; other
// strings become the text branch. Flat records render as a two-column HTML
// table plus "Key: value" text lines. Anything else is stringified into the
// text branch.
func Normalize(v any) Content {
	switch val := v.(type) {
	case string:
		if htmlTagRe.MatchString(val) {
			return Content{HTML: val}
		}
		return Content{Text: val}
	case map[string]any:
		return Content{
			HTML: fieldsToHTMLTable(val),
			Text: fieldsToText(val),
		}
	case nil:
		return Content{}
	default:
		return Content{Text: fmt.Sprint(val)}
	}
}

// formatFieldName turns machine field names into readable labels:
// "full_name" -> "Full Name", "customer-email" -> "Customer Email".
func formatFieldName(name string) string {
	spaced := strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return titleCaser.String(spaced)
}

// sortedKeys returns record keys in a stable order. JSON objects carry no
// ordering once decoded into a map, so renderings sort alphabetically.
func sortedKeys(record map[string]any) []string {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stringifyValue renders a record value for display. Nil renders empty.
func stringifyValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func fieldsToHTMLTable(record map[string]any) string {
	var b strings.Builder
	b.WriteString(`<table style="border-collapse: collapse; width: 100%; max-width: 600px; margin: 20px 0;">`)

	for _, key := range sortedKeys(record) {
		b.WriteString(`<tr style="border-bottom: 1px solid #e0e0e0;">`)
		b.WriteString(`<td style="padding: 12px; font-weight: bold; color: #333; width: 40%;">`)
		b.WriteString(html.EscapeString(formatFieldName(key)))
		b.WriteString(`:</td>`)
		b.WriteString(`<td style="padding: 12px; color: #666;">`)
		b.WriteString(html.EscapeString(stringifyValue(record[key])))
		b.WriteString(`</td></tr>`)
	}

	b.WriteString(`</table>`)
	return b.String()
}

func fieldsToText(record map[string]any) string {
	var b strings.Builder
	for _, key := range sortedKeys(record) {
		b.WriteString(formatFieldName(key))
		b.WriteString(": ")
		b.WriteString(stringifyValue(record[key]))
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}

// Sanitize strips dangerous markup from the HTML branch using the
// bluemonday UGC policy. The text branch passes through untouched.
// A nil policy leaves the content unchanged.
func (c Content) Sanitize(policy *bluemonday.Policy) Content {
	if policy == nil || c.HTML == "" {
		return c
	}
	return Content{Text: c.Text, HTML: policy.Sanitize(c.HTML)}
}
