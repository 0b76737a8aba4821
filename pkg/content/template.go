package content

import (
	"fmt"
	"strings"
)

// Template is a literal substitution template with optional HTML and text
// branches. A bare string template is treated as its HTML branch, matching
// how callers usually submit rendered markup.
type Template struct {
	HTML string
	Text string
}

// RenderTemplate substitutes every {{key}} placeholder in both branches with
// the corresponding value from data. Substitution is literal and global per
// key; placeholders with no matching key are left verbatim.
func RenderTemplate(tmpl Template, data map[string]any) Content {
	return Content{
		HTML: substitute(tmpl.HTML, data),
		Text: substitute(tmpl.Text, data),
	}
}

func substitute(s string, data map[string]any) string {
	if s == "" || len(data) == 0 {
		return s
	}
	for key, value := range data {
		s = strings.ReplaceAll(s, "{{"+key+"}}", stringifyTemplateValue(value))
	}
	return s
}

func stringifyTemplateValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
