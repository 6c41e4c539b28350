package dashboard

import (
	"html"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	boldRe     = regexp.MustCompile(`\*\*(.+?)\*\*`)
	emphasisRe = regexp.MustCompile(`(^|[\s(])_([^_\n]+?)_($|[\s).,;:!?])`)
)

// inlineRenderer turns the small markdown subset the LLM uses (bold, emphasis, line
// breaks) into HTML that only ever contains strong, em and br elements.
type inlineRenderer struct {
	policy *bluemonday.Policy
}

func newInlineRenderer() inlineRenderer {
	p := bluemonday.NewPolicy()
	p.AllowElements("strong", "em", "br")
	return inlineRenderer{policy: p}
}

func (r inlineRenderer) Render(s string) template.HTML {
	out := html.EscapeString(strings.TrimSpace(s))
	out = boldRe.ReplaceAllString(out, "<strong>$1</strong>")
	out = emphasisRe.ReplaceAllString(out, "$1<em>$2</em>$3")
	out = strings.ReplaceAll(out, "\n", "<br>")
	return template.HTML(r.policy.Sanitize(out))
}
