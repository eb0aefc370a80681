// Package render turns a note's markdown text content into sanitized HTML
// for display surfaces, and into short plain-text previews for list rows.
package render

import (
	"html/template"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// policy allows only the markup subset note text supports: headers, bold,
// italic, inline code, and the block elements markdown produces around them.
var policy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowElements("p", "br", "strong", "em", "code", "pre")
	p.AllowElements("ul", "ol", "li", "blockquote")
	return p
}()

// HTML renders note text content to sanitized HTML.
func HTML(content string) template.HTML {
	extensions := parser.CommonExtensions | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(content))

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	raw := markdown.Render(doc, renderer)

	return template.HTML(policy.SanitizeBytes(raw))
}
