package diagram

import (
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"
)

const svgMediaType = "image/svg+xml"

// Minifier shrinks compiler output before it is embedded in the page.
type Minifier struct {
	m *minify.M
}

// NewMinifier creates an SVG minifier.
func NewMinifier() *Minifier {
	m := minify.New()
	m.AddFunc(svgMediaType, svg.Minify)
	return &Minifier{m: m}
}

// SVG returns the minified markup, or markup unchanged when the minifier
// rejects it.
func (x *Minifier) SVG(markup string) string {
	out, err := x.m.String(svgMediaType, markup)
	if err != nil || strings.TrimSpace(out) == "" {
		return markup
	}
	return out
}
