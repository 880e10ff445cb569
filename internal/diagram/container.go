package diagram

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	rootSVG    = regexp.MustCompile(`<svg\b[^>]*>`)
	widthAttr  = regexp.MustCompile(`\swidth="?(\d+)`)
	heightAttr = regexp.MustCompile(`\sheight="?(\d+)`)
)

// Wrap places markup inside the generated-diagram container of class.
// When sized is set and the root <svg> tag carries pixel dimensions, the
// container gets a style that keeps the aspect ratio while capping the
// height to 80% of the viewport.
func Wrap(class, markup string, sized bool) string {
	var b strings.Builder
	b.WriteString(`<div class="generated-diagram-` + class + `"`)
	if sized {
		if w, h, ok := dimensions(markup); ok {
			b.WriteString(sizingStyle(w, h))
		}
	}
	b.WriteString(">\n")
	b.WriteString(markup)
	b.WriteString("\n</div>\n\n")
	return b.String()
}

// dimensions extracts width and height from the root <svg> tag. Diagrams
// already declared as fluid (width 100%) are left alone.
func dimensions(markup string) (width, height string, ok bool) {
	if strings.Contains(markup, `width="100%"`) || strings.Contains(markup, "width=100%") {
		return "", "", false
	}
	tag := rootSVG.FindString(markup)
	if tag == "" {
		return "", "", false
	}
	wm := widthAttr.FindStringSubmatch(tag)
	hm := heightAttr.FindStringSubmatch(tag)
	if wm == nil || hm == nil {
		return "", "", false
	}
	return wm[1], hm[1], true
}

func sizingStyle(w, h string) string {
	const maxHeight, maxWidth = "80vh", "100%"
	height := fmt.Sprintf("min(%s, %spx)", maxHeight, h)
	ratio := w + "/" + h
	return fmt.Sprintf(` style="max-height:%s;height:%s;max-width:%s;aspect-ratio:%s;width:min(%s, %spx, %s*%s);"`,
		maxHeight, height, maxWidth, ratio, maxWidth, w, ratio, height)
}
