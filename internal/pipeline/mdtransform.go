package pipeline

import (
	"regexp"
	"strings"
)

// highlightPattern matches ==text== on a single line.
var highlightPattern = regexp.MustCompile(`==([^=\n]+?)==`)

// MarkHighlights turns ==text== into <mark>text</mark>.
//
// Fenced code and raw HTML lines (rendered diagrams, layout tags) are
// left alone so code samples and inline SVG styles keep their "==".
func MarkHighlights(markdown string) string {
	if !strings.Contains(markdown, "==") {
		return markdown
	}

	lines := strings.Split(markdown, "\n")
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence || strings.HasPrefix(trimmed, "<") {
			continue
		}
		lines[i] = highlightPattern.ReplaceAllString(line, "<mark>$1</mark>")
	}
	return strings.Join(lines, "\n")
}
