package diagram

import (
	"strings"
)

// SyntaxFragment renders a compiler's complaint as a fenced block inside
// the diagram container. detail (the generated description, for PlantUML)
// follows the error text when set.
func SyntaxFragment(d Dialect, stderr, detail string) string {
	var b strings.Builder
	b.WriteString("\n```\n")
	b.WriteString("🔧 " + d.Label + " diagram does not build\n\n")
	b.WriteString(strings.TrimSpace(stderr) + "\n")
	if detail = strings.TrimSpace(detail); detail != "" {
		b.WriteString(detail + "\n")
	}
	b.WriteString("```\n")
	return Wrap(d.Class, b.String(), false)
}

// IncidentFragment shows the original snippet with message inserted as a
// comment right after the opening fence, so the author still sees the
// source while the compiler is unavailable.
func IncidentFragment(d Dialect, snippet, message string) string {
	var b strings.Builder
	b.WriteString(`<div class="generated-diagram-` + d.Class + "\">\n\n")
	b.WriteString(insertComment(snippet, "☠️ "+message, d.Comment))
	b.WriteString("\n\n</div>\n\n")
	return b.String()
}

func insertComment(snippet, message, prefix string) string {
	lines := strings.Split(snippet, "\n")

	out := make([]string, 0, len(lines)+4)
	out = append(out, lines[0])
	for _, line := range strings.Split(strings.TrimRight(message, "\n"), "\n") {
		out = append(out, prefix+" "+line)
	}
	out = append(out, "")
	out = append(out, lines[1:]...)
	return strings.Join(out, "\n")
}
