// Package inline expands the structural tokens of enhanced markdown
// (expandable sections and multi-column layouts) into raw HTML.
package inline

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alnah/go-mdlive/internal/segment"
)

// Render expands token lines in text and leaves every other line untouched.
// Each token line becomes an HTML line followed by an empty line so that the
// markdown between wrapper tags is still parsed as markdown.
func Render(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		b.WriteString(Line(line))
		b.WriteByte('\n')
	}
	return b.String()
}

// Line expands a single line.
func Line(line string) string {
	switch {
	case line == "":
		return ""
	case strings.HasPrefix(line, segment.ExpandableStart):
		return expandableStart(line)
	case strings.HasSuffix(line, segment.ExpandableEnd):
		return "</details>\n"
	case strings.HasPrefix(line, segment.ColumnsStart):
		return columnsStart(line)
	case strings.HasPrefix(line, segment.ColumnsAdd):
		return columnsAdd(line)
	case strings.HasPrefix(line, segment.ColumnsEnd):
		return "</div></div>\n"
	default:
		return line
	}
}

// expandableStart handles "{<Title", "{<<Title" and "{<<<Title".
func expandableStart(line string) string {
	var b strings.Builder
	b.WriteString("<details>")

	title := strings.Trim(line[len(segment.ExpandableStart):], "< ")
	if title != "" {
		b.WriteString("<summary")
		switch {
		case strings.HasPrefix(line, "{<<<"):
			b.WriteString(` class="summary-color-3"`)
		case strings.HasPrefix(line, "{<<"):
			b.WriteString(` class="summary-color-2"`)
		}
		b.WriteString(">")
		b.WriteString(title)
		b.WriteString("</summary>")
	}

	b.WriteByte('\n')
	return b.String()
}

// columnsStart handles "{|", "{| Title" and "{|12 Title".
// A leading run of digits right after the token sets relative column widths.
func columnsStart(line string) string {
	var b strings.Builder
	b.WriteString(`<div class="contains-vertical-columns"`)

	rest := line[len(segment.ColumnsStart):]
	title := strings.TrimSpace(rest)
	if rest != "" && !unicode.IsSpace(rune(rest[0])) {
		fields := strings.Fields(rest)
		if isWeights(fields[0]) {
			b.WriteString(` style="grid-template-columns:`)
			for _, w := range fields[0] {
				b.WriteByte(' ')
				b.WriteRune(w)
				b.WriteString("fr")
			}
			b.WriteString(`;"`)
			title = strings.Join(fields[1:], " ")
		}
	}

	b.WriteString(`><div class="vertical-column">`)
	writeColumnTitle(&b, title)
	b.WriteByte('\n')
	return b.String()
}

// columnsAdd handles ".|" and ".| Title".
func columnsAdd(line string) string {
	var b strings.Builder
	b.WriteString(`</div><div class="vertical-column">`)
	writeColumnTitle(&b, strings.TrimSpace(line[len(segment.ColumnsAdd):]))
	b.WriteByte('\n')
	return b.String()
}

func writeColumnTitle(b *strings.Builder, title string) {
	if title == "" {
		return
	}
	b.WriteString(`<div class="vertical-column-title">`)
	b.WriteString(Capitalize(title))
	b.WriteString(`</div>`)
}

func isWeights(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
