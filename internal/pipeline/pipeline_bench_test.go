//go:build bench

package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// BenchmarkGoldmarkToHTML measures the conversion run on every keystroke
// update, with diagrams already rendered to inline SVG.
func BenchmarkGoldmarkToHTML(b *testing.B) {
	converter := NewGoldmarkConverter()
	ctx := context.Background()

	for _, sections := range []int{1, 10, 50, 200} {
		content := renderedNotes(sections)
		b.Run(fmt.Sprintf("sections_%d", sections), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := converter.ToHTML(ctx, content); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkMarkHighlights(b *testing.B) {
	content := renderedNotes(50)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = MarkHighlights(content)
	}
}

func BenchmarkAbsolutizePaths(b *testing.B) {
	content := strings.Repeat(`<p><img src="img/a.png"><a href="#x">x</a></p>`, 200)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := AbsolutizePaths(content, "/docs"); err != nil {
			b.Fatal(err)
		}
	}
}

func renderedNotes(sections int) string {
	var sb strings.Builder
	sb.WriteString("# Meeting notes\n\n")
	for i := 0; i < sections; i++ {
		fmt.Fprintf(&sb, "## Topic %d\n\nA ==key== point with `code`.\n\n", i+1)
		sb.WriteString("<details><summary>More</summary>\n\n- one\n- two\n</details>\n\n")
		if i%3 == 0 {
			sb.WriteString("<div class=\"generated-diagram-d2\">\n")
			sb.WriteString(`<svg width="200" height="100"><rect width="10" height="10"/></svg>`)
			sb.WriteString("\n</div>\n\n")
		}
		if i%5 == 0 {
			sb.WriteString("| 2rows | id |\n| -- | -- |\n| #1 | 1 |\n| #2 | 2 |\n\n")
		}
	}
	return sb.String()
}
