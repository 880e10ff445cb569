package inline

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestLine - Token Expansion
// ---------------------------------------------------------------------------

func TestLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want string
	}{
		{"empty line", "", ""},
		{"plain text untouched", "Some *markdown*", "Some *markdown*"},
		{"details without title", "{<", "<details>\n"},
		{"details with title", "{<Title", "<details><summary>Title</summary>\n"},
		{"details with spaced title", "{< My title ", "<details><summary>My title</summary>\n"},
		{"details level 2", "{<< Warning", "<details><summary class=\"summary-color-2\">Warning</summary>\n"},
		{"details level 3", "{<<<Danger", "<details><summary class=\"summary-color-3\">Danger</summary>\n"},
		{"details level marker only", "{<<<", "<details>\n"},
		{"details end", ">}", "</details>\n"},
		{"details end after text", "last words >}", "</details>\n"},
		{"columns start bare", "{|", "<div class=\"contains-vertical-columns\"><div class=\"vertical-column\">\n"},
		{
			"columns start with title",
			"{| first column",
			"<div class=\"contains-vertical-columns\"><div class=\"vertical-column\"><div class=\"vertical-column-title\">First column</div>\n",
		},
		{
			"columns start with weights",
			"{|12",
			"<div class=\"contains-vertical-columns\" style=\"grid-template-columns: 1fr 2fr;\"><div class=\"vertical-column\">\n",
		},
		{
			"columns start with weights and title",
			"{|213 left side",
			"<div class=\"contains-vertical-columns\" style=\"grid-template-columns: 2fr 1fr 3fr;\"><div class=\"vertical-column\"><div class=\"vertical-column-title\">Left side</div>\n",
		},
		{
			"columns start word glued to token is a title",
			"{|intro",
			"<div class=\"contains-vertical-columns\"><div class=\"vertical-column\"><div class=\"vertical-column-title\">Intro</div>\n",
		},
		{"columns add", ".|", "</div><div class=\"vertical-column\">\n"},
		{
			"columns add with title",
			".| ébauche",
			"</div><div class=\"vertical-column\"><div class=\"vertical-column-title\">Ébauche</div>\n",
		},
		{"columns end", "|}", "</div></div>\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Line(tt.line); got != tt.want {
				t.Errorf("Line(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRender - Whole Segments
// ---------------------------------------------------------------------------

func TestRender_ExpandableSection(t *testing.T) {
	t.Parallel()

	got := Render("Intro\n{<Title\nhidden\n>}\nOutro")

	want := "Intro\n<details><summary>Title</summary>\n\nhidden\n</details>\n\nOutro\n"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}

	// Ignoring the spacer lines, the section reads as a single details block.
	compact := strings.ReplaceAll(got, "\n\n", "\n")
	if !strings.Contains(compact, "<details><summary>Title</summary>\nhidden\n</details>") {
		t.Errorf("Render() = %q, missing details block", got)
	}
}

func TestRender_PreservesLineCount(t *testing.T) {
	t.Parallel()

	in := "a\n\nb\nc"
	if got := Render(in); got != in+"\n" {
		t.Errorf("Render(%q) = %q, want input plus trailing newline", in, got)
	}
}

func TestCapitalize(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":      "",
		"a":     "A",
		"hello": "Hello",
		"Hello": "Hello",
		"éa":    "Éa",
		"1st":   "1st",
	}
	for in, want := range tests {
		if got := Capitalize(in); got != want {
			t.Errorf("Capitalize(%q) = %q, want %q", in, got, want)
		}
	}
}
