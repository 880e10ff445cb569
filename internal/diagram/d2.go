package diagram

import (
	"context"
	"os"
	"strings"

	"github.com/alnah/go-mdlive/internal/fileutil"
	"github.com/alnah/go-mdlive/internal/segment"
)

// Defaults for the d2 compiler.
const (
	DefaultD2Bin    = "d2"
	DefaultD2Layout = "tala"
)

// d2Prelude makes the canvas and every layer transparent so the diagram
// blends into the preview theme.
const d2Prelude = "style.fill: transparent\n" +
	"layers.*.style.fill: transparent\n" +
	"**.style.text-transform: capitalize\n"

// animationMarkers flag multi-board diagrams, which d2 can only animate
// when writing to a file.
var animationMarkers = []string{"layers: {", "scenarios: {", "steps: {"}

// D2 compiles ```d2 blocks.
type D2 struct {
	Bin    string
	Layout string
	Runner CommandRunner
}

var _ Compiler = (*D2)(nil)

// NewD2 creates a d2 compiler using the binary on PATH.
func NewD2(runner CommandRunner) *D2 {
	return &D2{Bin: DefaultD2Bin, Layout: DefaultD2Layout, Runner: runner}
}

func (d *D2) Dialect() Dialect {
	return Dialect{Class: "d2", Label: "D2", Comment: "#"}
}

func (d *D2) Compile(ctx context.Context, snippet string) Compilation {
	fence, body := splitSnippet(snippet)
	desc := d2Description(fenceTitle(fence, segment.D2Fence), body)

	if isAnimated(snippet) {
		return d.compileAnimated(ctx, desc)
	}

	args := append(d.baseArgs(), "-")
	res, err := d.Runner.Run(ctx, Command{Name: d.bin(), Args: args, Stdin: desc})
	if err != nil {
		return Compilation{Incident: err}
	}
	return Compilation{SVG: res.Stdout, Stderr: StripANSI(res.Stderr)}
}

func (d *D2) compileAnimated(ctx context.Context, desc string) Compilation {
	in, cleanupIn, err := fileutil.WriteTempFile(desc, "d2")
	if err != nil {
		return Compilation{Incident: err}
	}
	defer cleanupIn()

	out, cleanupOut, err := fileutil.TempPath("svg")
	if err != nil {
		return Compilation{Incident: err}
	}
	defer cleanupOut()

	args := append(d.baseArgs(), "--animate-interval", "1200", in, out)
	res, err := d.Runner.Run(ctx, Command{Name: d.bin(), Args: args})
	if err != nil {
		return Compilation{Incident: err}
	}

	// A missing output file means d2 rejected the input; stderr says why.
	svg, _ := os.ReadFile(out) // #nosec G304 -- path created by TempPath
	return Compilation{SVG: string(svg), Stderr: StripANSI(res.Stderr)}
}

func (d *D2) baseArgs() []string {
	layout := d.Layout
	if layout == "" {
		layout = DefaultD2Layout
	}
	return []string{"--force-appendix", "--scale", "0.7", "--pad", "42", "-t", "300", "-l", layout}
}

func (d *D2) bin() string {
	if d.Bin == "" {
		return DefaultD2Bin
	}
	return d.Bin
}

func d2Description(title, body string) string {
	var b strings.Builder
	b.WriteString(d2Prelude)
	if title != "" {
		b.WriteString("\ntitle: {\n")
		b.WriteString("\tlabel: " + title + "\n")
		b.WriteString("\tnear: top-center\n")
		b.WriteString("\tshape: text\n")
		b.WriteString("\tstyle.font-size: 40\n")
		b.WriteString("\tstyle.underline: true\n")
		b.WriteString("}\n")
	}
	b.WriteString(body)
	b.WriteString("\n")
	return b.String()
}

func isAnimated(snippet string) bool {
	for _, marker := range animationMarkers {
		if strings.Contains(snippet, marker) {
			return true
		}
	}
	return false
}
