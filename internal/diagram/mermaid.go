package diagram

import (
	"context"
	"os"
	"strings"

	"github.com/alnah/go-mdlive/internal/fileutil"
)

// DefaultMermaidBin is the mermaid-cli binary looked up on PATH.
const DefaultMermaidBin = "mmdc"

// Mermaid compiles ```mmd blocks with mermaid-cli. mmdc only writes SVG
// to a file, so each compilation reserves a temporary output path.
type Mermaid struct {
	Bin    string
	Runner CommandRunner
}

var _ Compiler = (*Mermaid)(nil)

// NewMermaid creates a Mermaid compiler using mmdc on PATH.
func NewMermaid(runner CommandRunner) *Mermaid {
	return &Mermaid{Bin: DefaultMermaidBin, Runner: runner}
}

func (m *Mermaid) Dialect() Dialect {
	return Dialect{Class: "mermaid", Label: "Mermaid", Comment: "%%"}
}

func (m *Mermaid) Compile(ctx context.Context, snippet string) Compilation {
	_, body := splitSnippet(snippet)

	out, cleanup, err := fileutil.TempPath("svg")
	if err != nil {
		return Compilation{Incident: err}
	}
	defer cleanup()

	bin := m.Bin
	if bin == "" {
		bin = DefaultMermaidBin
	}
	args := []string{"--input", "-", "--backgroundColor", "transparent", "--output", out}

	res, err := m.Runner.Run(ctx, Command{Name: bin, Args: args, Stdin: body + "\n"})
	if err != nil {
		return Compilation{Incident: err}
	}
	if res.ExitCode == 1 && mermaidRuntimeMissing(res.Stderr) {
		return Compilation{Incident: runtimeFailure(res.Stderr)}
	}

	svg, _ := os.ReadFile(out) // #nosec G304 -- path created by TempPath
	return Compilation{SVG: string(svg), Stderr: StripANSI(res.Stderr)}
}

// mermaidRuntimeMissing matches "node: not found" style failures but not
// stack traces that merely mention node_modules.
func mermaidRuntimeMissing(stderr string) bool {
	if strings.Contains(stderr, "mmdc") {
		return true
	}
	return strings.Contains(stderr, "node") && !strings.Contains(stderr, "node_modules")
}
