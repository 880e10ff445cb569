package diagram

import (
	"context"
	"strings"

	"github.com/alnah/go-mdlive/internal/segment"
)

// DefaultJavaBin is the java launcher looked up on PATH.
const DefaultJavaBin = "java"

// PlantUML compiles ```puml and ```puml_mindmap blocks with plantuml.jar.
type PlantUML struct {
	Java   string
	Jar    string
	Runner CommandRunner
}

var _ Compiler = (*PlantUML)(nil)

// NewPlantUML creates a PlantUML compiler for the given jar.
func NewPlantUML(jar string, runner CommandRunner) *PlantUML {
	return &PlantUML{Java: DefaultJavaBin, Jar: jar, Runner: runner}
}

func (p *PlantUML) Dialect() Dialect {
	return Dialect{Class: "plantuml", Label: "Plantuml", Comment: "'"}
}

func (p *PlantUML) Compile(ctx context.Context, snippet string) Compilation {
	fence, body := splitSnippet(snippet)
	desc := plantUMLDescription(fence, body)

	java := p.Java
	if java == "" {
		java = DefaultJavaBin
	}
	args := []string{"-Dfile.encoding=UTF8", "-jar", p.Jar, "-tsvg", "-stdrpt:1", "-pipe"}

	res, err := p.Runner.Run(ctx, Command{Name: java, Args: args, Stdin: desc})
	if err != nil {
		return Compilation{Incident: err, Description: desc}
	}
	if res.ExitCode == 1 && p.runtimeMissing(res.Stderr) {
		return Compilation{Incident: runtimeFailure(res.Stderr), Description: desc}
	}

	// With -stdrpt the jar reports syntax errors on stderr and still
	// writes an error image on stdout, so stderr alone decides.
	if strings.TrimSpace(res.Stderr) != "" {
		return Compilation{Stderr: StripANSI(res.Stderr), Description: desc}
	}
	return Compilation{SVG: res.Stdout, Description: desc}
}

func (p *PlantUML) runtimeMissing(stderr string) bool {
	if strings.Contains(stderr, "java") {
		return true
	}
	return p.Jar != "" && strings.Contains(stderr, p.Jar)
}

func plantUMLDescription(fence, body string) string {
	mindmap := strings.HasPrefix(fence, segment.PlantUMLMindmapFence)

	var b strings.Builder
	title := fenceTitle(fence, segment.PlantUMLFence)
	if mindmap {
		b.WriteString("@startmindmap\n")
		title = fenceTitle(fence, segment.PlantUMLMindmapFence)
	}
	if title != "" {
		b.WriteString("title <u>" + title + "</u>\n")
	}
	b.WriteString(body)
	b.WriteString("\nskinparam backgroundColor transparent\n")
	if mindmap {
		b.WriteString("@endmindmap\n")
	}
	return b.String()
}
