package diagram

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrRuntime indicates the compiler ran but its runtime (java, node) or
// the compiler itself could not be found.
var ErrRuntime = errors.New("compiler runtime failure")

// Dialect holds the presentation details of one diagram language.
type Dialect struct {
	// Class is the suffix of the generated-diagram-* container class.
	Class string
	// Label names the language in error fragments.
	Label string
	// Comment is the line comment prefix of the language.
	Comment string
}

// Compilation is the outcome of one compiler run.
//
// A compilation succeeded when Incident is nil and SVG is not blank.
// Otherwise Stderr (and Description, when set) explain the syntax error,
// or Incident explains why the compiler could not run at all.
type Compilation struct {
	SVG         string
	Stderr      string
	Description string
	Incident    error
}

// OK reports whether the compilation produced a diagram.
func (c Compilation) OK() bool {
	return c.Incident == nil && strings.TrimSpace(c.SVG) != ""
}

// Compiler turns a fenced diagram snippet into SVG with an external tool.
type Compiler interface {
	Dialect() Dialect
	Compile(ctx context.Context, snippet string) Compilation
}

var ansiCodes = regexp.MustCompile(`\x1B\[[^@-~]*[@-~]`)

// StripANSI removes terminal color sequences.
func StripANSI(s string) string {
	return ansiCodes.ReplaceAllString(s, "")
}

// splitSnippet returns the opening fence line and the body between fences.
func splitSnippet(snippet string) (fence, body string) {
	lines := strings.Split(snippet, "\n")
	fence = lines[0]
	if len(lines) < 3 {
		return fence, ""
	}
	return fence, strings.Join(lines[1:len(lines)-1], "\n")
}

// fenceTitle returns the text following token on the fence line.
func fenceTitle(fenceLine, token string) string {
	if !strings.HasPrefix(fenceLine, token) {
		return ""
	}
	return strings.TrimSpace(fenceLine[len(token):])
}

// runtimeFailure builds the incident for a compiler whose runtime is missing.
func runtimeFailure(stderr string) error {
	return fmt.Errorf("%w: %s", ErrRuntime, strings.TrimSpace(StripANSI(stderr)))
}
