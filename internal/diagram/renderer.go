package diagram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alnah/go-mdlive/internal/cache"
	"github.com/alnah/go-mdlive/internal/hints"
	"github.com/alnah/go-mdlive/internal/segment"
	"github.com/alnah/go-mdlive/internal/similarity"
)

// DefaultTimeout bounds one compiler run.
const DefaultTimeout = 30 * time.Second

// ErrTimeout indicates a compiler did not finish within the timeout.
var ErrTimeout = errors.New("diagram compilation timed out")

// Gate limits how many compilers run at once.
type Gate interface {
	Acquire(ctx context.Context) error
	Release()
}

type openGate struct{}

func (openGate) Acquire(ctx context.Context) error { return ctx.Err() }
func (openGate) Release()                          {}

// Renderer turns diagram segments into embeddable HTML fragments.
//
// Render never fails: syntax errors and missing compilers become visible
// fragments, masked by the cache's last-known-good diagram when the
// failing source still looks like it.
type Renderer struct {
	compilers map[segment.Kind]Compiler
	cache     *cache.Cache
	matcher   *similarity.Matcher
	minifier  *Minifier
	gate      Gate
	logger    *slog.Logger
	timeout   time.Duration
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCompiler sets the compiler used for kind.
func WithCompiler(kind segment.Kind, c Compiler) Option {
	return func(r *Renderer) {
		if c != nil {
			r.compilers[kind] = c
		}
	}
}

// WithGate bounds concurrent compilations.
func WithGate(g Gate) Option {
	return func(r *Renderer) {
		if g != nil {
			r.gate = g
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTimeout sets the per-compile timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Renderer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMatcher replaces the similarity matcher used for fallback decisions.
func WithMatcher(m *similarity.Matcher) Option {
	return func(r *Renderer) {
		if m != nil {
			r.matcher = m
		}
	}
}

// NewRenderer creates a renderer backed by c. Without WithCompiler options
// it runs d2, java and mmdc from PATH.
func NewRenderer(c *cache.Cache, opts ...Option) *Renderer {
	runner := &ExecRunner{}
	r := &Renderer{
		compilers: map[segment.Kind]Compiler{
			segment.DeclarativeDiagram: NewD2(runner),
			segment.SequenceDiagram:    NewPlantUML("plantuml.jar", runner),
			segment.FlowDiagram:        NewMermaid(runner),
		},
		cache:    c,
		matcher:  similarity.New(),
		minifier: NewMinifier(),
		gate:     openGate{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render returns the HTML fragment for a diagram segment.
func (r *Renderer) Render(ctx context.Context, seg segment.Segment) string {
	if out, ok := r.cache.Get(seg.Content); ok {
		return out
	}

	comp, ok := r.compilers[seg.Kind]
	if !ok {
		return seg.Content
	}
	d := comp.Dialect()

	result := r.compile(ctx, comp, seg)
	if result.OK() {
		out := Wrap(d.Class, r.minifier.SVG(result.SVG), true)
		r.cache.PutDiagram(seg.Content, out)
		return out
	}

	if lkg, ok := r.cache.LastKnownGood(); ok && r.matcher.LooksLike(seg.Content, lkg.Description) {
		r.logger.Debug("diagram failed, keeping last good render",
			"kind", seg.Kind.String(), "line", seg.FirstLine)
		return lkg.Rendered
	}

	if result.Incident != nil {
		r.logger.Warn("diagram compiler unavailable",
			"kind", seg.Kind.String(), "line", seg.FirstLine, "error", result.Incident)
		return IncidentFragment(d, seg.Content, r.incidentMessage(d, result))
	}

	r.logger.Warn("diagram does not build", "kind", seg.Kind.String(), "line", seg.FirstLine)
	return SyntaxFragment(d, result.Stderr, result.Description)
}

func (r *Renderer) compile(ctx context.Context, comp Compiler, seg segment.Segment) Compilation {
	if err := r.gate.Acquire(ctx); err != nil {
		return Compilation{Incident: err}
	}
	defer r.gate.Release()

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	result := comp.Compile(cctx, seg.Content)
	r.logger.Debug("diagram compiled",
		"kind", seg.Kind.String(), "line", seg.FirstLine, "duration", time.Since(start), "ok", result.OK())

	if result.Incident != nil && errors.Is(result.Incident, context.DeadlineExceeded) && ctx.Err() == nil {
		result.Incident = fmt.Errorf("%w after %s", ErrTimeout, r.timeout)
	}
	return result
}

func (r *Renderer) incidentMessage(d Dialect, result Compilation) string {
	msg := result.Incident.Error()
	switch {
	case errors.Is(result.Incident, ErrLaunch), errors.Is(result.Incident, ErrRuntime):
		msg += hints.ForCompiler(d.Class)
	case errors.Is(result.Incident, ErrTimeout):
		msg += hints.ForTimeout()
	}
	if result.Description != "" {
		msg += "\n" + result.Description
	}
	return msg
}
