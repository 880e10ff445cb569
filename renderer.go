package mdlive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mdlive/internal/cache"
	"github.com/alnah/go-mdlive/internal/datatable"
	"github.com/alnah/go-mdlive/internal/diagram"
	"github.com/alnah/go-mdlive/internal/inline"
	"github.com/alnah/go-mdlive/internal/segment"
	"github.com/alnah/go-mdlive/internal/similarity"
)

// Renderer turns enhanced markdown into standard markdown. It is safe for
// concurrent use, though a preview drives it from a single goroutine.
type Renderer struct {
	cache    *cache.Cache
	diagrams *diagram.Renderer
	logger   *slog.Logger
}

// NewRenderer creates a Renderer with its own cache and compiler pool.
func NewRenderer(opts ...Option) *Renderer {
	cfg := rendererConfig{
		runner:  &diagram.ExecRunner{},
		matcher: similarity.New(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout: diagram.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.gate == nil {
		cfg.gate = NewCompilerPool(ResolvePoolSize(cfg.workers))
	}

	c := cache.New(cfg.cacheOpts...)

	dopts := []diagram.Option{
		diagram.WithGate(cfg.gate),
		diagram.WithLogger(cfg.logger),
		diagram.WithTimeout(cfg.timeout),
		diagram.WithMatcher(cfg.matcher),
	}
	for kind, comp := range defaultCompilers(cfg.tools, cfg.runner) {
		if override, ok := cfg.compilers[kind]; ok {
			comp = override
		}
		dopts = append(dopts, diagram.WithCompiler(kind, comp))
	}

	return &Renderer{
		cache:    c,
		diagrams: diagram.NewRenderer(c, dopts...),
		logger:   cfg.logger,
	}
}

func defaultCompilers(t Tools, runner diagram.CommandRunner) map[segment.Kind]diagram.Compiler {
	d2 := diagram.NewD2(runner)
	if t.D2Bin != "" {
		d2.Bin = t.D2Bin
	}
	if t.D2Layout != "" {
		d2.Layout = t.D2Layout
	}

	jar := t.PlantUMLJar
	if jar == "" {
		jar = "plantuml.jar"
	}
	puml := diagram.NewPlantUML(jar, runner)
	if t.JavaBin != "" {
		puml.Java = t.JavaBin
	}

	mmd := diagram.NewMermaid(runner)
	if t.MermaidBin != "" {
		mmd.Bin = t.MermaidBin
	}

	return map[segment.Kind]diagram.Compiler{
		segment.DeclarativeDiagram: d2,
		segment.SequenceDiagram:    puml,
		segment.FlowDiagram:        mmd,
	}
}

// Render converts doc into standard markdown. With resetCache every
// fragment is rebuilt, diagrams included.
//
// Segments render concurrently and are reassembled in document order. A
// failing segment becomes an error fragment in place; only a document
// whose blocks cannot be partitioned fails the call, with ErrStructure.
func (r *Renderer) Render(ctx context.Context, doc string, resetCache bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if resetCache {
		r.cache.Reset()
	}

	seq, err := segment.Partition(doc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStructure, err)
	}

	segs := seq.Segments()
	fragments := make([]string, len(segs))

	g, gctx := errgroup.WithContext(ctx)
	for i, seg := range segs {
		g.Go(func() error {
			fragments[i] = r.renderSegment(gctx, seg)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, f := range fragments {
		b.WriteString(f)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// ResetCache drops every cached fragment and the last-known-good diagram.
func (r *Renderer) ResetCache() {
	r.cache.Reset()
}

func (r *Renderer) renderSegment(ctx context.Context, seg segment.Segment) (out string) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("segment renderer panicked",
				"kind", seg.Kind.String(), "line", seg.FirstLine, "panic", p, "stack", string(debug.Stack()))
			out = errorFragment(fmt.Sprintf("%s block at line %d failed to render", seg.Kind, seg.FirstLine),
				fmt.Sprint(p))
		}
	}()

	switch {
	case seg.Kind.IsDiagram():
		return r.diagrams.Render(ctx, seg)
	case seg.Kind == segment.DataTable:
		return r.renderData(seg)
	default:
		return r.renderPlain(seg)
	}
}

func (r *Renderer) renderPlain(seg segment.Segment) string {
	if out, ok := r.cache.Get(seg.Content); ok {
		return out
	}
	out := inline.Render(seg.Content)
	r.cache.Put(seg.Content, out)
	return out
}

func (r *Renderer) renderData(seg segment.Segment) string {
	if out, ok := r.cache.Get(seg.Content); ok {
		return out
	}
	out, err := datatable.Render(seg.Content)
	if err != nil {
		r.logger.Warn("data block does not parse", "line", seg.FirstLine, "error", err)
		return errorFragment("Data block does not build", err.Error())
	}
	r.cache.Put(seg.Content, out)
	return out
}

// errorFragment renders a visible fenced block carrying title and detail.
func errorFragment(title, detail string) string {
	return "\n```\n⚠️ " + title + "\n\n" + strings.TrimSpace(detail) + "\n```\n"
}
