package mdlive

import (
	"log/slog"
	"time"

	"github.com/alnah/go-mdlive/internal/cache"
	"github.com/alnah/go-mdlive/internal/diagram"
	"github.com/alnah/go-mdlive/internal/segment"
	"github.com/alnah/go-mdlive/internal/similarity"
)

// Option configures a Renderer.
type Option func(*rendererConfig)

// Tools locates the external diagram compilers. Empty fields keep the
// defaults: d2, java and mmdc from PATH, plantuml.jar in the working
// directory, the tala layout.
type Tools struct {
	D2Bin       string
	D2Layout    string
	JavaBin     string
	PlantUMLJar string
	MermaidBin  string
}

type rendererConfig struct {
	tools     Tools
	runner    diagram.CommandRunner
	compilers map[segment.Kind]diagram.Compiler
	cacheOpts []cache.Option
	matcher   *similarity.Matcher
	logger    *slog.Logger
	workers   int
	timeout   time.Duration
	gate      diagram.Gate
}

// WithTools sets the compiler locations.
func WithTools(t Tools) Option {
	return func(c *rendererConfig) {
		c.tools = t
	}
}

// WithRunner replaces the subprocess runner shared by the default compilers.
func WithRunner(r diagram.CommandRunner) Option {
	return func(c *rendererConfig) {
		if r != nil {
			c.runner = r
		}
	}
}

// WithCompiler replaces the compiler for one diagram kind.
func WithCompiler(kind segment.Kind, comp diagram.Compiler) Option {
	return func(c *rendererConfig) {
		if c.compilers == nil {
			c.compilers = make(map[segment.Kind]diagram.Compiler)
		}
		c.compilers[kind] = comp
	}
}

// WithCacheOptions tunes the render cache (threshold, freshness, grace, clock).
func WithCacheOptions(opts ...cache.Option) Option {
	return func(c *rendererConfig) {
		c.cacheOpts = append(c.cacheOpts, opts...)
	}
}

// WithMatcher sets the similarity matcher used for last-known-good fallback.
func WithMatcher(m *similarity.Matcher) Option {
	return func(c *rendererConfig) {
		if m != nil {
			c.matcher = m
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *rendererConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithWorkers sets how many diagram compilers may run at once.
// Zero or less picks a size from GOMAXPROCS, see ResolvePoolSize.
func WithWorkers(n int) Option {
	return func(c *rendererConfig) {
		c.workers = n
	}
}

// WithTimeout sets the per-compile timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mdlive: WithTimeout duration must be positive")
	}
	return func(c *rendererConfig) {
		c.timeout = d
	}
}

// WithGate replaces the compiler pool, e.g. to share one pool between
// several renderers.
func WithGate(g diagram.Gate) Option {
	return func(c *rendererConfig) {
		if g != nil {
			c.gate = g
		}
	}
}
