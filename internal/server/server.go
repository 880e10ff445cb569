// Package server streams rendered previews to the browser.
//
// One render loop drains the update mailbox, renders the document and
// fans the HTML out to every connected event stream. Each stream has its own
// single-slot mailbox, so a slow tab only ever sees the newest preview.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mdlive/internal/fileutil"
	"github.com/alnah/go-mdlive/internal/notify"
	"github.com/alnah/go-mdlive/internal/pipeline"
)

// Timeouts for the HTTP side.
const (
	DefaultShutdownTimeout = 5 * time.Second
	readHeaderTimeout      = 10 * time.Second
	retryMillis            = 60000
)

// ErrNoDocument is returned by exports before anything has been rendered.
var ErrNoDocument = errors.New("nothing rendered yet")

// MarkdownRenderer turns enhanced markdown into standard markdown.
type MarkdownRenderer interface {
	Render(ctx context.Context, doc string, resetCache bool) (string, error)
}

// PDFPrinter prints a full HTML page. baseDir resolves relative resources.
type PDFPrinter interface {
	Print(ctx context.Context, page, baseDir string) ([]byte, error)
}

// Result is one rendered version of the document.
type Result struct {
	HTML     string // body fragment
	Markdown string // standard markdown, diagrams inlined as SVG
	Version  int
}

// Server owns the render loop and the HTTP handlers.
type Server struct {
	renderer  MarkdownRenderer
	converter pipeline.HTMLConverter
	pages     *Pages
	printer   PDFPrinter
	updates   *notify.Mailbox[notify.Update]
	logger    *slog.Logger

	readRetries int
	readDelay   time.Duration
	origin      string

	mu      sync.RWMutex
	docPath string
	latest  *Result
	subs    map[string]*notify.Mailbox[Result]
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Nil keeps the discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDocument sets the watched file. It is rendered for every new stream
// until a newer update arrives.
func WithDocument(path string) Option {
	return func(s *Server) { s.docPath = path }
}

// WithReadRetries sets how a changed file is read: editors often truncate
// before writing, so an empty or missing file is retried.
func WithReadRetries(attempts int, delay time.Duration) Option {
	return func(s *Server) {
		if attempts > 0 {
			s.readRetries = attempts
		}
		if delay > 0 {
			s.readDelay = delay
		}
	}
}

// WithPDFPrinter enables GET /export/pdf.
func WithPDFPrinter(p PDFPrinter) Option {
	return func(s *Server) { s.printer = p }
}

// WithOrigin sets the URL the preview page connects back to.
func WithOrigin(origin string) Option {
	return func(s *Server) { s.origin = origin }
}

// New creates a Server reading updates from the given mailbox.
func New(r MarkdownRenderer, conv pipeline.HTMLConverter, pages *Pages,
	updates *notify.Mailbox[notify.Update], opts ...Option,
) *Server {
	s := &Server{
		renderer:    r,
		converter:   conv,
		pages:       pages,
		updates:     updates,
		logger:      slog.New(slog.DiscardHandler),
		readRetries: 3,
		readDelay:   100 * time.Millisecond,
		subs:        make(map[string]*notify.Mailbox[Result]),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run renders every update until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	version := 0
	for {
		u, err := s.updates.Receive(ctx)
		if err != nil {
			return err
		}
		res, err := s.render(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("render failed", "error", err)
			continue
		}
		version++
		res.Version = version
		s.publish(res)
	}
}

func (s *Server) render(ctx context.Context, u notify.Update) (Result, error) {
	text := u.Text
	if !u.Inline() {
		data, err := fileutil.ReadWithRetry(ctx, u.Path, s.readRetries, s.readDelay)
		if err != nil {
			return Result{}, err
		}
		text = string(data)
		s.mu.Lock()
		s.docPath = u.Path
		s.mu.Unlock()
	}

	start := time.Now()
	md, err := s.renderer.Render(ctx, text, u.ResetCache)
	if err != nil {
		return Result{}, err
	}
	html, err := s.converter.ToHTML(ctx, md)
	if err != nil {
		return Result{}, err
	}
	s.logger.Debug("rendered", "path", u.Path, "bytes", len(html), "duration", time.Since(start))
	return Result{HTML: html, Markdown: md}, nil
}

func (s *Server) publish(res Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = &res
	for _, mb := range s.subs {
		mb.Send(res)
	}
}

// Latest returns the newest rendered result.
func (s *Server) Latest() (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return Result{}, false
	}
	return *s.latest, true
}

// Document returns the file currently followed, if any.
func (s *Server) Document() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docPath
}

func (s *Server) subscribe() (string, *notify.Mailbox[Result]) {
	id := uuid.NewString()
	mb := notify.NewMailbox[Result]()
	s.mu.Lock()
	s.subs[id] = mb
	s.mu.Unlock()
	return id, mb
}

func (s *Server) unsubscribe(id string) {
	s.mu.Lock()
	delete(s.subs, id)
	s.mu.Unlock()
}

// Subscribers returns the number of open event streams.
func (s *Server) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Serve runs the render loop and the HTTP server on ln until ctx is done,
// then shuts down within DefaultShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Run(gctx)
	})
	g.Go(func() error {
		defer closeQuietly(ln)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// docDir is the directory static files and exports resolve against.
func (s *Server) docDir() string {
	if p := s.Document(); p != "" {
		return filepath.Dir(p)
	}
	return "."
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
