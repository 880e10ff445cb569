package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	mdlive "github.com/alnah/go-mdlive"
	"github.com/alnah/go-mdlive/internal/assets"
	"github.com/alnah/go-mdlive/internal/cache"
	"github.com/alnah/go-mdlive/internal/config"
	"github.com/alnah/go-mdlive/internal/fileutil"
	"github.com/alnah/go-mdlive/internal/hints"
	"github.com/alnah/go-mdlive/internal/notify"
	"github.com/alnah/go-mdlive/internal/pipeline"
	"github.com/alnah/go-mdlive/internal/server"
	"github.com/alnah/go-mdlive/internal/watch"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput  = errors.New("no input specified")
	ErrUsage    = errors.New("invalid usage")
	ErrListen   = errors.New("cannot listen")
	ErrNotAFile = errors.New("not a regular file")
)

// runServe parses flags and runs the preview, or the one-shot HTML render.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	warnUnknownEnvVars(env.Stderr)
	envCfg := loadEnvConfig()

	cfg, err := loadConfig(flags.common.config, envCfg.ConfigPath)
	if err != nil {
		return err
	}
	applyEnvConfig(envCfg, cfg)
	if err := mergeFlags(flags, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logFormat := flags.common.logFormat
	if logFormat == "" {
		logFormat = envCfg.LogFormat
	}
	logger, err := newLogger(env.Stderr, logFormat, flags.common.verbose, flags.common.quiet)
	if err != nil {
		return err
	}

	docPath, err := resolveDocument(positional, flags.server.stdin && !flags.html)
	if err != nil {
		return err
	}

	sess, err := newSession(cfg, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	if flags.html {
		return runOneShot(ctx, sess, cfg, docPath, env.Stdout)
	}
	return runPreview(ctx, sess, cfg, docPath, flags.server.stdin, env, logger)
}

// loadConfig loads the config named by the flag, else by MDLIVE_CONFIG,
// else returns the defaults.
func loadConfig(flagValue, envValue string) (*config.Config, error) {
	name := flagValue
	if name == "" {
		name = envValue
	}
	if name == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadConfig(name)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(nil))
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// mergeFlags applies explicitly set CLI flags on top of cfg (CLI wins).
func mergeFlags(flags *serveFlags, cfg *config.Config) error {
	if flags.assets.style != "" {
		cfg.Preview.Style = flags.assets.style
	}
	if flags.assets.highlightStyle != "" {
		cfg.Preview.HighlightStyle = flags.assets.highlightStyle
	}
	if flags.assets.assetPath != "" {
		cfg.Assets.BasePath = flags.assets.assetPath
	}
	if flags.server.host != "" {
		cfg.Server.Host = flags.server.host
	}
	if flags.server.port != 0 {
		cfg.Server.Port = flags.server.port
	}
	if flags.server.noBrowser {
		cfg.Preview.NoBrowser = true
	}
	if flags.render.workers != 0 {
		cfg.Workers = flags.render.workers
	}
	if flags.render.timeout != "" {
		d, err := time.ParseDuration(flags.render.timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: invalid --timeout %q", ErrUsage, flags.render.timeout)
		}
		cfg.Compilers.Timeout = d
	}
	return nil
}

// resolveDocument returns the absolute path of the previewed document.
// With the stdin feed the document is optional.
func resolveDocument(positional []string, stdinFeed bool) (string, error) {
	switch {
	case len(positional) > 1:
		return "", fmt.Errorf("%w: expected one document, got %d", ErrUsage, len(positional))
	case len(positional) == 0:
		if stdinFeed {
			return "", nil
		}
		return "", fmt.Errorf("%w: pass a markdown file or --stdin", ErrNoInput)
	}

	abs, err := filepath.Abs(positional[0])
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", positional[0], err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("opening document: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrNotAFile, abs)
	}
	return abs, nil
}

// session holds what both modes share: the renderer and the page builder.
type session struct {
	renderer  *mdlive.Renderer
	converter *pipeline.GoldmarkConverter
	resolver  *assets.Resolver
	pages     *server.Pages
}

func newSession(cfg *config.Config, logger *slog.Logger) (*session, error) {
	resolver, err := assets.NewResolver(cfg.Assets.BasePath)
	if err != nil {
		return nil, err
	}

	css, err := resolver.ResolveStyle(cfg.Preview.Style)
	if err != nil {
		_ = resolver.Close()
		if errors.Is(err, assets.ErrStyleNotFound) {
			return nil, fmt.Errorf("%w%s", err, hints.ForStyleNotFound([]string{assets.DefaultStyleName}))
		}
		return nil, err
	}
	highlight, err := pipeline.HighlightCSS(cfg.Preview.HighlightStyle)
	if err != nil {
		_ = resolver.Close()
		return nil, err
	}

	pages, err := server.NewPages(resolver, css+"\n"+highlight)
	if err != nil {
		_ = resolver.Close()
		return nil, err
	}

	return &session{
		renderer:  mdlive.NewRenderer(rendererOptions(cfg, logger)...),
		converter: pipeline.NewGoldmarkConverter(),
		resolver:  resolver,
		pages:     pages,
	}, nil
}

func (s *session) Close() error {
	return s.resolver.Close()
}

// rendererOptions maps the config onto renderer options. Zero values keep
// the renderer's defaults.
func rendererOptions(cfg *config.Config, logger *slog.Logger) []mdlive.Option {
	c := cfg.Compilers
	opts := []mdlive.Option{
		mdlive.WithLogger(logger),
		mdlive.WithWorkers(cfg.Workers),
		mdlive.WithTools(mdlive.Tools{
			D2Bin:       c.D2Bin,
			D2Layout:    c.D2Layout,
			JavaBin:     c.JavaBin,
			PlantUMLJar: c.PlantUMLJar,
			MermaidBin:  c.MermaidBin,
		}),
	}
	if c.Timeout > 0 {
		opts = append(opts, mdlive.WithTimeout(c.Timeout))
	}

	var cacheOpts []cache.Option
	if cfg.Cache.Threshold > 0 {
		cacheOpts = append(cacheOpts, cache.WithThreshold(cfg.Cache.Threshold))
	}
	if cfg.Cache.Freshness > 0 {
		cacheOpts = append(cacheOpts, cache.WithFreshness(cfg.Cache.Freshness))
	}
	if cfg.Cache.GracePeriod > 0 {
		cacheOpts = append(cacheOpts, cache.WithGracePeriod(cfg.Cache.GracePeriod))
	}
	if len(cacheOpts) > 0 {
		opts = append(opts, mdlive.WithCacheOptions(cacheOpts...))
	}
	return opts
}

// runOneShot renders the document once and prints the export page.
func runOneShot(ctx context.Context, sess *session, cfg *config.Config, docPath string, out io.Writer) error {
	if docPath == "" {
		return fmt.Errorf("%w: --html needs a markdown file", ErrNoInput)
	}
	data, err := fileutil.ReadWithRetry(ctx, docPath, cfg.Server.ReadRetries, cfg.Server.ReadDelay)
	if err != nil {
		return err
	}
	md, err := sess.renderer.Render(ctx, string(data), false)
	if err != nil {
		return err
	}
	body, err := sess.converter.ToHTML(ctx, md)
	if err != nil {
		return err
	}
	page, err := sess.pages.Export(ctx, fileutil.BaseName(docPath), body)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, page)
	return err
}

// runPreview serves the live preview until ctx is done or the stdin feed
// ends.
func runPreview(ctx context.Context, sess *session, cfg *config.Config, docPath string,
	stdinFeed bool, env *Environment, logger *slog.Logger,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ln, err := server.Listen(cfg.Server.Host, cfg.Server.Port, cfg.Server.PortMin, cfg.Server.PortMax)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrListen, err)
	}
	port := server.Port(ln)
	origin := "http://" + net.JoinHostPort(cfg.Server.Host, strconv.Itoa(port))

	printer := mdlive.NewPDFPrinter(0)
	defer printer.Close()

	updates := notify.NewMailbox[notify.Update]()
	srv := server.New(sess.renderer, sess.converter, sess.pages, updates,
		server.WithLogger(logger),
		server.WithDocument(docPath),
		server.WithReadRetries(cfg.Server.ReadRetries, cfg.Server.ReadDelay),
		server.WithPDFPrinter(printer),
		server.WithOrigin(origin),
	)

	g, gctx := errgroup.WithContext(ctx)

	title := "mdlive"
	if docPath != "" {
		w, err := watch.New(docPath, watch.WithLogger(logger))
		if err != nil {
			_ = ln.Close()
			return err
		}
		defer w.Close()
		g.Go(func() error { return w.Run(gctx, updates) })
		updates.Send(notify.Update{Path: docPath})
		title = fileutil.BaseName(docPath)
	}

	if stdinFeed {
		// Not in the group: a blocked read must not hold up shutdown.
		go func() {
			if err := notify.ReadFeed(ctx, env.Stdin, updates); err != nil && ctx.Err() == nil {
				logger.Warn("stdin feed failed", "error", err)
			}
			logger.Info("stdin feed closed")
			cancel()
		}()
	}

	page, err := sess.pages.Preview(ctx, title, origin)
	if err != nil {
		_ = ln.Close()
		return err
	}
	pageDir := ""
	if docPath != "" {
		pageDir = filepath.Dir(docPath)
	}
	pagePath, cleanup, err := server.WritePreviewPage(pageDir, port, page)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer cleanup()

	g.Go(func() error { return srv.Serve(gctx, ln) })

	logger.Info("preview ready", "url", origin+"/preview", "page", pagePath)
	if !cfg.Preview.NoBrowser && env.OpenBrowser != nil {
		env.OpenBrowser("file://" + filepath.ToSlash(pagePath))
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("preview stopped")
	return nil
}
