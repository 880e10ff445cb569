package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	quiet     bool
	verbose   bool
	logFormat string
}

// assetFlags holds style and asset directory flags.
type assetFlags struct {
	style          string // name, CSS file path or inline CSS
	highlightStyle string // chroma style for code blocks
	assetPath      string // override asset directory
}

// serverFlags holds the preview server binding.
type serverFlags struct {
	host      string
	port      int
	noBrowser bool
	stdin     bool
}

// renderFlags holds diagram compilation flags.
type renderFlags struct {
	workers int
	timeout string
}

// serveFlags holds all flags for the preview command.
type serveFlags struct {
	common commonFlags
	assets assetFlags
	server serverFlags
	render renderFlags
	html   bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text, json")
}

// addAssetFlags adds asset-related flags to a FlagSet.
func addAssetFlags(fs *flag.FlagSet, f *assetFlags) {
	fs.StringVar(&f.style, "style", "", "CSS style name or file path")
	fs.StringVar(&f.highlightStyle, "highlight-style", "", "code highlight style (chroma name)")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
}

// addServerFlags adds preview server flags to a FlagSet.
func addServerFlags(fs *flag.FlagSet, f *serverFlags) {
	fs.StringVar(&f.host, "host", "", "listen host (default localhost)")
	fs.IntVarP(&f.port, "port", "p", 0, "listen port (0 = random in 5000-5300)")
	fs.BoolVar(&f.noBrowser, "no-browser", false, "do not open the preview in a browser")
	fs.BoolVar(&f.stdin, "stdin", false, "read documents terminated by <LiveNote> from stdin")
}

// addRenderFlags adds diagram compilation flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.IntVarP(&f.workers, "workers", "w", 0, "concurrent diagram compilers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-diagram timeout (e.g., 30s, 1m)")
}

// parseServeFlags parses preview flags and returns positional args.
func parseServeFlags(args []string, usage io.Writer) (*serveFlags, []string, error) {
	fs := flag.NewFlagSet("mdlive", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &serveFlags{}

	addCommonFlags(fs, &f.common)
	addAssetFlags(fs, &f.assets)
	addServerFlags(fs, &f.server)
	addRenderFlags(fs, &f.render)
	fs.BoolVar(&f.html, "html", false, "print the rendered HTML page and exit")

	fs.Usage = func() { printUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
