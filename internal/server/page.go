package server

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"

	"github.com/alnah/go-mdlive/internal/assets"
	"github.com/alnah/go-mdlive/internal/pipeline"
)

// Pages executes the preview and export templates and injects the page CSS.
type Pages struct {
	preview  *template.Template
	export   *template.Template
	css      string
	injector pipeline.CSSInjector
}

type previewData struct {
	Title  string
	Origin string
}

type exportData struct {
	Title string
	Body  template.HTML
}

// NewPages parses both templates from loader. css is injected into every
// page; it usually is the resolved style followed by the highlight CSS.
func NewPages(loader assets.Loader, css string) (*Pages, error) {
	preview, err := parseTemplate(loader, assets.PreviewTemplate)
	if err != nil {
		return nil, err
	}
	export, err := parseTemplate(loader, assets.ExportTemplate)
	if err != nil {
		return nil, err
	}
	return &Pages{preview: preview, export: export, css: css, injector: &pipeline.CSSInjection{}}, nil
}

func parseTemplate(loader assets.Loader, name string) (*template.Template, error) {
	src, err := loader.LoadTemplate(name)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(name).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s template: %w", name, err)
	}
	return tmpl, nil
}

// Preview returns the page opened in the browser. It connects back to
// origin for the event stream, reloads and exports.
func (p *Pages) Preview(ctx context.Context, title, origin string) (string, error) {
	return p.execute(ctx, p.preview, previewData{Title: title, Origin: origin})
}

// Export returns a standalone page wrapping an HTML fragment.
func (p *Pages) Export(ctx context.Context, title, body string) (string, error) {
	// body comes from our own markdown conversion, raw HTML included.
	return p.execute(ctx, p.export, exportData{Title: title, Body: template.HTML(body)}) // #nosec G203
}

func (p *Pages) execute(ctx context.Context, tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing %s template: %w", tmpl.Name(), err)
	}
	return p.injector.InjectCSS(ctx, buf.String(), p.css), nil
}

// WritePreviewPage writes the preview page as {port}.html into dir, next to
// the document so relative resources resolve from file://. An empty dir
// uses the temp directory. The returned cleanup removes the file.
func WritePreviewPage(dir string, port int, page string) (path string, cleanup func(), err error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path = filepath.Join(dir, strconv.Itoa(port)+".html")
	if err := os.WriteFile(path, []byte(page), 0o600); err != nil {
		return "", nil, fmt.Errorf("writing preview page: %w", err)
	}
	return path, func() { _ = os.Remove(path) }, nil
}
