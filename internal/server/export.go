package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ErrUnknownFormat is returned for exports other than html, md and pdf.
var ErrUnknownFormat = errors.New("unknown export format")

// Export formats.
const (
	FormatHTML     = "html"
	FormatMarkdown = "md"
	FormatPDF      = "pdf"
)

var contentTypes = map[string]string{
	FormatHTML:     "text/html; charset=utf-8",
	FormatMarkdown: "text/markdown; charset=utf-8",
	FormatPDF:      "application/pdf",
}

// Export returns the latest render in the given format.
func (s *Server) Export(ctx context.Context, format string) ([]byte, error) {
	if _, ok := contentTypes[format]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	res, ok := s.Latest()
	if !ok {
		return nil, ErrNoDocument
	}

	switch format {
	case FormatMarkdown:
		return []byte(res.Markdown), nil
	case FormatHTML:
		page, err := s.pages.Export(ctx, s.title(), res.HTML)
		if err != nil {
			return nil, err
		}
		return []byte(page), nil
	default:
		if s.printer == nil {
			return nil, fmt.Errorf("%w: pdf printing is disabled", ErrUnknownFormat)
		}
		page, err := s.pages.Export(ctx, s.title(), res.HTML)
		if err != nil {
			return nil, err
		}
		return s.printer.Print(ctx, page, s.docDir())
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	data, err := s.Export(r.Context(), format)
	switch {
	case errors.Is(err, ErrUnknownFormat):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, ErrNoDocument):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		s.logger.Error("export failed", "format", format, "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.title()+"."+format))
	_, _ = w.Write(data)
}
