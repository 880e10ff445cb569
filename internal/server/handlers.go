package server

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tidwall/gjson"

	"github.com/alnah/go-mdlive/internal/fileutil"
	"github.com/alnah/go-mdlive/internal/notify"
)

// MaxBodySize bounds markdown posted to the server.
const MaxBodySize = 10 << 20

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/", s.handleStream)
	r.Post("/", s.handlePost)
	r.Post("/reload", s.handleReload)
	r.Get("/preview", s.handlePreview)
	r.Get("/export/{format}", s.handleExport)
	r.Get("/*", s.handleStatic)
	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			slog.String("id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)))
	})
}

// handleStream is the server-sent event stream the preview page listens to.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")

	id, mb := s.subscribe()
	defer s.unsubscribe(id)

	rc := http.NewResponseController(w)
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		s.logger.Warn("stream not flushable", "error", err)
		return
	}

	// A new tab needs a render of its own.
	if res, ok := s.Latest(); ok {
		mb.Send(res)
	} else if path := s.Document(); path != "" {
		s.updates.Send(notify.Update{Path: path})
	}

	s.logger.Debug("stream opened", "id", id)
	defer s.logger.Debug("stream closed", "id", id)

	ctx := r.Context()
	for {
		res, err := mb.Receive(ctx)
		if err != nil {
			return
		}
		if err := writeEvent(w, res.HTML); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// writeEvent writes html as one event, one data field per line.
func writeEvent(w io.Writer, html string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "retry: %d\n", retryMillis)
	for line := range strings.SplitSeq(html, "\n") {
		bw.WriteString("data: ")
		bw.WriteString(strings.TrimSuffix(line, "\r"))
		bw.WriteByte('\n')
	}
	bw.WriteByte('\n')
	return bw.Flush()
}

// handlePost accepts raw markdown or {"markdownText": "..."}.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	text := string(body)
	if gjson.ValidBytes(body) {
		if v := gjson.GetBytes(body, "markdownText"); v.Exists() {
			text = v.String()
		}
	}
	s.updates.Send(notify.Update{Text: text})
	w.WriteHeader(http.StatusAccepted)
}

// handleReload re-renders the last document with an empty cache.
func (s *Server) handleReload(w http.ResponseWriter, _ *http.Request) {
	u, ok := s.updates.Latest()
	if !ok {
		path := s.Document()
		if path == "" {
			http.Error(w, ErrNoDocument.Error(), http.StatusNotFound)
			return
		}
		u = notify.Update{Path: path}
	}
	u.ResetCache = true
	s.updates.Send(u)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	page, err := s.pages.Preview(r.Context(), s.title(), s.origin)
	if err != nil {
		s.logger.Error("preview page", "error", err)
		http.Error(w, "preview unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, page)
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	root, err := os.OpenRoot(s.docDir())
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer closeQuietly(root)
	http.FileServerFS(root.FS()).ServeHTTP(w, r)
}

func (s *Server) title() string {
	if p := s.Document(); p != "" {
		return fileutil.BaseName(p)
	}
	return "mdlive"
}
