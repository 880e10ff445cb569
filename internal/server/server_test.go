package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alnah/go-mdlive/internal/assets"
	"github.com/alnah/go-mdlive/internal/notify"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

type fakeRenderer struct {
	resets atomic.Int32
	err    error
}

func (f *fakeRenderer) Render(_ context.Context, doc string, reset bool) (string, error) {
	if reset {
		f.resets.Add(1)
	}
	if f.err != nil {
		return "", f.err
	}
	return "rendered:" + doc, nil
}

type fakeConverter struct{}

func (fakeConverter) ToHTML(_ context.Context, md string) (string, error) {
	return "<p>" + md + "</p>", nil
}

type fakePrinter struct {
	page    string
	baseDir string
}

func (f *fakePrinter) Print(_ context.Context, page, baseDir string) ([]byte, error) {
	f.page = page
	f.baseDir = baseDir
	return []byte("%PDF-1.7"), nil
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *notify.Mailbox[notify.Update]) {
	t.Helper()
	pages, err := NewPages(assets.NewEmbeddedLoader(), "body{color:teal}")
	if err != nil {
		t.Fatalf("NewPages() error = %v", err)
	}
	updates := notify.NewMailbox[notify.Update]()
	opts = append([]Option{WithReadRetries(2, time.Millisecond)}, opts...)
	return New(&fakeRenderer{}, fakeConverter{}, pages, updates, opts...), updates
}

func runLoop(t *testing.T, s *Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.md")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// readEvent reads one server-sent event and returns its joined data lines.
func readEvent(t *testing.T, br *bufio.Reader) (retry string, data string) {
	t.Helper()
	var lines []string
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			t.Fatalf("reading event: %v", err)
		}
		line = strings.TrimSuffix(line, "\n")
		switch {
		case line == "":
			return retry, strings.Join(lines, "\n")
		case strings.HasPrefix(line, "retry: "):
			retry = strings.TrimPrefix(line, "retry: ")
		case strings.HasPrefix(line, "data: "):
			lines = append(lines, strings.TrimPrefix(line, "data: "))
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// ---------------------------------------------------------------------------
// TestWriteEvent - Event framing
// ---------------------------------------------------------------------------

func TestWriteEvent(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	if err := writeEvent(&sb, "<h1>a</h1>\n<p>b</p>\r\n"); err != nil {
		t.Fatal(err)
	}
	want := "retry: 60000\ndata: <h1>a</h1>\ndata: <p>b</p>\ndata: \n\n"
	if sb.String() != want {
		t.Errorf("writeEvent() = %q, want %q", sb.String(), want)
	}
}

// ---------------------------------------------------------------------------
// TestRun - Render loop
// ---------------------------------------------------------------------------

func TestRun_InlineAndFileUpdates(t *testing.T) {
	t.Parallel()

	s, updates := newTestServer(t)
	runLoop(t, s)

	updates.Send(notify.Update{Text: "# inline"})
	waitFor(t, func() bool { _, ok := s.Latest(); return ok })
	res, _ := s.Latest()
	if res.HTML != "<p>rendered:# inline</p>" || res.Markdown != "rendered:# inline" {
		t.Errorf("Latest() = %+v", res)
	}

	path := writeDoc(t, "# file")
	updates.Send(notify.Update{Path: path})
	waitFor(t, func() bool { r, _ := s.Latest(); return r.Version == 2 })
	res, _ = s.Latest()
	if res.Markdown != "rendered:# file" {
		t.Errorf("Markdown = %q", res.Markdown)
	}
	if s.Document() != path {
		t.Errorf("Document() = %q, want %q", s.Document(), path)
	}
}

func TestRun_SkipsFailedRender(t *testing.T) {
	t.Parallel()

	s, updates := newTestServer(t)
	runLoop(t, s)

	updates.Send(notify.Update{Path: filepath.Join(t.TempDir(), "missing.md")})
	updates.Send(notify.Update{Text: "ok"})
	waitFor(t, func() bool { _, ok := s.Latest(); return ok })
	if res, _ := s.Latest(); res.Markdown != "rendered:ok" {
		t.Errorf("Latest() = %+v", res)
	}
}

func TestRun_RenderError(t *testing.T) {
	t.Parallel()

	s, updates := newTestServer(t)
	s.renderer = &fakeRenderer{err: errors.New("structure")}
	runLoop(t, s)

	updates.Send(notify.Update{Text: "x"})
	time.Sleep(50 * time.Millisecond)
	if _, ok := s.Latest(); ok {
		t.Error("a failed render must not be published")
	}
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want %v", err, context.Canceled)
	}
}

// ---------------------------------------------------------------------------
// TestHandleStream - Server-sent events
// ---------------------------------------------------------------------------

func TestHandleStream(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, "# watched")
	s, updates := newTestServer(t, WithDocument(path))
	runLoop(t, s)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	for header, want := range map[string]string{
		"Content-Type":                "text/event-stream",
		"Cache-Control":               "no-cache",
		"Access-Control-Allow-Origin": "*",
	} {
		if got := resp.Header.Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}

	br := bufio.NewReader(resp.Body)
	retry, data := readEvent(t, br)
	if retry != "60000" {
		t.Errorf("retry = %q, want 60000", retry)
	}
	if data != "<p>rendered:# watched</p>" {
		t.Errorf("first event = %q", data)
	}

	updates.Send(notify.Update{Text: "line one\nline two"})
	_, data = readEvent(t, br)
	if data != "<p>rendered:line one\nline two</p>" {
		t.Errorf("second event = %q", data)
	}

	cancel()
	waitFor(t, func() bool { return s.Subscribers() == 0 })
}

func TestHandleStream_SendsLatestToNewStream(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	s.publish(Result{HTML: "<p>cached</p>", Markdown: "cached", Version: 1})

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if _, data := readEvent(t, bufio.NewReader(resp.Body)); data != "<p>cached</p>" {
		t.Errorf("event = %q", data)
	}
}

// ---------------------------------------------------------------------------
// TestHandlePost / TestHandleReload - Inline updates
// ---------------------------------------------------------------------------

func TestHandlePost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "raw markdown", body: "# raw", want: "# raw"},
		{name: "json payload", body: `{"markdownText": "# json\n"}`, want: "# json\n"},
		{name: "json without field", body: `{"other": 1}`, want: `{"other": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, updates := newTestServer(t)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			s.Handler().ServeHTTP(rec, req)

			if rec.Code != http.StatusAccepted {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
			}
			u, ok := updates.TryReceive()
			if !ok || !u.Inline() || u.Text != tt.want {
				t.Errorf("update = %+v, %v, want text %q", u, ok, tt.want)
			}
		})
	}
}

func TestHandleReload(t *testing.T) {
	t.Parallel()

	t.Run("nothing to reload", func(t *testing.T) {
		t.Parallel()

		s, _ := newTestServer(t)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reload", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("resends latest with reset", func(t *testing.T) {
		t.Parallel()

		s, updates := newTestServer(t)
		updates.Send(notify.Update{Text: "# doc"})
		_, _ = updates.TryReceive()

		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reload", nil))
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d", rec.Code)
		}
		u, ok := updates.TryReceive()
		if !ok || u.Text != "# doc" || !u.ResetCache {
			t.Errorf("update = %+v, %v", u, ok)
		}
	})

	t.Run("falls back to document", func(t *testing.T) {
		t.Parallel()

		s, updates := newTestServer(t, WithDocument("/docs/a.md"))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reload", nil))
		u, ok := updates.TryReceive()
		if !ok || u.Path != "/docs/a.md" || !u.ResetCache {
			t.Errorf("update = %+v, %v", u, ok)
		}
	})
}

// ---------------------------------------------------------------------------
// TestHandleExport - Downloads
// ---------------------------------------------------------------------------

func TestHandleExport(t *testing.T) {
	t.Parallel()

	printer := &fakePrinter{}
	s, _ := newTestServer(t, WithDocument("/docs/notes.md"), WithPDFPrinter(printer))

	get := func(format string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/"+format, nil))
		return rec
	}

	if rec := get("html"); rec.Code != http.StatusNotFound {
		t.Errorf("before render: status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	s.publish(Result{HTML: "<h1>Notes</h1>", Markdown: "# Notes", Version: 1})

	tests := []struct {
		format      string
		wantStatus  int
		wantType    string
		wantContain string
	}{
		{"html", http.StatusOK, "text/html; charset=utf-8", "<h1>Notes</h1>"},
		{"md", http.StatusOK, "text/markdown; charset=utf-8", "# Notes"},
		{"pdf", http.StatusOK, "application/pdf", "%PDF"},
		{"docx", http.StatusBadRequest, "", ""},
	}
	for _, tt := range tests {
		rec := get(tt.format)
		if rec.Code != tt.wantStatus {
			t.Errorf("%s: status = %d, want %d", tt.format, rec.Code, tt.wantStatus)
			continue
		}
		if tt.wantStatus != http.StatusOK {
			continue
		}
		if got := rec.Header().Get("Content-Type"); got != tt.wantType {
			t.Errorf("%s: Content-Type = %q, want %q", tt.format, got, tt.wantType)
		}
		want := `attachment; filename="notes.` + tt.format + `"`
		if got := rec.Header().Get("Content-Disposition"); got != want {
			t.Errorf("%s: Content-Disposition = %q, want %q", tt.format, got, want)
		}
		if !strings.Contains(rec.Body.String(), tt.wantContain) {
			t.Errorf("%s: body = %q, want it to contain %q", tt.format, rec.Body.String(), tt.wantContain)
		}
	}

	if !strings.Contains(printer.page, "<style>body{color:teal}</style>") {
		t.Error("printed page is missing the page CSS")
	}
	if printer.baseDir != "/docs" {
		t.Errorf("printer baseDir = %q, want /docs", printer.baseDir)
	}
}

func TestExport_PDFDisabled(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	s.publish(Result{HTML: "<p>x</p>"})
	if _, err := s.Export(context.Background(), FormatPDF); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Export(pdf) error = %v, want %v", err, ErrUnknownFormat)
	}
}

// ---------------------------------------------------------------------------
// TestHandleStatic / TestHandlePreview
// ---------------------------------------------------------------------------

func TestHandleStatic(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, "![img](img.txt)")
	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "img.txt"), []byte("pixels"), 0o600); err != nil {
		t.Fatal(err)
	}
	s, _ := newTestServer(t, WithDocument(path))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/img.txt", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "pixels" {
		t.Errorf("GET /img.txt = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/../etc/passwd", nil))
	if rec.Code == http.StatusOK && strings.Contains(rec.Body.String(), "root:") {
		t.Error("static handler escaped the document directory")
	}
}

func TestHandlePreview(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, WithDocument("/docs/notes.md"), WithOrigin("http://localhost:5123"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/preview", nil))

	body := rec.Body.String()
	for _, want := range []string{"<title>notes</title>", "http://localhost:5123/export/pdf", "EventSource", "body{color:teal}"} {
		if !strings.Contains(body, want) {
			t.Errorf("preview page missing %q", want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestServe - Lifecycle
// ---------------------------------------------------------------------------

func TestServe(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Post("http://"+ln.Addr().String()+"/", "text/markdown", strings.NewReader("# hi"))
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	waitFor(t, func() bool { _, ok := s.Latest(); return ok })

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(DefaultShutdownTimeout + time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
