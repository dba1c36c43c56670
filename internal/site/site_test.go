package site

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rhomel/hbtheme/internal/document"
	"github.com/rhomel/hbtheme/internal/loader"
	"github.com/rhomel/hbtheme/internal/prefs"
)

const themeCSS = ":root { --background: #fff; }\n.dark { --background: #000; }\n@theme inline { --color-background: var(--background); }"

type textFetcher string

func (f textFetcher) Fetch(context.Context) (string, error) { return string(f), nil }
func (f textFetcher) String() string                        { return "inline" }

func writeContent(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.md":    "# Welcome\n\nHello.\n",
		"colors.md":   "# Colors\n\nSome *swatches*.\n",
		"untitled.md": "no heading here\n",
		"notes.txt":   "ignored",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func newThemedDoc(t *testing.T) (*document.Document, *loader.Loader) {
	t.Helper()
	doc := document.New()
	l := loader.New(textFetcher(themeCSS), doc)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("loader Start: %v", err)
	}
	return doc, l
}

func TestGeneratorPagesAndTitles(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(writeContent(t), document.New(), nil)
	pages, warns := gen.Pages()
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	if len(pages) != 2 {
		t.Fatalf("Pages() = %+v, want 2 pages", pages)
	}
	if pages[0].Title != "Colors" || pages[0].HTMLPath != "colors.html" {
		t.Fatalf("first page = %+v", pages[0])
	}
	if pages[1].Title != noTitle {
		t.Fatalf("untitled page title = %q, want %q", pages[1].Title, noTitle)
	}
}

func TestRenderIndexCarriesThemeStyle(t *testing.T) {
	t.Parallel()

	doc, _ := newThemedDoc(t)
	gen := NewGenerator(writeContent(t), doc, nil)

	out, err := gen.RenderIndex()
	if err != nil {
		t.Fatalf("RenderIndex() unexpected error: %v", err)
	}
	page := string(out)
	for _, want := range []string{
		`<style id="injected-theme-styles">`,
		"--color-background: #fff;",
		"<title>Welcome</title>",
		`<a href="colors.html">Colors</a>`,
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("index missing %q:\n%s", want, page)
		}
	}
	if strings.Contains(page, "EventSource") {
		t.Fatalf("static render should not carry the live script")
	}
}

func TestWriteAll(t *testing.T) {
	t.Parallel()

	doc, _ := newThemedDoc(t)
	gen := NewGenerator(writeContent(t), doc, nil)
	out := filepath.Join(t.TempDir(), "public")

	count, err := gen.WriteAll(out)
	if err != nil {
		t.Fatalf("WriteAll() unexpected error: %v", err)
	}
	if count != 3 {
		t.Fatalf("WriteAll() = %d, want 3", count)
	}
	data, err := os.ReadFile(filepath.Join(out, "colors.html"))
	if err != nil {
		t.Fatalf("read colors.html: %v", err)
	}
	if !strings.Contains(string(data), "<em>swatches</em>") {
		t.Fatalf("markdown not rendered:\n%s", data)
	}
}

func TestServerToggleReappliesAndBroadcasts(t *testing.T) {
	t.Parallel()

	doc, _ := newThemedDoc(t)
	store := prefs.NewMemoryStore()
	srv := NewServer(NewGenerator(writeContent(t), doc, nil), doc, store, loader.DefaultStyleID, nil)
	t.Cleanup(srv.Close)

	ch, unsubscribe := srv.broadcaster.Subscribe()
	defer unsubscribe()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/_theme/toggle", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["mode"] != "dark" {
		t.Fatalf("toggle body = %s (%v)", rec.Body.String(), err)
	}
	if v, _, _ := store.Get(context.Background(), prefs.Key); v != "dark" {
		t.Fatalf("stored mode = %q, want dark", v)
	}

	select {
	case msg := <-ch:
		if msg != "reload" {
			t.Fatalf("broadcast %q, want reload", msg)
		}
	case <-time.After(time.Second):
		t.Fatalf("no reload broadcast after toggle")
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_theme.css", nil))
	if !strings.Contains(rec.Body.String(), "--color-background: #000;") {
		t.Fatalf("css after toggle:\n%s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rec.Body.String(), `<html class="dark">`) || !strings.Contains(rec.Body.String(), "EventSource") {
		t.Fatalf("served index not live/dark:\n%s", rec.Body.String())
	}
}

func TestServerRoutes(t *testing.T) {
	t.Parallel()

	doc, _ := newThemedDoc(t)
	srv := NewServer(NewGenerator(writeContent(t), doc, nil), doc, prefs.NewMemoryStore(), loader.DefaultStyleID, nil)
	t.Cleanup(srv.Close)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{method: http.MethodGet, path: "/colors.html", want: http.StatusOK},
		{method: http.MethodGet, path: "/missing.html", want: http.StatusNotFound},
		{method: http.MethodGet, path: "/favicon.ico", want: http.StatusNotFound},
		{method: http.MethodGet, path: "/_theme/toggle", want: http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Fatalf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
}

func TestThemeCSSBeforeLoad(t *testing.T) {
	t.Parallel()

	doc := document.New()
	srv := NewServer(NewGenerator(t.TempDir(), doc, nil), doc, prefs.NewMemoryStore(), loader.DefaultStyleID, nil)
	t.Cleanup(srv.Close)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_theme.css", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestWatchDebouncesChanges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, 20*time.Millisecond, func() { changed <- struct{}{} }, nil)
	}()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(filepath.Join(dir, "page.md"), []byte("# Edit\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatalf("no change notification")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch() returned %v", err)
	}
}
