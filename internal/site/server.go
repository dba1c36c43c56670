package site

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rhomel/hbtheme/internal/document"
	"github.com/rhomel/hbtheme/internal/prefs"
)

// Broadcaster fans server-sent events out to connected clients.
type Broadcaster struct {
	mu      sync.Mutex
	clients map[chan string]struct{}
}

// NewBroadcaster returns a Broadcaster with no clients.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[chan string]struct{})}
}

// Subscribe registers a client channel and returns its unsubscribe func.
func (b *Broadcaster) Subscribe() (chan string, func()) {
	ch := make(chan string, 1)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch, func() {
		b.mu.Lock()
		delete(b.clients, ch)
		b.mu.Unlock()
	}
}

// Broadcast sends msg to every client, dropping it for clients that are behind.
func (b *Broadcaster) Broadcast(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Server serves themed pages and the theme toggle endpoints.
type Server struct {
	gen         *Generator
	doc         *document.Document
	store       prefs.Store
	styleID     string
	logger      *zap.Logger
	broadcaster *Broadcaster
	cancel      func()
}

// NewServer wires a Server to doc. Every class change on the root is pushed
// to clients as a reload, so callers should start the theme loader first to
// have the new style in place before clients refetch.
func NewServer(gen *Generator, doc *document.Document, store prefs.Store, styleID string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	gen.Live = true
	s := &Server{
		gen:         gen,
		doc:         doc,
		store:       store,
		styleID:     styleID,
		logger:      logger,
		broadcaster: NewBroadcaster(),
	}
	s.cancel = doc.Root.Observe(s.Reload)
	return s
}

// Reload tells connected clients to reload.
func (s *Server) Reload() {
	s.broadcaster.Broadcast("reload")
}

// Close detaches the server from the document.
func (s *Server) Close() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handlePage)
	mux.HandleFunc("/_sse", s.handleSSE)
	mux.HandleFunc("/_theme/toggle", s.handleToggle)
	mux.HandleFunc("/_theme.css", s.handleCSS)
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	var (
		out []byte
		err error
	)
	path := strings.TrimPrefix(r.URL.Path, "/")
	switch {
	case path == "" || path == "index.html":
		out, err = s.gen.RenderIndex()
	case strings.HasSuffix(path, ".html"):
		out, err = s.gen.RenderPage(path)
	default:
		http.NotFound(w, r)
		return
	}
	if errors.Is(err, os.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error("render page", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(out)
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	flusher.Flush()

	ch, unsubscribe := s.broadcaster.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-ch:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	mode, err := prefs.Toggle(r.Context(), s.store, s.doc)
	if err != nil {
		// the class already flipped; only persistence failed
		s.logger.Error("persist mode", zap.String("mode", string(mode)), zap.Error(err))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"mode": string(mode)})
}

func (s *Server) handleCSS(w http.ResponseWriter, r *http.Request) {
	css, ok := s.doc.Head.Style(s.styleID)
	if !ok {
		http.Error(w, "theme not loaded", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write([]byte(css))
}
