// Package loader fetches a theme stylesheet once, resolves it for the
// document's current mode, and keeps the injected style in step with the
// root class list.
package loader

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/rhomel/hbtheme/internal/cssvars"
	"github.com/rhomel/hbtheme/internal/document"
	apperrors "github.com/rhomel/hbtheme/internal/errors"
	"github.com/rhomel/hbtheme/internal/fonts"
)

// DefaultStyleID is the id of the injected style element.
const DefaultStyleID = "injected-theme-styles"

// ResolveFunc turns source text and a mode into a sheet.
type ResolveFunc func(css string, dark bool) (cssvars.Sheet, error)

func defaultResolve(css string, dark bool) (cssvars.Sheet, error) {
	return cssvars.Resolve(css, dark), nil
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithStyleID overrides DefaultStyleID.
func WithStyleID(id string) Option {
	return func(l *Loader) {
		if id != "" {
			l.styleID = id
		}
	}
}

// WithFontWeights sets the weights requested for every font family.
func WithFontWeights(weights []string) Option {
	return func(l *Loader) {
		l.weights = weights
	}
}

// WithResolver replaces the resolution pass, mainly for tests.
func WithResolver(fn ResolveFunc) Option {
	return func(l *Loader) {
		if fn != nil {
			l.resolve = fn
		}
	}
}

// Loader applies a theme source to a document.
type Loader struct {
	fetcher Fetcher
	doc     *document.Document
	logger  *zap.Logger
	styleID string
	weights []string
	resolve ResolveFunc
	fonts   *fonts.Loader

	fetchOnce sync.Once
	source    string
	loaded    bool
	fetchErr  error

	mu     sync.Mutex
	last   cssvars.Sheet
	cancel func()
}

// New returns a Loader reading from fetcher and writing into doc.
func New(fetcher Fetcher, doc *document.Document, opts ...Option) *Loader {
	l := &Loader{
		fetcher: fetcher,
		doc:     doc,
		logger:  zap.NewNop(),
		styleID: DefaultStyleID,
		resolve: defaultResolve,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.fonts = fonts.NewLoader(doc.Head, l.weights, l.logger)
	return l
}

// Start fetches the source, applies it, and subscribes to class changes.
//
// The source is fetched at most once per Loader; a failed fetch is never
// retried and leaves the document untouched.
func (l *Loader) Start(ctx context.Context) error {
	l.fetchOnce.Do(func() {
		src, err := l.fetcher.Fetch(ctx)
		if err != nil {
			l.fetchErr = apperrors.New(apperrors.CodeFetchFailed, fmt.Sprintf("load %s", l.fetcher), err)
			l.logger.Error("theme source unavailable", zap.Stringer("source", l.fetcher), zap.Error(err))
			return
		}
		l.mu.Lock()
		l.source = src
		l.loaded = true
		l.mu.Unlock()
	})
	if l.fetchErr != nil {
		return l.fetchErr
	}

	l.mu.Lock()
	subscribed := l.cancel != nil
	l.mu.Unlock()
	if subscribed {
		return nil
	}

	applyErr := l.Apply()

	l.mu.Lock()
	l.cancel = l.doc.Root.Observe(func() {
		_ = l.Apply()
	})
	l.mu.Unlock()

	return applyErr
}

// Stop cancels the class subscription.
func (l *Loader) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// Apply runs one resolution pass with the cached source and the document's
// current mode. On failure the previously injected style stays in place.
func (l *Loader) Apply() (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.loaded {
		return apperrors.New(apperrors.CodeResolveFailed, "theme source not loaded", nil)
	}

	dark := l.doc.IsDark()
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.New(apperrors.CodeResolveFailed, "resolve theme", fmt.Errorf("panic: %v", r))
		}
		if err != nil {
			l.logger.Error("theme not applied", zap.Bool("dark", dark), zap.Error(err))
		}
	}()

	sheet, err := l.resolve(l.source, dark)
	if err != nil {
		return apperrors.New(apperrors.CodeResolveFailed, "resolve theme", err)
	}
	for _, w := range sheet.Warnings {
		l.logger.Warn("theme source", zap.String("warning", w))
	}

	l.fonts.Load(sheet.Base)
	l.doc.Head.SetStyle(l.styleID, sheet.CSS)
	l.last = sheet

	l.logger.Debug("theme applied",
		zap.Bool("dark", dark),
		zap.Int("base", sheet.ResolvedBase.Len()),
		zap.Int("theme", sheet.Theme.Len()),
	)
	return nil
}

// Sheet returns the last successfully applied sheet.
func (l *Loader) Sheet() (cssvars.Sheet, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last, l.last.CSS != ""
}

// Source returns the cached source text.
func (l *Loader) Source() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.source, l.loaded
}

// StyleID returns the id of the injected style element.
func (l *Loader) StyleID() string {
	return l.styleID
}
