// theme.go
package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rhomel/hbtheme/internal/config"
	"github.com/rhomel/hbtheme/internal/document"
	apperrors "github.com/rhomel/hbtheme/internal/errors"
	"github.com/rhomel/hbtheme/internal/loader"
	"github.com/rhomel/hbtheme/internal/prefs"
)

// theme holds the live document and everything keeping it styled.
type theme struct {
	doc    *document.Document
	store  *prefs.SQLiteStore
	loader *loader.Loader
	mode   prefs.Mode
}

// loadTheme opens the preference store, puts the document in its starting
// mode (or modeArg when given), then fetches the source and injects the
// resolved variables. The mode is settled before the first resolve so the
// initial sheet matches it.
func loadTheme(ctx context.Context, cfg *config.Config, modeArg string, logger *zap.Logger) (*theme, error) {
	prefersDark, err := prefs.PrefersDark(cfg.GetString(config.KeyPrefersDark))
	if err != nil {
		return nil, err
	}

	store, err := prefs.OpenSQLiteStore(ctx, cfg.GetString(config.KeyStatePath))
	if err != nil {
		return nil, err
	}
	th := &theme{doc: document.New(), store: store}

	th.mode, err = prefs.Initial(ctx, store, prefersDark)
	if err != nil {
		th.close()
		return nil, fmt.Errorf("read saved mode: %w", err)
	}
	prefs.Apply(th.doc, th.mode)

	if modeArg != "" {
		if err := th.setMode(ctx, modeArg); err != nil {
			th.close()
			return nil, err
		}
	}
	logger.Debug("starting mode", zap.String("mode", string(th.mode)))

	source := cfg.GetString(config.KeySource)
	timeout := cfg.GetDuration(config.KeyFetchTimeout)
	th.loader = loader.New(
		loader.NewFetcher(source, timeout),
		th.doc,
		loader.WithLogger(logger),
		loader.WithStyleID(cfg.GetString(config.KeyStyleID)),
		loader.WithFontWeights(cfg.GetStringSlice(config.KeyFontWeights)),
	)

	startCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	// a failed resolve is already logged and leaves the document unstyled;
	// only a missing source stops the run
	if err := th.loader.Start(startCtx); apperrors.IsCode(err, apperrors.CodeFetchFailed) {
		th.close()
		return nil, err
	}
	return th, nil
}

// setMode handles -mode: dark or light is stored as given, toggle flips the
// current mode.
func (th *theme) setMode(ctx context.Context, arg string) error {
	if arg == "toggle" {
		mode, err := prefs.Toggle(ctx, th.store, th.doc)
		th.mode = mode
		return err
	}
	mode, err := prefs.ParseMode(arg)
	if err != nil {
		return err
	}
	th.mode = mode
	return prefs.Save(ctx, th.store, th.doc, mode)
}

func (th *theme) close() {
	if th.loader != nil {
		th.loader.Stop()
	}
	if th.store != nil {
		_ = th.store.Close()
	}
}
