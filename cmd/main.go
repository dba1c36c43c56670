package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/rhomel/hbtheme/internal/config"
	"github.com/rhomel/hbtheme/internal/export"
	"github.com/rhomel/hbtheme/internal/logging"
	"github.com/rhomel/hbtheme/internal/site"
	"github.com/rhomel/hbtheme/internal/swatch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// allow "-serve" with no value to default to the configured address
	args := os.Args[1:]
	for i, arg := range args {
		if arg == "-serve" || arg == "--serve" {
			args[i] = "-serve=" + cfg.GetString(config.KeyServeAddr)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, args, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliFlags are the parsed command line values that are not config keys.
type cliFlags struct {
	out      string
	format   string
	swatch   bool
	mode     string
	generate bool
	serve    string
	watch    bool
}

// configFlags maps flag names to the config keys they override.
var configFlags = map[string]string{
	"source":       config.KeySource,
	"style-id":     config.KeyStyleID,
	"content":      config.KeyContentDir,
	"out-dir":      config.KeyOutDir,
	"state":        config.KeyStatePath,
	"prefers-dark": config.KeyPrefersDark,
	"debug":        config.KeyDebug,
}

// parseFlags defines the flag set with defaults seeded from cfg, parses args,
// and layers every explicitly set config flag onto cfg.
func parseFlags(cfg *config.Config, args []string) (cliFlags, error) {
	var cli cliFlags
	fs := flag.NewFlagSet("hbtheme", flag.ContinueOnError)

	source := fs.String("source", cfg.GetString(config.KeySource), "theme stylesheet path or http(s) URL")
	styleID := fs.String("style-id", cfg.GetString(config.KeyStyleID), "id of the injected style element")
	contentDir := fs.String("content", cfg.GetString(config.KeyContentDir), "directory of Markdown preview pages")
	outDir := fs.String("out-dir", cfg.GetString(config.KeyOutDir), "output directory for -generate")
	statePath := fs.String("state", cfg.GetString(config.KeyStatePath), "path of the preference database")
	prefersDark := fs.String("prefers-dark", cfg.GetString(config.KeyPrefersDark), "system dark preference: auto, true or false")
	debug := fs.Bool("debug", cfg.GetBool(config.KeyDebug), "enable debug logging")

	fs.StringVar(&cli.out, "out", "", "write the resolved theme to this file instead of stdout")
	fs.StringVar(&cli.format, "format", string(export.FormatCSS), "output format: css, json or toml")
	fs.BoolVar(&cli.swatch, "swatch", false, "print a color swatch of the resolved variables")
	fs.StringVar(&cli.mode, "mode", "", "set the color mode: dark, light or toggle (persisted)")
	fs.BoolVar(&cli.generate, "generate", false, "render the preview pages into -out-dir")
	fs.StringVar(&cli.serve, "serve", "", "address to serve the live preview ("+config.DefaultServeAddr+")")
	fs.BoolVar(&cli.watch, "watch", false, "regenerate and reload when the content directory changes")

	if err := fs.Parse(args); err != nil {
		return cli, err
	}
	if fs.NArg() > 0 {
		return cli, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	values := map[string]any{
		"source":       *source,
		"style-id":     *styleID,
		"content":      *contentDir,
		"out-dir":      *outDir,
		"state":        *statePath,
		"prefers-dark": *prefersDark,
		"debug":        *debug,
	}
	overrides := map[string]any{}
	fs.Visit(func(f *flag.Flag) {
		if key, ok := configFlags[f.Name]; ok {
			overrides[key] = values[f.Name]
		}
	})
	cfg.ApplyOverrides(overrides)
	return cli, nil
}

func run(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	cli, err := parseFlags(cfg, args)
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(cli.format)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.GetBool(config.KeyDebug))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	th, err := loadTheme(ctx, cfg, cli.mode, logger)
	if err != nil {
		return err
	}
	defer th.close()

	contentDir := cfg.GetString(config.KeyContentDir)
	outDir := cfg.GetString(config.KeyOutDir)
	gen := site.NewGenerator(contentDir, th.doc, logger)

	switch {
	case cli.serve != "":
		return serve(ctx, cfg, cli, th, gen, logger)
	case cli.watch:
		// watch without serve: keep the static output current
		if err := generate(gen, outDir, stdout); err != nil {
			return err
		}
		logger.Info("watching", zap.String("dir", contentDir))
		return site.Watch(ctx, contentDir, cfg.GetDuration(config.KeyWatchDebounce), func() {
			if err := generate(gen, outDir, stdout); err != nil {
				logger.Error("generation error", zap.Error(err))
			}
		}, logger)
	case cli.generate:
		return generate(gen, outDir, stdout)
	}

	sheet, ok := th.loader.Sheet()
	if !ok {
		return errors.New("theme was not resolved")
	}
	if cli.swatch {
		return swatch.NewPrinter(stdout).Print(sheet)
	}
	if cli.out == "" {
		return export.Write(stdout, sheet, format)
	}
	//nolint:gosec // G306: exported theme is world-readable
	f, err := os.OpenFile(cli.out, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", cli.out, err)
	}
	if err := export.Write(f, sheet, format); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func serve(ctx context.Context, cfg *config.Config, cli cliFlags, th *theme, gen *site.Generator, logger *zap.Logger) error {
	srv := site.NewServer(gen, th.doc, th.store, th.loader.StyleID(), logger)
	defer srv.Close()

	if cli.watch {
		contentDir := cfg.GetString(config.KeyContentDir)
		outDir := cfg.GetString(config.KeyOutDir)
		go func() {
			err := site.Watch(ctx, contentDir, cfg.GetDuration(config.KeyWatchDebounce), func() {
				if cli.generate {
					if _, err := gen.WriteAll(outDir); err != nil {
						logger.Error("generation error", zap.Error(err))
					}
				}
				srv.Reload()
			}, logger)
			if err != nil {
				logger.Error("watch stopped", zap.Error(err))
			}
		}()
	}
	return srv.ListenAndServe(ctx, cli.serve)
}

func generate(gen *site.Generator, outDir string, stdout io.Writer) error {
	count, err := gen.WriteAll(outDir)
	if err != nil {
		return fmt.Errorf("generation error: %w", err)
	}
	fmt.Fprintf(stdout, "generated %d files\n", count)
	return nil
}
