// Package main provides the CLI entry point for collada.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/ndisidore/collada/internal/config"
	"github.com/ndisidore/collada/internal/discover"
	"github.com/ndisidore/collada/internal/doccache"
	"github.com/ndisidore/collada/internal/progress"
	"github.com/ndisidore/collada/pkg/collada"
	"github.com/ndisidore/collada/pkg/slogctx"
)

// app bundles dependencies so CLI action handlers become testable methods.
type app struct {
	loadConfig func(path string) (config.Config, error)
	stdout     io.Writer
	isTTY      bool

	cfg    config.Config
	format string // resolved log format (pretty, json, text)
}

func main() {
	a := &app{
		loadConfig: config.Load,
		stdout:     os.Stdout,
		isTTY:      term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("CI") == "",
	}
	if err := a.command().Run(context.Background(), os.Args); err != nil {
		os.Exit(1)
	}
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:  "collada",
		Usage: "parse and inspect COLLADA scene documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "settings file",
				Value:   config.DefaultPath,
				Sources: cli.EnvVars("COLLADA_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "front-end",
				Usage:   "markup front-end (tree, stream)",
				Value:   string(collada.FrontEndStream),
				Sources: cli.EnvVars("COLLADA_FRONT_END"),
			},
			&cli.StringFlag{
				Name:    "format",
				Usage:   "output format (auto, pretty, json, text)",
				Value:   "auto",
				Sources: cli.EnvVars("COLLADA_FORMAT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("COLLADA_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:  "progress",
				Usage: "progress output mode (auto, tui, plain, quiet)",
				Value: "auto",
			},
			&cli.IntFlag{
				Name:    "parallelism",
				Aliases: []string{"j"},
				Usage:   "max documents parsed concurrently (0 = unlimited)",
				Value:   4,
			},
		},
		Before: a.before,
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "parse documents and report which are valid",
				ArgsUsage: "<file|dir...>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "cache-stats",
						Usage: "print document cache statistics after validation",
					},
					&cli.BoolFlag{
						Name:  "boring",
						Usage: "use ASCII instead of emoji in TUI output",
					},
				},
				Action: a.validateAction,
			},
			{
				Name:      "summary",
				Usage:     "print an overview of a document",
				ArgsUsage: "<file>",
				Action:    a.summaryAction,
			},
			{
				Name:      "resolve",
				Usage:     "resolve a #id reference or an animation target path",
				ArgsUsage: "<file> <ref>",
				Action:    a.resolveAction,
			},
		},
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
		},
	}
}

// before loads the config file, applies flag overrides and installs the logger.
func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := a.loadConfig(cmd.String("config"))
	switch {
	case errors.Is(err, config.ErrNoConfig) && !cmd.IsSet("config"):
	case err != nil:
		return ctx, fmt.Errorf("loading config: %w", err)
	}
	if err := applyFlags(&cfg, cmd); err != nil {
		return ctx, err
	}
	if err := cfg.Output.Check(); err != nil {
		return ctx, fmt.Errorf("invalid output settings: %w", err)
	}
	a.cfg = cfg

	a.format = cfg.Output.Format
	if a.format == "auto" {
		if a.isTTY {
			a.format = progress.FormatPretty
		} else {
			a.format = progress.FormatText
		}
	}
	logger, err := progress.NewLogger(a.stdout, a.format, cfg.Output.LogLevel)
	if err != nil {
		return ctx, fmt.Errorf("initializing logger: %w", err)
	}
	return slogctx.ContextWithLogger(ctx, logger), nil
}

// applyFlags overrides file settings with flags given on the command line.
func applyFlags(cfg *config.Config, cmd *cli.Command) error {
	var err error
	if cmd.IsSet("front-end") {
		if cfg.Parser.FrontEnd, err = config.FrontEnd(cmd.String("front-end")); err != nil {
			return fmt.Errorf("flag --front-end: %w", err)
		}
	}
	if cmd.IsSet("log-level") {
		if cfg.Output.LogLevel, err = config.LogLevel(cmd.String("log-level")); err != nil {
			return fmt.Errorf("flag --log-level: %w", err)
		}
	}
	if cmd.IsSet("format") {
		cfg.Output.Format = cmd.String("format")
	}
	if cmd.IsSet("progress") {
		cfg.Output.Progress = cmd.String("progress")
	}
	if cmd.IsSet("parallelism") {
		cfg.Output.Parallelism = int(cmd.Int("parallelism"))
	}
	return nil
}

func (a *app) parser(ctx context.Context) *collada.Parser {
	return &collada.Parser{Logger: slogctx.FromContext(ctx), Options: a.cfg.Parser}
}

func (a *app) validateAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return errors.New("usage: collada validate <file|dir...>")
	}
	paths, err := discover.Expand(ctx, cmd.Args().Slice())
	if err != nil {
		return fmt.Errorf("collecting documents: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no documents found in %s", strings.Join(cmd.Args().Slice(), ", "))
	}

	var stats *doccache.Collector
	if cmd.Bool("cache-stats") {
		stats = doccache.NewCollector()
	}
	cache := doccache.New(a.parser(ctx), stats)

	display, err := a.selectDisplay(a.cfg.Output.Progress, cmd.Bool("boring"))
	if err != nil {
		return err
	}
	if err := display.Start(ctx); err != nil {
		return fmt.Errorf("starting display: %w", err)
	}
	defer display.Seal()

	parseErr := validateAll(ctx, cache, display, paths, a.cfg.Output.Parallelism)

	display.Seal()
	waitErr := display.Wait()

	if stats != nil {
		doccache.PrintReport(a.stdout, stats.Report())
	}
	if err := errors.Join(parseErr, waitErr); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.stdout, "%d document(s) valid\n", len(paths))
	return nil
}

// validateAll parses every path through cache, at most parallelism at a
// time, reporting each file to display. Every file is attempted; the
// failures are joined.
func validateAll(ctx context.Context, cache *doccache.Cache, display progress.Display, paths []string, parallelism int) error {
	var g errgroup.Group
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}

	errs := make([]error, len(paths))
	for i, path := range paths {
		ch := make(chan progress.Event, 2)
		if err := display.Attach(ctx, path, ch); err != nil {
			close(ch)
			errs[i] = fmt.Errorf("attaching %s: %w", path, err)
			continue
		}
		g.Go(func() error {
			defer close(ch)
			fctx := slogctx.With(ctx, slog.String("file", path))

			ch <- progress.Event{Status: progress.StatusParsing}
			start := time.Now()
			doc, hit, err := cache.Load(fctx, path)
			if err != nil {
				errs[i] = err
				ch <- progress.Event{Status: progress.StatusFailed, Err: err}
				return nil
			}
			status := progress.StatusDone
			if hit {
				status = progress.StatusCached
			}
			ch <- progress.Event{Status: status, IDs: doc.Registry.Len(), Duration: time.Since(start)}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (a *app) summaryAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errors.New("usage: collada summary <file>")
	}
	doc, err := a.parser(ctx).ParseFile(path)
	if err != nil {
		return err
	}
	a.printSummary(path, doc)
	return nil
}

// libraryCount pairs a library label with how many items it holds.
type libraryCount struct {
	label string
	n     int
}

func count[T collada.Node](libs []*collada.Library[T]) int {
	n := 0
	for _, l := range libs {
		n += len(l.Items)
	}
	return n
}

func libraryCounts(d *collada.Document) []libraryCount {
	return []libraryCount{
		{"animations", count(d.LibraryAnimations)},
		{"animation clips", count(d.LibraryAnimationClips)},
		{"cameras", count(d.LibraryCameras)},
		{"controllers", count(d.LibraryControllers)},
		{"effects", count(d.LibraryEffects)},
		{"geometries", count(d.LibraryGeometries)},
		{"images", count(d.LibraryImages)},
		{"lights", count(d.LibraryLights)},
		{"materials", count(d.LibraryMaterials)},
		{"nodes", count(d.LibraryNodes)},
		{"physics materials", count(d.LibraryPhysicsMaterials)},
		{"physics models", count(d.LibraryPhysicsModels)},
		{"physics scenes", count(d.LibraryPhysicsScenes)},
		{"visual scenes", count(d.LibraryVisualScenes)},
		{"joints", count(d.LibraryJoints)},
		{"kinematics models", count(d.LibraryKinematicsModels)},
		{"articulated systems", count(d.LibraryArticulatedSystems)},
		{"kinematics scenes", count(d.LibraryKinematicsScenes)},
	}
}

func (a *app) printSummary(path string, d *collada.Document) {
	_, _ = fmt.Fprintf(a.stdout, "Document '%s' (COLLADA %s)\n", path, d.Version)
	_, _ = fmt.Fprintf(a.stdout, "  Digest: %s\n", d.Digest)
	if d.Asset != nil {
		u := d.Asset.DistanceUnit()
		_, _ = fmt.Fprintf(a.stdout, "  Unit: %s (%g m), up axis: %s\n", u.Name, u.Meter, d.Asset.Up())
	}
	_, _ = fmt.Fprintf(a.stdout, "  IDs: %d\n", d.Registry.Len())
	_, _ = fmt.Fprintln(a.stdout, "  Libraries:")
	for _, lc := range libraryCounts(d) {
		if lc.n > 0 {
			_, _ = fmt.Fprintf(a.stdout, "    - %s: %d\n", lc.label, lc.n)
		}
	}
	if d.Scene != nil && d.Scene.InstanceVisualScene != nil {
		_, _ = fmt.Fprintf(a.stdout, "  Scene: %s\n", d.Scene.InstanceVisualScene.URL.URI)
	}
}

func (a *app) resolveAction(ctx context.Context, cmd *cli.Command) error {
	path, ref := cmd.Args().Get(0), cmd.Args().Get(1)
	if path == "" || ref == "" {
		return errors.New("usage: collada resolve <file> <ref>")
	}
	doc, err := a.parser(ctx).ParseFile(path)
	if err != nil {
		return err
	}

	if strings.HasPrefix(ref, "#") {
		n, err := doc.Deref(collada.Ref{URI: ref})
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		_, _ = fmt.Fprintf(a.stdout, "%s -> <%s> %T\n", ref, n.ElementName(), n)
		return nil
	}

	tg, err := doc.ResolveTarget(ref)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	_, _ = fmt.Fprintf(a.stdout, "%s -> <%s> %T\n", ref, tg.Node.ElementName(), tg.Value)
	if tg.Member != "" {
		_, _ = fmt.Fprintf(a.stdout, "  member: %s\n", tg.Member)
	}
	return nil
}

func (a *app) selectDisplay(mode string, boring bool) (progress.Display, error) {
	switch mode {
	case "auto":
		if a.isTTY && a.format == progress.FormatPretty {
			return &progress.TUI{Boring: boring}, nil
		}
		return &progress.Plain{}, nil
	case "tui":
		return &progress.TUI{Boring: boring}, nil
	case "plain":
		return &progress.Plain{}, nil
	case "quiet":
		return &progress.Quiet{}, nil
	default:
		return nil, fmt.Errorf("unknown progress mode %q (valid: %s)", mode, strings.Join(config.ProgressModes, ", "))
	}
}
