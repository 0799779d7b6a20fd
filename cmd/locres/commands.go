package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"locres/internal/catalog"
	"locres/internal/core"
	"locres/internal/export"
	"locres/internal/flood"
	httpserver "locres/internal/http"
	"locres/internal/i18n"
	"locres/internal/resource"
	"locres/internal/store"
	"locres/pkg/format"
)

// errCheckFailed makes `locres check` exit non-zero after printing issues.
var errCheckFailed = errors.New("catalogue check failed")

// localizedError shows a message from the built-in catalogue while keeping
// the underlying error matchable.
type localizedError struct {
	msg string
	err error
}

func (e *localizedError) Error() string { return e.msg }
func (e *localizedError) Unwrap() error { return e.err }

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resolve API over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return serve(ctx, config, logger)
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve LOCALE KEY [ARG...]",
	Short: "Resolve and format one template",
	Long: `Resolve KEY for LOCALE and substitute the arguments.

Arguments may carry a type prefix: s: (string), d: or i: (integer), f: (float),
b: (boolean) and c: (character). Bare arguments are read as integer, float or
true/false when they look like one, otherwise as strings.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resolve(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), config, args)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report template issues and missing translations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return check(cmd.Context(), cmd.OutOrStdout(), config)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the catalogue as Android, ARB or iOS string files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		name, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		return exportCatalog(cmd.Context(), cmd.OutOrStdout(), config, name, out)
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy the catalogue into a SQLite database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, _ := cmd.Flags().GetString("db")
		return importCatalog(cmd.Context(), cmd.OutOrStdout(), config, db)
	},
}

var localesCmd = &cobra.Command{
	Use:   "locales",
	Short: "List the catalogue's locales and key counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return listLocales(cmd.Context(), cmd.OutOrStdout(), config)
	},
}

func init() {
	exportCmd.Flags().String("format", "android", "export format ("+strings.Join(export.Formats(), ", ")+")")
	exportCmd.Flags().String("out", "./export", "output directory")
	importCmd.Flags().String("db", "./strings.db", "SQLite database to write")
}

func catalogOptions(cfg *core.Config, observer resource.Observer) (catalog.Options, error) {
	tag, err := language.Parse(cfg.Catalog.DefaultLocale)
	if err != nil {
		return catalog.Options{}, fmt.Errorf("invalid default locale %q: %w", cfg.Catalog.DefaultLocale, err)
	}
	return catalog.Options{DefaultLocale: tag, Strict: cfg.Catalog.Strict, Observer: observer}, nil
}

func loadCatalog(ctx context.Context, cfg *core.Config, observer resource.Observer) (*resource.Table, catalog.Report, error) {
	opts, err := catalogOptions(cfg, observer)
	if err != nil {
		return nil, catalog.Report{}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	table, report, err := catalog.Open(ctx, cfg.Catalog.Source, opts)
	if err != nil {
		loc := i18n.NewLocalizer(cfg.App.Language)
		return nil, report, &localizedError{msg: loc.T("error.load", cfg.Catalog.Source, err.Error()), err: err}
	}
	return table, report, nil
}

func serve(ctx context.Context, cfg *core.Config, logger *zap.Logger) error {
	metrics := httpserver.NewMetrics()
	observer := resource.Observers{metrics, resource.NewLogObserver(logger.Named("resource"))}

	opts, err := catalogOptions(cfg, observer)
	if err != nil {
		return err
	}

	table, report, err := loadCatalog(ctx, cfg, observer)
	if err != nil {
		return err
	}
	for _, issue := range report.Issues {
		logger.Warn("Catalogue issue", zap.String("issue", issue.String()))
	}
	metrics.SetCatalog(table)

	live := catalog.NewLive(table)
	service := &httpserver.Service{
		Live:     live,
		Resolver: i18n.NewResolver(live, format.NewCache(cfg.Format.CacheSize)),
		Metrics:  metrics,
		Language: cfg.App.Language,
	}
	if cfg.App.RateLimitPerMinute > 0 {
		service.Gate = flood.New(cfg.App.RateLimitPerMinute)
		defer service.Gate.Stop()
	}

	server := httpserver.NewServer(&cfg.Server, service, logger.Named("http"))

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gCtx)
	})

	if cfg.Catalog.Watch {
		if catalog.IsDir(cfg.Catalog.Source) {
			watcher := catalog.NewWatcher(cfg.Catalog.Source, live, opts, logger.Named("watcher"))
			watcher.SetDebounce(cfg.Catalog.WatchDebounce)
			watcher.OnReload = func(table *resource.Table, _ catalog.Report, err error) {
				metrics.RecordReload(table, err)
			}
			g.Go(func() error {
				return watcher.Run(gCtx)
			})
		} else {
			logger.Warn("Watching is only supported for directory catalogues",
				zap.String("source", cfg.Catalog.Source))
		}
	}

	logger.Info("locres started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)),
		zap.Int("locales", len(table.Locales())),
		zap.Int("templates", table.Len()),
		zap.Bool("watch", cfg.Catalog.Watch))

	if err := g.Wait(); err != nil {
		logger.Error("locres stopped with error", zap.Error(err))
		return err
	}

	logger.Info("locres stopped gracefully")
	return nil
}

func resolve(ctx context.Context, out, errOut io.Writer, cfg *core.Config, args []string) error {
	loc := i18n.NewLocalizer(cfg.App.Language)

	values := make([]any, 0, len(args)-2)
	for i, raw := range args[2:] {
		v, err := parseArg(raw)
		if err != nil {
			return &localizedError{msg: loc.T("error.argument", i+1, raw, err.Error()), err: err}
		}
		values = append(values, v)
	}

	table, _, err := loadCatalog(ctx, cfg, nil)
	if err != nil {
		return err
	}

	locale, key := args[0], args[1]
	result, err := i18n.NewResolver(table, format.NewCache(cfg.Format.CacheSize)).Resolve(locale, key, values...)
	if err != nil {
		var notFound *resource.NotFoundError
		if errors.As(err, &notFound) {
			msg := loc.T("error.not_found", key, locale)
			if len(notFound.Suggestions) > 0 {
				msg += " " + loc.T("error.suggestions", strings.Join(notFound.Suggestions, ", "))
			}
			return &localizedError{msg: msg, err: err}
		}
		return &localizedError{msg: loc.T("error.format", key, err.Error()), err: err}
	}

	if fb := result.Resolution.Fallback; fb != nil {
		requested := fb.Requested
		if requested == "" {
			requested = table.DefaultLocale().String()
		}
		fmt.Fprintln(errOut, loc.T("resolve.fallback", key, requested, fb.Resolved.String()))
	}
	fmt.Fprintln(out, result.Text)
	return nil
}

// parseArg converts a command line argument into a formatter argument.
func parseArg(raw string) (any, error) {
	if prefix, value, ok := strings.Cut(raw, ":"); ok {
		switch prefix {
		case "s":
			return value, nil
		case "d", "i":
			return strconv.ParseInt(value, 10, 64)
		case "f":
			return strconv.ParseFloat(value, 64)
		case "b":
			return strconv.ParseBool(value)
		case "c":
			r, size := utf8.DecodeRuneInString(value)
			if size == 0 || size != len(value) || r == utf8.RuneError {
				return nil, fmt.Errorf("%q is not a single character", value)
			}
			return r, nil
		}
	}

	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i, nil
	}
	// ParseFloat also takes words such as "Nan" or "Inf"; those stay text
	// unless passed as f:NaN.
	if strings.ContainsAny(raw, "0123456789") {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f, nil
		}
	}
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return raw, nil
}

func check(ctx context.Context, out io.Writer, cfg *core.Config) error {
	loc := i18n.NewLocalizer(cfg.App.Language)

	table, report, err := loadCatalog(ctx, cfg, nil)
	if err != nil {
		var strictErr *catalog.StrictError
		if !errors.As(err, &strictErr) {
			return err
		}
	}

	for _, issue := range report.Issues {
		fmt.Fprintln(out, loc.T("check.issue", issue.Source, issueDetail(issue)))
	}

	missing := 0
	for _, m := range report.Missing {
		missing += len(m.Keys)
		fmt.Fprintln(out, loc.T("check.missing", m.Locale, len(m.Keys), m.Total, strings.Join(m.Keys, ", ")))
	}

	templates, locales := 0, 0
	if table != nil {
		templates, locales = table.Len(), len(table.Locales())
	}
	fmt.Fprintln(out, loc.T("check.summary", templates, locales, len(report.Issues), missing))

	if len(report.Issues) > 0 {
		return errCheckFailed
	}
	if report.Clean() {
		fmt.Fprintln(out, loc.T("check.ok"))
	}
	return nil
}

func issueDetail(issue catalog.Issue) string {
	var parts []string
	if issue.Locale != "" {
		parts = append(parts, "["+issue.Locale+"]")
	}
	if issue.Key != "" {
		parts = append(parts, issue.Key)
	}
	return strings.Join(append(parts, issue.Reason), " ")
}

func exportCatalog(ctx context.Context, out io.Writer, cfg *core.Config, name, dir string) error {
	exporter, err := export.Get(name)
	if err != nil {
		return err
	}

	table, _, err := loadCatalog(ctx, cfg, nil)
	if err != nil {
		return err
	}

	files, err := exporter.Export(table, dir)
	if err != nil {
		return fmt.Errorf("export %s: %w", name, err)
	}

	fmt.Fprintln(out, i18n.NewLocalizer(cfg.App.Language).T("export.done", len(files), dir))
	return nil
}

func importCatalog(ctx context.Context, out io.Writer, cfg *core.Config, path string) error {
	table, _, err := loadCatalog(ctx, cfg, nil)
	if err != nil {
		return err
	}

	db, err := store.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	records := catalog.Records(table)
	if err := db.Save(ctx, records); err != nil {
		return err
	}

	fmt.Fprintln(out, i18n.NewLocalizer(cfg.App.Language).T("import.done", len(records), path))
	return nil
}

func listLocales(ctx context.Context, out io.Writer, cfg *core.Config) error {
	loc := i18n.NewLocalizer(cfg.App.Language)

	table, _, err := loadCatalog(ctx, cfg, nil)
	if err != nil {
		return err
	}

	def := table.DefaultLocale().String()
	for _, tag := range table.Locales() {
		name := tag.String()
		if name == def {
			name = loc.T("locales.default", name)
		}
		fmt.Fprintln(out, loc.T("locales.row", name, len(table.Keys(tag))))
	}
	return nil
}
