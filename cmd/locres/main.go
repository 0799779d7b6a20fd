// Package main provides the locres CLI application entry point.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"locres/internal/core"
	"locres/internal/i18n"
)

const (
	defaultServerHost = "0.0.0.0"
	envPrefix         = "LOCRES"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "locres",
	Short: "locres - localized string resources",
	Long: `locres loads localized string catalogues (message files, Android resources,
SQLite or Postgres), resolves keys through a locale fallback chain and formats
positional templates such as "Hello %2$s, you have %1$d items".`,
	SilenceUsage: true,
	RunE:         runRoot,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := core.DefaultConfig()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	supportedLangs := strings.Join(i18n.GetSupportedLanguages(), ", ")
	rootCmd.PersistentFlags().String("language", i18n.DefaultLanguage, fmt.Sprintf("CLI language (%s)", supportedLangs))
	rootCmd.PersistentFlags().String("catalog", defaults.Catalog.Source, "catalogue source: directory, sqlite://FILE or postgres://DSN")
	rootCmd.PersistentFlags().String("default-locale", defaults.Catalog.DefaultLocale, "locale every lookup finally falls back to")
	rootCmd.PersistentFlags().Bool("strict", false, "fail loading when any template has an issue")
	rootCmd.PersistentFlags().Int("cache-size", defaults.Format.CacheSize, "number of parsed templates to cache")
	rootCmd.PersistentFlags().String("server-host", defaultServerHost, "HTTP server host")
	rootCmd.PersistentFlags().Int("server-port", defaults.Server.Port, "HTTP server port")
	rootCmd.PersistentFlags().Bool("watch", false, "reload a directory catalogue when its files change")
	rootCmd.PersistentFlags().Duration("watch-debounce", defaults.Catalog.WatchDebounce, "how long file changes must settle before a reload")
	rootCmd.PersistentFlags().Int("rate-limit-per-minute", defaults.App.RateLimitPerMinute, "maximum API requests per client and route per minute (0 disables)")
	rootCmd.PersistentFlags().Bool("generate-env-example", false, "Generate .env.example file from current configuration and exit")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(serveCmd, resolveCmd, checkCmd, exportCmd, importCmd, localesCmd)
}

func initConfig() {
	// Load .env file explicitly using gotenv
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	configureCatalog(cfg)
	configureServer(cfg)
	configureApp(cfg)

	return cfg
}

func configureCatalog(cfg *core.Config) {
	if source := viper.GetString("catalog"); source != "" {
		cfg.Catalog.Source = source
	}
	if locale := viper.GetString("default-locale"); locale != "" {
		cfg.Catalog.DefaultLocale = locale
	}
	cfg.Catalog.Strict = viper.GetBool("strict")
	cfg.Catalog.Watch = viper.GetBool("watch")

	cfg.Catalog.WatchDebounce = viper.GetDuration("watch-debounce")
	if cfg.Catalog.WatchDebounce <= 0 {
		cfg.Catalog.WatchDebounce = core.DefaultWatchDebounce
	}

	cfg.Format.CacheSize = viper.GetInt("cache-size")
	if cfg.Format.CacheSize <= 0 {
		fmt.Fprintf(os.Stderr, "Warning: Invalid cache size (%d), using default (%d)\n",
			cfg.Format.CacheSize, core.DefaultCacheSize)
		cfg.Format.CacheSize = core.DefaultCacheSize
	}
}

func configureServer(cfg *core.Config) {
	cfg.Server.Host = viper.GetString("server-host")
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultServerHost
	}
	cfg.Server.Port = viper.GetInt("server-port")
	cfg.Log.Level = viper.GetString("log-level")
}

func configureApp(cfg *core.Config) {
	cfg.App.RateLimitPerMinute = viper.GetInt("rate-limit-per-minute")
	if cfg.App.RateLimitPerMinute < 0 {
		cfg.App.RateLimitPerMinute = 0
	}

	cfg.App.Language = viper.GetString("language")
	if cfg.App.Language == "" {
		cfg.App.Language = i18n.DefaultLanguage
	}

	supportedLanguages := i18n.GetSupportedLanguages()
	isSupported := false
	for _, lang := range supportedLanguages {
		if cfg.App.Language == lang {
			isSupported = true
			break
		}
	}
	if !isSupported {
		fmt.Fprintf(os.Stderr, "Warning: Unsupported language '%s', falling back to '%s'. Supported languages: %s\n",
			cfg.App.Language, i18n.DefaultLanguage, strings.Join(supportedLanguages, ", "))
		cfg.App.Language = i18n.DefaultLanguage
	}
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runRoot(cmd *cobra.Command, _ []string) error {
	if viper.GetBool("generate-env-example") {
		return generateEnvExample(cmd)
	}
	return cmd.Help()
}

func generateEnvExample(cmd *cobra.Command) error {
	fmt.Println("Generating .env.example file from current configuration...")

	content := generateEnvExampleContent(cmd)

	if err := os.WriteFile(".env.example", []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write .env.example: %w", err)
	}

	fmt.Println("Successfully generated .env.example file")
	return nil
}

// envSection groups flags under a heading in .env.example.
type envSection struct {
	title string
	flags []string
}

var envSections = []envSection{
	{"Catalogue", []string{"catalog", "default-locale", "strict", "cache-size"}},
	{"Hot reload", []string{"watch", "watch-debounce"}},
	{"HTTP server", []string{"server-host", "server-port", "rate-limit-per-minute"}},
	{"Localization", []string{"language"}},
	{"Logging", []string{"log-level"}},
}

func generateEnvExampleContent(cmd *cobra.Command) string {
	var content strings.Builder

	content.WriteString("# =============================================================================\n")
	content.WriteString("# locres Configuration\n")
	content.WriteString("# =============================================================================\n")
	content.WriteString("#\n")
	content.WriteString("# Copy this file to .env and update with your values\n")
	content.WriteString("# All environment variables have CLI flag equivalents (use --help to see them)\n")
	content.WriteString("#\n")
	fmt.Fprintf(&content, "# Format: %s_<SETTING>=value\n", envPrefix)
	content.WriteString("# CLI equivalent: --<setting>\n")
	content.WriteString("#\n\n")

	for _, section := range envSections {
		content.WriteString("# -----------------------------------------------------------------------------\n")
		fmt.Fprintf(&content, "# %s\n", section.title)
		content.WriteString("# -----------------------------------------------------------------------------\n")
		for _, name := range section.flags {
			f := cmd.PersistentFlags().Lookup(name)
			if f == nil {
				continue
			}
			fmt.Fprintf(&content, "# %s (default: %s)\n", f.Usage, f.DefValue)
			fmt.Fprintf(&content, "%s=%s\n", flagToEnvVar(name), f.DefValue)
		}
		content.WriteString("\n")
	}

	return content.String()
}

func flagToEnvVar(flagName string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

// loadTimeout bounds catalogue loading from databases.
const loadTimeout = 30 * time.Second
