// Command carlitos runs the savings simulators, the mentor quiz and the
// personal ledger from the terminal, and serves them as an HTTP API.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/carlitos-finanzas/carlitos/internal/config"
	"github.com/carlitos-finanzas/carlitos/internal/ledger"
	"github.com/carlitos-finanzas/carlitos/internal/remote"
	"github.com/carlitos-finanzas/carlitos/internal/store"
	"github.com/carlitos-finanzas/carlitos/pkg/constants"
	"github.com/carlitos-finanzas/carlitos/pkg/output"
	"github.com/carlitos-finanzas/carlitos/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app holds the global flags and what PersistentPreRunE builds from them.
type app struct {
	configPath   string
	envPath      string
	logLevel     string
	outputFormat string
	ephemeral    bool

	conf   *config.Configuration
	logger *zap.Logger
	out    io.Writer
}

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var cfg zap.Config
	switch format {
	case "console":
		cfg = zap.NewDevelopmentConfig()
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		}
		_ = file.Close()

		cfg.OutputPaths = []string{loggingConfig.OutputFile}
		cfg.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return cfg.Build()
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "carlitos",
		Short:         "Savings simulators, mentor quiz and personal ledger",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	flags.StringVar(&a.envPath, "env-file", constants.DefaultEnvFile, "dotenv file loaded before the configuration")
	flags.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.StringVar(&a.outputFormat, "output-format", "", "type of output override: pretty, csv, json")
	flags.BoolVar(&a.ephemeral, "ephemeral", false, "keep the ledger in memory for this run")

	root.AddCommand(
		a.newSimulateCmd(),
		a.newMentorCmd(),
		a.newTransactionsCmd(),
		a.newGoalsCmd(),
		a.newProfileCmd(),
		a.newSyncCmd(),
		a.newServeCmd(),
		a.newConfigCmd(),
	)
	return root
}

// setup loads the env file and configuration and builds the logger. A missing
// configuration file is only an error when --config was given explicitly.
func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadEnvFile(a.envPath); err != nil {
		return err
	}

	var err error
	switch {
	case config.Exists(a.configPath):
		a.conf, err = config.LoadConfiguration(a.configPath)
	case cmd.Flags().Changed("config"):
		return fmt.Errorf("configuration file %s not found", a.configPath)
	default:
		a.conf, err = config.DefaultConfiguration()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", a.configPath, err)
	}

	if err := validation.ValidateLogLevel(a.logLevel); err != nil {
		return err
	}
	a.logger, err = initializeLogger(a.conf.Logging, a.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	for _, warning := range a.conf.ValidateConfiguration() {
		a.logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main.setup"),
		)
	}
	return nil
}

// writer returns an output writer honoring --output-format over the config.
func (a *app) writer() (*output.Writer, error) {
	format := a.conf.Output.Format
	if a.outputFormat != "" {
		format = a.outputFormat
	}
	if format == "" {
		format = constants.OutputFormatPretty
	}
	return output.NewWriter(a.out, strings.ToLower(format))
}

// openLedger builds the ledger service over the configured store. The
// returned close function releases the store and the remote cache.
func (a *app) openLedger() (*ledger.Service, func() error, error) {
	const op = "main.openLedger"

	var (
		repo    ledger.Repository
		closers []func() error
	)
	if a.ephemeral || a.conf.Storage.Ephemeral {
		repo = store.NewMemoryStore()
	} else {
		sqlite, err := store.OpenSQLite(a.logger, a.conf.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		repo = sqlite
		closers = append(closers, sqlite.Close)
	}

	opts := []ledger.Option{
		ledger.WithUser(a.conf.Sync.User),
		ledger.WithProfileName(a.conf.Profile.Name),
	}
	if a.conf.SyncEnabled() {
		cache := remote.NewRedisCache(a.conf.Sync.Address)
		closers = append(closers, cache.Close)
		opts = append(opts, ledger.WithSyncer(remote.NewSyncer(a.logger, cache, a.conf.Sync.KeyPrefix)))
		a.logger.Debug("remote sync enabled",
			zap.String("op", op),
			zap.String("address", a.conf.Sync.Address),
		)
	}

	closeAll := func() error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
	return ledger.NewService(a.logger, repo, opts...), closeAll, nil
}

// withLedger runs fn with an open ledger and closes it afterwards.
func (a *app) withLedger(ctx context.Context, fn func(ctx context.Context, svc *ledger.Service) error) error {
	svc, closeFn, err := a.openLedger()
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFn(); err != nil {
			a.logger.Warn("failed to close ledger",
				zap.String("op", "main.withLedger"),
				zap.Error(err),
			)
		}
	}()
	return fn(ctx, svc)
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": %q}\n", err.Error())
		os.Exit(1)
	}
}
