package cmd

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ttlpanel/internal/backend"
	"ttlpanel/internal/config"
	apperrors "ttlpanel/internal/errors"
	"ttlpanel/internal/journal"
	"ttlpanel/internal/logging"
	"ttlpanel/internal/panel"
	"ttlpanel/internal/utils"
)

var rootCmd = &cobra.Command{
	Use:   "ttlpanel",
	Short: "TTL Changer settings panel",
	Long: `ttlpanel shows and changes the device's default IP TTL through the
TTL Changer plugin backend.

Run without a subcommand to open the interactive panel. The same controls are
available as one-shot commands for scripts.

Common usage:
  ttlpanel                      # Open the interactive panel
  ttlpanel status               # Print the current TTL and persistence rule
  ttlpanel set 65               # Set TTL to 65
  ttlpanel set 100              # Set a custom TTL (32-128)
  ttlpanel reset                # Reset TTL to the default (64)
  ttlpanel persist on           # Keep the current TTL across reboots
  ttlpanel history              # Show recent TTL changes`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	RunE:              runPanel,
}

var (
	configPath   string
	flagBackend  string
	flagPlugin   string
	flagToken    string
	flagLogLevel string
	flagTimeout  time.Duration

	appConfig = config.Default()
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default ~/.config/ttlpanel/config.yaml)")
	pf.StringVar(&flagBackend, "backend", "", "Plugin host URL")
	pf.StringVar(&flagPlugin, "plugin", "", "Plugin name on the host")
	pf.StringVar(&flagToken, "token", "", "Plugin host authentication token")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.DurationVar(&flagTimeout, "timeout", 0, "Per-call timeout, 0 disables (default 15s)")
}

// loadConfig layers flags over the loaded configuration
func loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.BackendURL = flagBackend
	}
	if flags.Changed("plugin") {
		cfg.Plugin = flagPlugin
	}
	if flags.Changed("token") {
		cfg.Token = flagToken
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = flagTimeout
	}

	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return err
	}

	appConfig = cfg
	return nil
}

// setupLogger creates the logger for a command. The closer is never nil.
func setupLogger(mode logging.Mode) (*slog.Logger, io.Closer, error) {
	stateDir, err := config.StateDir()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve state directory: %w", err)
	}
	return logging.Setup(mode, appConfig.LogLevel, appConfig.LogFile, stateDir)
}

// newService returns the backend client described by the configuration
func newService(logger *slog.Logger) backend.Service {
	return backend.NewClient(appConfig.BackendURL, appConfig.Plugin,
		backend.WithToken(appConfig.Token),
		backend.WithTimeout(appConfig.RequestTimeout),
		backend.WithLogger(logger),
	)
}

// openJournal opens the operation journal when enabled. A journal that
// cannot be opened is logged and skipped; it never blocks a TTL change.
func openJournal(logger *slog.Logger) journal.Service {
	if !appConfig.Journal.Enabled {
		return nil
	}
	j, err := utils.NewJournal(appConfig)
	if err != nil {
		logger.Warn("Operation journal unavailable", "error", apperrors.WrapJournalError(err, "open"))
		return nil
	}
	return j
}

// newController wires a controller to the backend and, when open, the journal
func newController(svc backend.Service, notifier panel.Notifier, logger *slog.Logger, j journal.Service) *panel.Controller {
	opts := []panel.Option{panel.WithLogger(logger)}
	if j != nil {
		opts = append(opts, panel.WithRecorder(j))
	}
	return panel.NewController(svc, notifier, opts...)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var pe *apperrors.PanelError
		if stderrors.As(err, &pe) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", pe.UserFriendlyMessage())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
