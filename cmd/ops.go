package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ttlpanel/internal/config"
	"ttlpanel/internal/logging"
	"ttlpanel/internal/panel"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current TTL and persistence rule",
	Long: `Read the current TTL and the persistence rule from the backend and print them.

Examples:
  ttlpanel status            # Table view
  ttlpanel status --plain    # Just the TTL, for scripts`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var setCmd = &cobra.Command{
	Use:   "set <ttl>",
	Short: "Set the TTL",
	Long: fmt.Sprintf(`Set the device TTL.

65 and %d use the preset procedures; any other whole number between %d and %d
is applied as a custom value. Values outside that range are rejected without
contacting the backend.

Examples:
  ttlpanel set 65
  ttlpanel set 100`, config.DefaultTTL, config.MinCustomTTL, config.MaxCustomTTL),
	Args: cobra.ExactArgs(1),
	RunE: runSet,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: fmt.Sprintf("Reset the TTL to the default (%d)", config.DefaultTTL),
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

var persistCmd = &cobra.Command{
	Use:   "persist <on|off>",
	Short: "Make the current TTL persistent across reboots, or restore the default",
	Long: fmt.Sprintf(`Set the TTL the backend re-applies at boot.

"on" persists the TTL the backend currently reports; "off" persists the
default (%d).`, config.DefaultTTL),
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runPersist,
}

var statusPlain bool

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(persistCmd)

	statusCmd.Flags().BoolVar(&statusPlain, "plain", false, "Print only the TTL value")
}

// withController runs fn against a controller wired for one-shot use
func withController(cmd *cobra.Command, fn func(ctx context.Context, ctrl *panel.Controller) error) error {
	logger, closer, err := setupLogger(logging.ModeCLI)
	if err != nil {
		return err
	}
	defer closer.Close()

	j := openJournal(logger)
	if j != nil {
		defer j.Close()
	}

	ctrl := newController(newService(logger), consoleNotifier{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}, logger, j)
	defer ctrl.Teardown()

	return fn(cmd.Context(), ctrl)
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withController(cmd, func(ctx context.Context, ctrl *panel.Controller) error {
		return printStatus(ctx, ctrl, cmd.OutOrStdout(), statusPlain)
	})
}

func printStatus(ctx context.Context, ctrl *panel.Controller, out io.Writer, plain bool) error {
	if !plain {
		return runStaticStatus(ctx, ctrl, out)
	}
	if err := ctrl.Refresh(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, ctrl.Snapshot().CurrentTTL)
	return nil
}

func runSet(cmd *cobra.Command, args []string) error {
	return withController(cmd, func(ctx context.Context, ctrl *panel.Controller) error {
		return applyTTL(ctx, ctrl, args[0])
	})
}

// applyTTL routes the preset values to their own procedures and
// everything else through custom validation
func applyTTL(ctx context.Context, ctrl *panel.Controller, raw string) error {
	if v, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && (v == config.PresetTTL || v == config.DefaultTTL) {
		return ctrl.SetFixed(ctx, v)
	}
	return ctrl.SetCustom(ctx, raw)
}

func runReset(cmd *cobra.Command, args []string) error {
	return withController(cmd, func(ctx context.Context, ctrl *panel.Controller) error {
		return ctrl.SetFixed(ctx, config.DefaultTTL)
	})
}

func runPersist(cmd *cobra.Command, args []string) error {
	enable, err := parseOnOff(args[0])
	if err != nil {
		return err
	}
	return withController(cmd, func(ctx context.Context, ctrl *panel.Controller) error {
		return setPersistence(ctx, ctrl, enable)
	})
}

// setPersistence reads the current TTL first when enabling, since that
// is the value the rule pins
func setPersistence(ctx context.Context, ctrl *panel.Controller, enable bool) error {
	if enable {
		if err := ctrl.Refresh(ctx); err != nil {
			return err
		}
	}
	return ctrl.SetPersistence(ctx, enable)
}

func parseOnOff(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid argument %q: expected on or off", arg)
	}
}
