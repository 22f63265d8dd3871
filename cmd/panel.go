package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"ttlpanel/internal/config"
	"ttlpanel/internal/logging"
	"ttlpanel/internal/panel"
)

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Open the interactive TTL panel",
	Long: `Open the TTL Changer panel in the terminal.

The panel shows the current TTL colored by value (green for 65, yellow for the
default 64, red otherwise), and offers refresh, set 65, reset, persistence and
a custom value between 32 and 128.

When no interactive terminal is available the current status is printed instead.`,
	Args: cobra.NoArgs,
	RunE: runPanel,
}

func init() {
	rootCmd.AddCommand(panelCmd)
}

func runPanel(cmd *cobra.Command, args []string) error {
	logger, closer, err := setupLogger(logging.ModeTUI)
	if err != nil {
		return err
	}
	defer closer.Close()

	j := openJournal(logger)
	toasts := newToastNotifier()
	ctrl := newController(newService(logger), toasts, logger, j)

	host := newTerminalHost()
	host.Register(newPanelModel(cmd.Context(), ctrl, toasts, logger), func() {
		ctrl.Teardown()
		if j != nil {
			j.Close()
		}
	})

	if err := host.Run(cmd.Context()); err != nil {
		// Fallback to static status if interactive mode fails
		logger.Warn("Interactive panel unavailable", "error", err)
		static := newController(newService(logger), consoleNotifier{out: os.Stdout, errOut: os.Stderr}, logger, nil)
		return runStaticStatus(cmd.Context(), static, os.Stdout)
	}

	return nil
}

// terminalHost embeds a panel view in a bubbletea program and owns its
// lifecycle
type terminalHost struct {
	mu       sync.Mutex
	view     panel.View
	teardown func()
	opts     []tea.ProgramOption
}

func newTerminalHost(opts ...tea.ProgramOption) *terminalHost {
	return &terminalHost{opts: opts}
}

// Register implements panel.Host
func (h *terminalHost) Register(view panel.View, onTeardown func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.view = view
	h.teardown = onTeardown
}

// Run shows the registered view until the user quits or ctx ends. The
// teardown hook runs exactly once, whatever the outcome.
func (h *terminalHost) Run(ctx context.Context) error {
	h.mu.Lock()
	view, teardown := h.view, h.teardown
	h.teardown = nil
	h.mu.Unlock()

	if teardown != nil {
		defer teardown()
	}
	if view == nil {
		return fmt.Errorf("no panel registered")
	}

	model, ok := view.(tea.Model)
	if !ok {
		return fmt.Errorf("panel %q cannot be shown in a terminal", view.Title())
	}

	opts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, h.opts...)
	_, err := tea.NewProgram(model, opts...).Run()
	return err
}

// toastNotifier feeds notifications to the running panel model
type toastNotifier struct {
	ch chan toast
}

func newToastNotifier() *toastNotifier {
	return &toastNotifier{ch: make(chan toast, config.MaxToasts*4)}
}

// Notify implements panel.Notifier. It never blocks; when the model falls
// behind the oldest unseen notification is dropped.
func (n *toastNotifier) Notify(title, body string) {
	t := toast{title: title, body: body}
	for {
		select {
		case n.ch <- t:
			return
		default:
		}
		select {
		case <-n.ch:
		default:
		}
	}
}

// consoleNotifier prints notifications for one-shot commands
type consoleNotifier struct {
	out    io.Writer
	errOut io.Writer
}

func (n consoleNotifier) Notify(title, body string) {
	if title == panel.TitleError {
		fmt.Fprintf(n.errOut, "✗ %s\n", body)
		return
	}
	fmt.Fprintf(n.out, "✓ %s\n", body)
}

// runStaticStatus prints the panel state as a table
func runStaticStatus(ctx context.Context, ctrl *panel.Controller, out io.Writer) error {
	if err := ctrl.Refresh(ctx); err != nil {
		return err
	}
	renderStatusTable(ctrl.Snapshot(), out)
	return nil
}

func renderStatusTable(snap panel.Snapshot, out io.Writer) {
	t := prettytable.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(prettytable.StyleRounded)
	t.SetTitle("TTL Changer")

	readout := snap.Readout()
	t.AppendRow(prettytable.Row{"Current TTL", fmt.Sprintf("%s %s", classIcon(readout.Class), readout.Text)})
	t.AppendRow(prettytable.Row{"Persistent", persistenceText(snap)})
	t.AppendRow(prettytable.Row{"Backend", appConfig.BackendURL})
	t.AppendRow(prettytable.Row{"Plugin", appConfig.Plugin})
	t.Render()
}

func classIcon(c panel.Class) string {
	switch c {
	case panel.ClassPreset:
		return "🟢"
	case panel.ClassDefault:
		return "🟡"
	default:
		return "🔴"
	}
}

func persistenceText(snap panel.Snapshot) string {
	switch {
	case !snap.IsPersistent:
		return "Off"
	case snap.PersistentTTL != nil:
		return fmt.Sprintf("On (%d)", *snap.PersistentTTL)
	default:
		return "On"
	}
}
