package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttlpanel/internal/backend"
	"ttlpanel/internal/config"
	"ttlpanel/internal/logging"
	"ttlpanel/internal/panel"
)

func newTestModel(t *testing.T, ttl int) (*panelModel, *backend.MockService, *toastNotifier) {
	t.Helper()
	svc := backend.NewMockService(ttl)
	toasts := newToastNotifier()
	ctrl := panel.NewController(svc, toasts, panel.WithLogger(logging.Discard()))
	m := newPanelModel(context.Background(), ctrl, toasts, logging.Discard())
	return m, svc, toasts
}

// mountedModel returns a model whose first refresh has completed
func mountedModel(t *testing.T, ttl int) (*panelModel, *backend.MockService, *toastNotifier) {
	t.Helper()
	m, svc, toasts := newTestModel(t, ttl)
	exec(t, m, m.run(panel.OpRefresh, m.ctrl.Refresh))
	return m, svc, toasts
}

// exec runs an operation command and feeds its result back to the model
func exec(t *testing.T, m *panelModel, cmd tea.Cmd) operationDoneMsg {
	t.Helper()
	require.NotNil(t, cmd, "expected a command")
	msg, ok := cmd().(operationDoneMsg)
	require.True(t, ok, "expected an operation result")
	m.Update(msg)
	return msg
}

func press(m *panelModel, key string) tea.Cmd {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEscape}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	_, cmd := m.Update(msg)
	return cmd
}

func nextToast(t *testing.T, n *toastNotifier) toast {
	t.Helper()
	select {
	case got := <-n.ch:
		return got
	case <-time.After(time.Second):
		t.Fatal("no notification raised")
		return toast{}
	}
}

func TestPanelModelMountShowsStatus(t *testing.T) {
	m, svc, _ := mountedModel(t, 64)

	view := m.View()
	assert.Contains(t, view, "Current TTL")
	assert.Contains(t, view, "64")
	assert.Contains(t, view, "Set TTL to 65")
	assert.Contains(t, view, "Reset TTL to Default (64)")
	assert.Contains(t, view, "[ ] Make Changes Persistent")
	assert.Contains(t, view, "About TTL")
	assert.Equal(t, 1, svc.Calls(backend.ProcGetCurrentTTL))
	assert.Equal(t, "TTL Changer", m.Title())
}

func TestPanelModelShortcuts(t *testing.T) {
	m, svc, toasts := mountedModel(t, 64)

	// Reset is disabled while the TTL is already the default
	assert.Nil(t, press(m, "d"))
	assert.Zero(t, svc.Calls(backend.ProcResetTTLToDefault))

	done := exec(t, m, press(m, "s"))
	require.NoError(t, done.err)
	assert.Equal(t, 65, m.ctrl.Snapshot().CurrentTTL)
	assert.Equal(t, controlSetPreset, m.focus)
	assert.Equal(t, "TTL changed to 65 successfully!", nextToast(t, toasts).body)

	// Now set-65 is disabled and reset is available
	assert.Nil(t, press(m, "s"))
	exec(t, m, press(m, "d"))
	assert.Equal(t, 64, m.ctrl.Snapshot().CurrentTTL)

	exec(t, m, press(m, "p"))
	snap := m.ctrl.Snapshot()
	assert.True(t, snap.IsPersistent)
	assert.Equal(t, []int{64}, svc.Args(backend.ProcMakeTTLPersistent))
	assert.Contains(t, m.View(), "[x] Make Changes Persistent")

	exec(t, m, press(m, "p"))
	assert.False(t, m.ctrl.Snapshot().IsPersistent)

	exec(t, m, press(m, "r"))
	assert.Equal(t, 2, svc.Calls(backend.ProcGetCurrentTTL))
}

func TestPanelModelNavigation(t *testing.T) {
	m, _, _ := mountedModel(t, 64)

	assert.Equal(t, controlRefresh, m.focus)
	press(m, "up")
	assert.Equal(t, controlRefresh, m.focus, "focus stops at the top")

	for i := 0; i < 10; i++ {
		press(m, "j")
	}
	assert.Equal(t, controlAdvanced, m.focus, "custom input hidden until advanced")

	// Enter on the advanced row reveals the custom input
	assert.Nil(t, press(m, "enter"))
	assert.True(t, m.ctrl.Snapshot().ShowAdvanced)
	press(m, "down")
	assert.Equal(t, controlCustom, m.focus)

	// Hiding advanced moves focus off the custom row
	press(m, "a")
	assert.False(t, m.ctrl.Snapshot().ShowAdvanced)
	assert.Equal(t, controlAdvanced, m.focus)
}

func TestPanelModelCustomTTL(t *testing.T) {
	m, svc, toasts := mountedModel(t, 64)

	press(m, "i")
	require.True(t, m.editing)
	assert.True(t, m.ctrl.Snapshot().ShowAdvanced)

	for _, r := range "100" {
		press(m, string(r))
	}
	assert.Equal(t, "100", m.ctrl.Snapshot().CustomTTLText)

	done := exec(t, m, press(m, "enter"))
	require.NoError(t, done.err)

	assert.Equal(t, 100, m.ctrl.Snapshot().CurrentTTL)
	assert.Equal(t, []int{100}, svc.Args(backend.ProcSetTTLCustom))
	assert.Empty(t, m.input.Value(), "draft cleared after success")
	assert.Equal(t, "TTL changed to 100 successfully!", nextToast(t, toasts).body)

	press(m, "esc")
	assert.False(t, m.editing)
}

func TestPanelModelRejectsCustomTTL(t *testing.T) {
	m, svc, toasts := mountedModel(t, 64)

	press(m, "i")
	for _, r := range "200" {
		press(m, string(r))
	}
	done := exec(t, m, press(m, "enter"))
	require.Error(t, done.err)

	assert.Zero(t, svc.Calls(backend.ProcSetTTLCustom))
	assert.Equal(t, 64, m.ctrl.Snapshot().CurrentTTL)
	assert.Equal(t, "200", m.input.Value(), "draft kept for correction")

	got := nextToast(t, toasts)
	assert.Equal(t, panel.TitleError, got.title)
	assert.Equal(t, panel.MsgInvalidCustom, got.body)

	m.Update(toastMsg{toast: got})
	require.Len(t, m.notes, 1)
	assert.Equal(t, panel.MsgInvalidCustom, m.notes[0].body)
	// The toast wraps inside the panel, so only its start is on one line
	assert.Contains(t, m.View(), "TTL must be")
}

func TestPanelModelCustomRowLayout(t *testing.T) {
	m, _, _ := mountedModel(t, 64)

	press(m, "i")
	for _, r := range "200" {
		press(m, string(r))
	}

	var row string
	for _, line := range strings.Split(m.View(), "\n") {
		if strings.Contains(line, "Custom TTL (32-128)") {
			row = line
			break
		}
	}
	require.NotEmpty(t, row, "custom row missing from view")
	assert.Contains(t, row, "▶ Custom TTL", "focus marker sits beside the label")
	assert.Contains(t, row, "200")
	assert.Contains(t, row, "Apply")

	// Unfocused rows keep the same indent as the marker column
	press(m, "esc")
	press(m, "up")
	for _, line := range strings.Split(m.View(), "\n") {
		if strings.Contains(line, "Custom TTL (32-128)") {
			assert.NotContains(t, line, "▶")
			assert.Contains(t, line, "   Custom TTL")
		}
	}
}

func TestPanelModelShowsChanging(t *testing.T) {
	m, svc, _ := mountedModel(t, 64)
	entered, release := svc.Block(backend.ProcSetTTLTo65)

	cmd := press(m, "s")
	require.NotNil(t, cmd)

	result := make(chan tea.Msg, 1)
	go func() { result <- cmd() }()
	<-entered

	assert.Contains(t, m.View(), "Changing...")
	assert.Nil(t, press(m, "r"), "refresh disabled while changing")
	assert.Nil(t, press(m, "p"), "persistence disabled while changing")

	release()
	m.Update(<-result)
	assert.NotContains(t, m.View(), "Changing...")
	assert.Equal(t, 65, m.ctrl.Snapshot().CurrentTTL)
}

func TestPanelModelToasts(t *testing.T) {
	m, _, _ := newTestModel(t, 64)

	for i := 0; i < config.MaxToasts+2; i++ {
		require.NotNil(t, m.pushToast(panel.TitleSuccess, fmt.Sprintf("note %d", i)))
	}
	require.Len(t, m.notes, config.MaxToasts)
	assert.Equal(t, "note 2", m.notes[0].body, "oldest toasts dropped first")

	first := m.notes[0].id
	m.Update(toastExpiredMsg{id: first})
	assert.Len(t, m.notes, config.MaxToasts-1)
	assert.NotContains(t, m.View(), "note 2")
}

func TestPanelModelHelp(t *testing.T) {
	m, _, _ := mountedModel(t, 64)

	press(m, "?")
	require.True(t, m.help)
	assert.Contains(t, m.View(), "Keyboard shortcuts")

	// Any other key closes help without acting
	assert.Nil(t, press(m, "s"))
	assert.False(t, m.help)
	assert.Equal(t, 64, m.ctrl.Snapshot().CurrentTTL)
}

func TestPanelModelQuit(t *testing.T) {
	m, _, _ := mountedModel(t, 64)
	cmd := press(m, "q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestYankNeedsKnownTTL(t *testing.T) {
	m, _, _ := newTestModel(t, 64)

	assert.Nil(t, press(m, "y"))
	assert.NotNil(t, press(m, "y"))
	require.Len(t, m.notes, 1)
	assert.Equal(t, panel.TitleError, m.notes[0].title)
}

type plainView struct{}

func (plainView) Title() string { return "plain" }
func (plainView) View() string  { return "" }

func TestTerminalHost(t *testing.T) {
	t.Run("teardown runs once when the view cannot be shown", func(t *testing.T) {
		h := newTerminalHost()
		calls := 0
		h.Register(plainView{}, func() { calls++ })

		err := h.Run(context.Background())
		assert.ErrorContains(t, err, "cannot be shown")
		assert.Error(t, h.Run(context.Background()))
		assert.Equal(t, 1, calls, "teardown is not repeated")
	})

	t.Run("no view", func(t *testing.T) {
		h := newTerminalHost()
		assert.Error(t, h.Run(context.Background()))
	})
}

func TestToastNotifierNeverBlocks(t *testing.T) {
	n := newToastNotifier()
	total := cap(n.ch) + 5
	for i := 0; i < total; i++ {
		n.Notify(panel.TitleSuccess, fmt.Sprint(i))
	}

	require.Len(t, n.ch, cap(n.ch))
	var last toast
	for len(n.ch) > 0 {
		last = <-n.ch
	}
	assert.Equal(t, fmt.Sprint(total-1), last.body)
}

func TestConsoleNotifier(t *testing.T) {
	var out, errOut bytes.Buffer
	n := consoleNotifier{out: &out, errOut: &errOut}

	n.Notify(panel.TitleSuccess, "TTL changed to 65 successfully!")
	n.Notify(panel.TitleError, "Failed to change TTL to 65")

	assert.Equal(t, "✓ TTL changed to 65 successfully!\n", out.String())
	assert.Equal(t, "✗ Failed to change TTL to 65\n", errOut.String())
}

func TestRunStaticStatus(t *testing.T) {
	svc := backend.NewMockService(65)
	_, err := svc.MakeTTLPersistent(context.Background(), 65)
	require.NoError(t, err)
	ctrl := panel.NewController(svc, panel.NotifierFunc(func(string, string) {}))

	var out bytes.Buffer
	require.NoError(t, runStaticStatus(context.Background(), ctrl, &out))

	text := out.String()
	assert.Contains(t, text, "TTL Changer")
	assert.Contains(t, text, "🟢 65")
	assert.Contains(t, text, "On (65)")
	assert.Contains(t, text, appConfig.BackendURL)
}

func TestRunStaticStatusFailure(t *testing.T) {
	svc := backend.NewMockService(64)
	svc.SetFault(backend.ProcGetCurrentTTL, errors.New("connection refused"))

	var notes []string
	ctrl := panel.NewController(svc, panel.NotifierFunc(func(_, body string) { notes = append(notes, body) }))

	var out bytes.Buffer
	err := runStaticStatus(context.Background(), ctrl, &out)
	require.Error(t, err)
	assert.Empty(t, strings.TrimSpace(out.String()))
	assert.Equal(t, []string{panel.MsgRefreshFailed}, notes)
}
