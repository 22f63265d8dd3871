package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"ttlpanel/internal/config"
	"ttlpanel/internal/panel"
)

// control identifies a focusable row of the panel
type control int

const (
	controlRefresh control = iota
	controlSetPreset
	controlReset
	controlPersistence
	controlAdvanced
	controlCustom
)

// toast is a transient notification shown under the controls
type toast struct {
	id      int
	title   string
	body    string
	expires time.Time
}

// panelModel is the main Bubble Tea model
type panelModel struct {
	ctx    context.Context
	ctrl   *panel.Controller
	toasts <-chan toast
	logger *slog.Logger
	keys   *KeyDispatcher

	spinner spinner.Model
	input   textinput.Model

	// UI state
	focus   control
	editing bool // custom input has the keyboard
	help    bool
	notes   []toast
	nextID  int
	lastKey string
	width   int
	height  int
}

// Messages for async operations
type operationDoneMsg struct {
	op  string
	err error
}

type toastMsg struct {
	toast toast
}

type toastExpiredMsg struct {
	id int
}

func newPanelModel(ctx context.Context, ctrl *panel.Controller, notifier *toastNotifier, logger *slog.Logger) *panelModel {
	if ctx == nil {
		ctx = context.Background()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = s.Style.Foreground(primaryBlue)

	ti := textinput.New()
	ti.Placeholder = "32-128"
	ti.CharLimit = config.CustomInputSize
	ti.Width = config.CustomInputSize + 1
	ti.Prompt = ""

	return &panelModel{
		ctx:     ctx,
		ctrl:    ctrl,
		toasts:  notifier.ch,
		logger:  logger,
		keys:    NewKeyDispatcher(),
		spinner: s,
		input:   ti,
	}
}

// Title implements panel.View
func (m *panelModel) Title() string {
	return "TTL Changer"
}

// Init implements tea.Model. Mounting the panel triggers the first refresh.
func (m *panelModel) Init() tea.Cmd {
	return tea.Batch(
		m.run(panel.OpRefresh, m.ctrl.Refresh),
		waitForToast(m.toasts),
		m.spinner.Tick,
	)
}

// Update implements tea.Model
func (m *panelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.keys.Dispatch(m, msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case operationDoneMsg:
		if msg.err != nil {
			m.logger.Debug("Panel operation finished with error", "operation", msg.op, "error", msg.err)
		}
		// The controller clears the draft after a successful custom change
		if msg.op == panel.OpSetCustom {
			m.input.SetValue(m.ctrl.Snapshot().CustomTTLText)
		}
		return m, nil

	case toastMsg:
		return m, tea.Batch(m.pushToast(msg.toast.title, msg.toast.body), waitForToast(m.toasts))

	case toastExpiredMsg:
		m.dropToast(msg.id)
		return m, nil
	}

	return m, nil
}

// run executes a controller operation off the update loop
func (m *panelModel) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return operationDoneMsg{op: op, err: fn(ctx)}
	}
}

// activate triggers the focused control if it is enabled
func (m *panelModel) activate(c control) tea.Cmd {
	snap := m.ctrl.Snapshot()
	controls := snap.Controls()

	switch c {
	case controlRefresh:
		if controls.Refresh {
			return m.run(panel.OpRefresh, m.ctrl.Refresh)
		}
	case controlSetPreset:
		if controls.SetPreset {
			return m.run(panel.OpSetFixed, func(ctx context.Context) error {
				return m.ctrl.SetFixed(ctx, config.PresetTTL)
			})
		}
	case controlReset:
		if controls.Reset {
			return m.run(panel.OpSetFixed, func(ctx context.Context) error {
				return m.ctrl.SetFixed(ctx, config.DefaultTTL)
			})
		}
	case controlPersistence:
		if controls.Persistence {
			enable := !snap.IsPersistent
			return m.run(panel.OpSetPersistence, func(ctx context.Context) error {
				return m.ctrl.SetPersistence(ctx, enable)
			})
		}
	case controlAdvanced:
		m.toggleAdvanced(!snap.ShowAdvanced)
	case controlCustom:
		if !snap.ShowAdvanced {
			return nil
		}
		if !m.editing {
			return m.startEditing()
		}
		if controls.CustomApply {
			draft := snap.CustomTTLText
			return m.run(panel.OpSetCustom, func(ctx context.Context) error {
				return m.ctrl.SetCustom(ctx, draft)
			})
		}
	}
	return nil
}

func (m *panelModel) toggleAdvanced(show bool) {
	m.ctrl.ToggleAdvanced(show)
	if !show {
		m.stopEditing()
		if m.focus == controlCustom {
			m.focus = controlAdvanced
		}
	}
}

func (m *panelModel) startEditing() tea.Cmd {
	m.editing = true
	m.focus = controlCustom
	return m.input.Focus()
}

func (m *panelModel) stopEditing() {
	m.editing = false
	m.input.Blur()
}

// updateInput feeds a key to the custom input and mirrors it into the draft
func (m *panelModel) updateInput(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.ctrl.SetCustomDraft(m.input.Value())
	return cmd
}

// focusable returns the controls that can take focus in order
func (m *panelModel) focusable() []control {
	list := []control{controlRefresh, controlSetPreset, controlReset, controlPersistence, controlAdvanced}
	if m.ctrl.Snapshot().ShowAdvanced {
		list = append(list, controlCustom)
	}
	return list
}

func (m *panelModel) moveFocus(delta int) {
	list := m.focusable()
	idx := 0
	for i, c := range list {
		if c == m.focus {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(list) {
		idx = len(list) - 1
	}
	m.focus = list[idx]
}

// pushToast shows a notification and schedules its removal
func (m *panelModel) pushToast(title, body string) tea.Cmd {
	m.nextID++
	t := toast{
		id:      m.nextID,
		title:   title,
		body:    body,
		expires: time.Now().Add(config.ToastLifetime),
	}
	m.notes = append(m.notes, t)
	if len(m.notes) > config.MaxToasts {
		m.notes = m.notes[len(m.notes)-config.MaxToasts:]
	}

	id := t.id
	return tea.Tick(config.ToastLifetime, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (m *panelModel) dropToast(id int) {
	kept := m.notes[:0]
	for _, t := range m.notes {
		if t.id != id {
			kept = append(kept, t)
		}
	}
	m.notes = kept
}

// waitForToast delivers the next notification raised by the controller
func waitForToast(ch <-chan toast) tea.Cmd {
	return func() tea.Msg {
		return toastMsg{toast: <-ch}
	}
}
