package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"ttlpanel/internal/panel"
	"ttlpanel/internal/utils"
)

// KeyHandler interface for handling specific key combinations
type KeyHandler interface {
	HandleKey(m *panelModel, msg tea.KeyMsg) (tea.Model, tea.Cmd)
}

// KeyDispatcher handles key routing based on current mode
type KeyDispatcher struct {
	handlers map[string]KeyHandler
}

// NewKeyDispatcher creates a new key dispatcher with all handlers
func NewKeyDispatcher() *KeyDispatcher {
	return &KeyDispatcher{
		handlers: map[string]KeyHandler{
			"q":         &quitHandler{},
			"ctrl+c":    &quitHandler{},
			"?":         &helpHandler{},
			"esc":       &escapeHandler{},
			"up":        &navigationHandler{delta: -1},
			"k":         &navigationHandler{delta: -1},
			"shift+tab": &navigationHandler{delta: -1},
			"down":      &navigationHandler{delta: 1},
			"j":         &navigationHandler{delta: 1},
			"tab":       &navigationHandler{delta: 1},
			"enter":     &activateHandler{},
			" ":         &activateHandler{},
			"r":         &shortcutHandler{target: controlRefresh},
			"s":         &shortcutHandler{target: controlSetPreset},
			"d":         &shortcutHandler{target: controlReset},
			"p":         &shortcutHandler{target: controlPersistence},
			"a":         &shortcutHandler{target: controlAdvanced},
			"i":         &editHandler{},
			"y":         &yankHandler{},
		},
	}
}

// Dispatch handles a key press by routing to the appropriate handler
func (kd *KeyDispatcher) Dispatch(m *panelModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// The custom input owns the keyboard while editing
	if m.editing {
		switch key {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.stopEditing()
			return m, nil
		case "enter":
			return m, m.activate(controlCustom)
		default:
			return m, m.updateInput(msg)
		}
	}

	// Any key other than quit or help closes the help overlay
	if m.help {
		switch key {
		case "q", "ctrl+c", "?", "esc":
		default:
			m.help = false
			m.lastKey = ""
			return m, nil
		}
	}

	if handler, exists := kd.handlers[key]; exists {
		return handler.HandleKey(m, msg)
	}

	m.lastKey = ""
	return m, nil
}

// quitHandler handles quit operations
type quitHandler struct{}

func (h *quitHandler) HandleKey(m *panelModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.lastKey = ""
	return m, tea.Quit
}

// helpHandler toggles help display
type helpHandler struct{}

func (h *helpHandler) HandleKey(m *panelModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.help = !m.help
	m.lastKey = ""
	return m, nil
}

// escapeHandler handles escape key
type escapeHandler struct{}

func (h *escapeHandler) HandleKey(m *panelModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.help = false
	m.lastKey = ""
	return m, nil
}

// navigationHandler moves focus between controls
type navigationHandler struct {
	delta int
}

func (h *navigationHandler) HandleKey(m *panelModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.moveFocus(h.delta)
	m.lastKey = ""
	return m, nil
}

// activateHandler triggers the focused control
type activateHandler struct{}

func (h *activateHandler) HandleKey(m *panelModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.lastKey = ""
	return m, m.activate(m.focus)
}

// shortcutHandler focuses and triggers one control directly
type shortcutHandler struct {
	target control
}

func (h *shortcutHandler) HandleKey(m *panelModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.lastKey = ""
	m.focus = h.target
	return m, m.activate(h.target)
}

// editHandler opens the custom input, revealing it when hidden
type editHandler struct{}

func (h *editHandler) HandleKey(m *panelModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.lastKey = ""
	if !m.ctrl.Snapshot().ShowAdvanced {
		m.toggleAdvanced(true)
	}
	return m, m.startEditing()
}

// yankHandler copies the sysctl line for the current TTL (yy sequence)
type yankHandler struct{}

func (h *yankHandler) HandleKey(m *panelModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.lastKey != "y" {
		m.lastKey = "y"
		return m, nil
	}
	m.lastKey = ""

	snap := m.ctrl.Snapshot()
	if !snap.Known() {
		return m, m.pushToast(panel.TitleError, "Current TTL is unknown - nothing to copy")
	}

	line := utils.SysctlLine(snap.CurrentTTL)
	if err := utils.CopyToClipboard(line); err != nil {
		m.logger.Warn("Clipboard copy failed", "error", err)
		return m, m.pushToast(panel.TitleError, fmt.Sprintf("Copy failed: %v", err))
	}
	return m, m.pushToast(panel.TitleSuccess, fmt.Sprintf("Copied '%s'", line))
}
