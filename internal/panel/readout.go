package panel

import (
	"strconv"

	"ttlpanel/internal/config"
)

// Class is the color class of the TTL readout
type Class int

const (
	ClassAlert   Class = iota // unknown or unexpected value, red
	ClassDefault              // 64, yellow
	ClassPreset               // 65, green
)

func (c Class) String() string {
	switch c {
	case ClassPreset:
		return "preset"
	case ClassDefault:
		return "default"
	default:
		return "alert"
	}
}

// Readout is the rendered TTL status
type Readout struct {
	Text  string
	Class Class
}

// Readout returns the status text and color class for the current TTL
func (s Snapshot) Readout() Readout {
	if !s.Known() {
		if s.IsLoading {
			return Readout{Text: "Loading...", Class: ClassAlert}
		}
		return Readout{Text: "Unknown", Class: ClassAlert}
	}

	text := strconv.Itoa(s.CurrentTTL)
	switch s.CurrentTTL {
	case config.PresetTTL:
		return Readout{Text: text, Class: ClassPreset}
	case config.DefaultTTL:
		return Readout{Text: text, Class: ClassDefault}
	default:
		return Readout{Text: text, Class: ClassAlert}
	}
}

// Readout is a shorthand for Snapshot().Readout()
func (c *Controller) Readout() Readout {
	return c.Snapshot().Readout()
}

// Controls reports which panel controls accept input
type Controls struct {
	Refresh     bool
	SetPreset   bool
	Reset       bool
	Persistence bool
	Advanced    bool
	CustomApply bool
}

// Controls derives control enablement from the snapshot
func (s Snapshot) Controls() Controls {
	return Controls{
		Refresh:     !s.IsChanging,
		SetPreset:   !s.IsChanging && s.CurrentTTL != config.PresetTTL,
		Reset:       !s.IsChanging && s.CurrentTTL != config.DefaultTTL,
		Persistence: !s.IsChanging,
		Advanced:    true,
		CustomApply: !s.IsChanging && s.ShowAdvanced,
	}
}
