package config

import "time"

// TTL values understood by the panel
const (
	DefaultTTL = 64 // Kernel default for net.ipv4.ip_default_ttl
	PresetTTL  = 65 // Value some carrier networks expect from tethered devices

	// Custom TTL range accepted for device network-stack compatibility
	MinCustomTTL = 32
	MaxCustomTTL = 128
)

// Notification configuration
const (
	ToastLifetime = 4 * time.Second // How long a toast stays on screen
	MaxToasts     = 3               // Older toasts are dropped beyond this
)

// Journal configuration
const (
	DefaultJournalRetention = 30 * 24 * time.Hour
	DefaultHistoryLimit     = 20
)

// UI configuration
const (
	PanelWidth      = 56
	MinPanelWidth   = 40
	CustomInputSize = 3 // Digits in the largest accepted TTL

	// Status table column widths
	LabelColumnWidth = 22
	ValueColumnWidth = 18
)

// Backend defaults
const (
	DefaultBackendURL     = "http://127.0.0.1:1337"
	DefaultPluginName     = "TTL Changer"
	DefaultRequestTimeout = 15 * time.Second
)
