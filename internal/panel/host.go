package panel

import "ttlpanel/internal/journal"

// Notification titles
const (
	TitleSuccess = "Success"
	TitleError   = "Error"
)

// Notifier shows a transient message to the user
type Notifier interface {
	Notify(title, body string)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(title, body string)

func (f NotifierFunc) Notify(title, body string) { f(title, body) }

// View is the surface a host embeds
type View interface {
	Title() string
	View() string
}

// Host owns the panel lifecycle. It shows view and calls onTeardown once
// when the panel is removed.
type Host interface {
	Register(view View, onTeardown func())
}

// Recorder receives one entry per completed operation. journal.Service
// satisfies it.
type Recorder interface {
	Record(entry journal.Entry) error
}
