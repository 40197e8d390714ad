package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
)

// Event classifies a notification.
type Event string

const (
	EventCleared    Event = "cleared"
	EventDownloaded Event = "downloaded"
	EventAttached   Event = "attached"
	EventError      Event = "error"
	EventInfo       Event = "info"
)

// Notifier is the toast sink. Calls are fire-and-forget.
type Notifier interface {
	Notify(ev Event, message string)
}

// statusNotifier shows notifications in the window's status bar.
type statusNotifier struct {
	label *widget.Label
	log   *logrus.Entry
}

func newStatusNotifier() *statusNotifier {
	return &statusNotifier{
		label: widget.NewLabel("Ready"),
		log:   logrus.WithField("component", "notify"),
	}
}

func (n *statusNotifier) Notify(ev Event, message string) {
	entry := n.log.WithField("event", ev)
	if ev == EventError {
		entry.Warn(message)
	} else {
		entry.Info(message)
	}
	fyne.Do(func() { n.label.SetText(message) })
}
