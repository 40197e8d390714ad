package state

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// ToolState holds the toolbar selection. The toolbar mutates it through the
// setters; the board only ever reads a Tool copy via Current.
type ToolState struct {
	mu        sync.RWMutex
	tool      Tool
	listeners []func(Tool)
	log       *logrus.Entry
}

// NewToolState creates a tool state with the given initial selection.
func NewToolState(initial Tool) (*ToolState, error) {
	if _, err := ParseMode(string(initial.Mode)); err != nil {
		return nil, err
	}
	if err := initial.Style.Validate(); err != nil {
		return nil, err
	}
	return &ToolState{
		tool: initial,
		log:  logrus.WithField("component", "tools"),
	}, nil
}

// Current returns a snapshot of the selection.
func (ts *ToolState) Current() Tool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.tool
}

// OnChange registers fn to be called after every successful setter call.
func (ts *ToolState) OnChange(fn func(Tool)) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.listeners = append(ts.listeners, fn)
}

func (ts *ToolState) SetMode(m Mode) error {
	if !m.Valid() {
		return ErrUnknownMode
	}
	return ts.update(func(t *Tool) error {
		t.Mode = m
		return nil
	})
}

func (ts *ToolState) SetColor(hex string) error {
	return ts.update(func(t *Tool) error {
		next := t.Style
		next.Color = hex
		if err := next.Validate(); err != nil {
			return err
		}
		t.Style = next
		return nil
	})
}

// SetWidth clamps w into [MinWidth, MaxWidth], matching the slider range.
func (ts *ToolState) SetWidth(w int) error {
	if w < MinWidth {
		w = MinWidth
	}
	if w > MaxWidth {
		w = MaxWidth
	}
	return ts.update(func(t *Tool) error {
		t.Style.Width = w
		return nil
	})
}

func (ts *ToolState) update(apply func(*Tool) error) error {
	ts.mu.Lock()
	next := ts.tool
	if err := apply(&next); err != nil {
		ts.mu.Unlock()
		ts.log.WithError(err).Warn("rejected tool change")
		return err
	}
	ts.tool = next
	listeners := append([]func(Tool){}, ts.listeners...)
	ts.mu.Unlock()

	ts.log.WithFields(logrus.Fields{
		"mode":  next.Mode,
		"color": next.Style.Color,
		"width": next.Style.Width,
	}).Debug("tool changed")
	for _, fn := range listeners {
		fn(next)
	}
	return nil
}
