package ui

import (
	"fmt"
	"io"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"MeetBoard/internal/board"
	"MeetBoard/internal/export"
	"MeetBoard/internal/state"
)

// File is an imported file handed to the board by a drop or the picker.
type File struct {
	Name string
	Data []byte
}

// BoardWidget adapts fyne input events onto a board.Surface. It never
// touches pixels itself.
type BoardWidget struct {
	widget.BaseWidget
	surface *board.Surface
	tools   *state.ToolState
	notify  Notifier

	// OnCommit is called after every change other viewers should see.
	OnCommit func()
	// OnFilesChanged reports the attached file count.
	OnFilesChanged func(n int)
	// OnTextRequest is called when a text-mode click finishes at p.
	OnTextRequest func(p state.Point)

	log *logrus.Entry
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)

func NewBoardWidget(tools *state.ToolState, notify Notifier) *BoardWidget {
	b := &BoardWidget{
		surface: board.New(state.NewAttachedFiles()),
		tools:   tools,
		notify:  notify,
		log:     logrus.WithField("component", "board"),
	}
	b.surface.OnPending = func() { fyne.Do(b.drain) }
	b.ExtendBaseWidget(b)
	return b
}

// Surface exposes the underlying drawing surface.
func (b *BoardWidget) Surface() *board.Surface { return b.surface }

func toPoint(p fyne.Position) state.Point {
	return state.Pt(float64(p.X), float64(p.Y))
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.surface.BeginStroke(toPoint(e.Position), b.tools.Current())
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	if _, idle := b.surface.Phase().(board.Idle); idle {
		return
	}
	b.surface.ContinueStroke(toPoint(e.Position), b.tools.Current())
	b.Refresh()
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	phase := b.surface.Phase()
	b.endStroke()
	if s, ok := phase.(board.Stroking); ok && s.Mode == state.ModeText && b.OnTextRequest != nil {
		b.OnTextRequest(toPoint(e.Position))
	}
}

func (b *BoardWidget) DragEnd() { b.endStroke() }

// MouseOut ends the drag like a pointer-up.
func (b *BoardWidget) MouseOut() { b.endStroke() }

func (b *BoardWidget) MouseIn(*desktop.MouseEvent)    {}
func (b *BoardWidget) MouseMoved(*desktop.MouseEvent) {}

func (b *BoardWidget) endStroke() {
	if _, idle := b.surface.Phase().(board.Idle); idle {
		return
	}
	b.surface.EndStroke()
	b.changed()
}

// PlaceText commits text at p with the current style.
func (b *BoardWidget) PlaceText(p state.Point, text string) {
	b.surface.PlaceText(p, text, b.tools.Current().Style)
	b.changed()
}

// Clear wipes the board and its attachments.
func (b *BoardWidget) Clear() {
	b.surface.Clear()
	b.changed()
	b.notify.Notify(EventCleared, "Whiteboard cleared")
}

// Attach imports files dropped onto the board.
func (b *BoardWidget) Attach(files []File) {
	n := b.attach(files)
	if n == 0 {
		return
	}
	b.notify.Notify(EventAttached, fmt.Sprintf("%d file(s) attached successfully!", n))
}

// AttachPicked imports a single file chosen through the picker.
func (b *BoardWidget) AttachPicked(f File) {
	if b.attach([]File{f}) == 0 {
		return
	}
	b.notify.Notify(EventAttached, fmt.Sprintf("File \"%s\" attached successfully!", f.Name))
}

func (b *BoardWidget) attach(files []File) int {
	n := 0
	for _, f := range files {
		if _, ok := b.surface.ImportImage(f.Name, f.Data); ok {
			n++
		}
	}
	if n > 0 && b.OnFilesChanged != nil {
		b.OnFilesChanged(b.surface.Files().Len())
	}
	return n
}

// Download writes the board as PNG.
func (b *BoardWidget) Download(w io.Writer) error {
	data, err := b.surface.ExportPNG()
	if err != nil {
		return fmt.Errorf("export png: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	b.notify.Notify(EventDownloaded, "Whiteboard downloaded successfully")
	return nil
}

// ExportPDF writes the board as a one-page PDF.
func (b *BoardWidget) ExportPDF(w io.Writer) error {
	data, err := b.surface.ExportPNG()
	if err != nil {
		return fmt.Errorf("export png: %w", err)
	}
	if err := export.PDF(w, data); err != nil {
		return err
	}
	b.notify.Notify(EventDownloaded, "Whiteboard exported as PDF")
	return nil
}

// Frame returns the current board as PNG for viewers.
func (b *BoardWidget) Frame() ([]byte, error) {
	return b.surface.ExportPNG()
}

// drain paints decoded imports once the board is idle.
func (b *BoardWidget) drain() {
	if b.surface.Drain() > 0 {
		b.changed()
	}
}

func (b *BoardWidget) changed() {
	if b.OnFilesChanged != nil {
		b.OnFilesChanged(b.surface.Files().Len())
	}
	b.Refresh()
	if b.OnCommit != nil {
		b.OnCommit()
	}
}
