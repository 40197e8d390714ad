// Package board implements the raster drawing surface of the whiteboard.
//
// A Surface owns the pixel buffer and the active drag session. Its exported
// methods are the only way to mutate the buffer; host event handlers call
// them and never touch pixels directly. All methods except the decode
// goroutine started by ImportImage are expected to run on the host's event
// goroutine.
package board

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/gogpu/gg"
	"github.com/sirupsen/logrus"

	"MeetBoard/internal/state"
)

// Background is the fill color of a fresh or cleared board.
var Background = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// ErrNotReady is returned by host-facing reads while the surface has no
// valid buffer.
var ErrNotReady = errors.New("board: surface not ready")

// Size is the content box of the host container, in buffer pixels.
type Size struct{ Width, Height int }

func (s Size) valid() bool { return s.Width > 0 && s.Height > 0 }

// Phase is the drag-tool state: either Idle or Stroking.
type Phase interface{ phase() }

// Idle means no drag session is open.
type Idle struct{}

// Stroking means a drag session is open for Mode.
type Stroking struct{ Mode state.Mode }

func (Idle) phase()     {}
func (Stroking) phase() {}

// session lives between pointer-down and pointer-up/leave. snapshot is set
// iff mode is a preview tool.
type session struct {
	mode     state.Mode
	style    state.Style
	origin   state.Point
	last     state.Point
	snapshot []uint8
}

// Surface is the whiteboard's drawing surface.
type Surface struct {
	dc       *gg.Context // nil while not ready
	drag     *session    // nil while Idle
	files    *state.AttachedFiles
	fonts    *fontCache
	queue    paintQueue
	decoding sync.WaitGroup

	// OnPending is called from the decode goroutine after a decoded image
	// was queued. The host should schedule Drain on its event goroutine.
	OnPending func()

	log *logrus.Entry
}

// New creates an unmounted surface recording imports into files.
func New(files *state.AttachedFiles) *Surface {
	if files == nil {
		files = state.NewAttachedFiles()
	}
	return &Surface{
		files: files,
		fonts: &fontCache{},
		log:   logrus.WithField("component", "surface"),
	}
}

// Files returns the attached file list.
func (s *Surface) Files() *state.AttachedFiles { return s.files }

// Ready reports whether a buffer is allocated.
func (s *Surface) Ready() bool { return s.dc != nil }

// Size returns the current buffer size, zero while not ready.
func (s *Surface) Size() Size {
	if s.dc == nil {
		return Size{}
	}
	return Size{Width: s.dc.Width(), Height: s.dc.Height()}
}

// Phase returns the current drag-tool state.
func (s *Surface) Phase() Phase {
	if s.drag == nil {
		return Idle{}
	}
	return Stroking{Mode: s.drag.mode}
}

// Mount allocates a buffer of the given size filled with Background. A size
// with a non-positive dimension leaves the surface not ready.
func (s *Surface) Mount(size Size) {
	s.queue.open()
	s.allocate(size)
}

// Resize reallocates the buffer for the new container size. Prior content is
// lost and any open drag session is aborted since its snapshot no longer
// matches the buffer.
func (s *Surface) Resize(size Size) {
	if s.dc != nil && s.Size() == size {
		return
	}
	if s.drag != nil {
		s.log.WithField("mode", s.drag.mode).Debug("drag aborted by resize")
		s.drag = nil
	}
	s.allocate(size)
}

func (s *Surface) allocate(size Size) {
	if !size.valid() {
		if s.dc != nil {
			_ = s.dc.Close()
			s.dc = nil
		}
		s.log.WithFields(logrus.Fields{"width": size.Width, "height": size.Height}).Debug("surface not ready")
		return
	}
	if s.dc == nil {
		s.dc = gg.NewContext(size.Width, size.Height)
	} else if err := s.dc.Resize(size.Width, size.Height); err != nil {
		s.log.WithError(err).Warn("resize failed")
		return
	}
	s.fill()
	s.log.WithFields(logrus.Fields{"width": size.Width, "height": size.Height}).Info("surface allocated")
}

// Unmount releases the buffer. Decodes still in flight are abandoned.
func (s *Surface) Unmount() {
	s.queue.close()
	s.drag = nil
	if s.dc != nil {
		_ = s.dc.Close()
		s.dc = nil
	}
	s.log.Info("surface unmounted")
}

// BeginStroke opens a drag session at p. The session's paint behavior is
// fixed by tool.Mode here and is not affected by later mode changes.
func (s *Surface) BeginStroke(p state.Point, tool state.Tool) {
	if s.dc == nil || s.drag != nil {
		return
	}
	d := &session{mode: tool.Mode, style: tool.Style, origin: p, last: p}
	if tool.Mode.IsPreview() {
		d.snapshot = s.copyPixels()
	}
	s.drag = d
}

// ContinueStroke paints according to the mode the session was opened with.
// The tool's Style is honored on every call; its Mode is not.
func (s *Surface) ContinueStroke(p state.Point, tool state.Tool) {
	d := s.drag
	if s.dc == nil || d == nil {
		return
	}
	if tool.Style.Validate() == nil {
		d.style = tool.Style
	}
	w := float64(d.style.Width)

	switch d.mode {
	case state.ModePen:
		s.stroke(gg.Hex(d.style.Color), w, func(dc *gg.Context) {
			dc.DrawLine(d.last.X, d.last.Y, p.X, p.Y)
		})
	case state.ModeEraser:
		s.stroke(gg.FromColor(Background), w, func(dc *gg.Context) {
			dc.DrawLine(d.last.X, d.last.Y, p.X, p.Y)
		})
	case state.ModeLine:
		s.restore(d.snapshot)
		s.stroke(gg.Hex(d.style.Color), w, func(dc *gg.Context) {
			dc.DrawLine(d.origin.X, d.origin.Y, p.X, p.Y)
		})
	case state.ModeRectangle:
		s.restore(d.snapshot)
		s.stroke(gg.Hex(d.style.Color), w, func(dc *gg.Context) {
			dc.DrawRectangle(d.origin.X, d.origin.Y, p.X-d.origin.X, p.Y-d.origin.Y)
		})
	case state.ModeCircle:
		s.restore(d.snapshot)
		s.stroke(gg.Hex(d.style.Color), w, func(dc *gg.Context) {
			dc.DrawCircle(d.origin.X, d.origin.Y, d.origin.Dist(p))
		})
	case state.ModeText:
		// committed through PlaceText
	}
	d.last = p
}

// EndStroke closes the drag session and paints any imports that were queued
// while it was open. It is a no-op while Idle apart from draining.
func (s *Surface) EndStroke() {
	s.drag = nil
	s.Drain()
}

// Clear refills the buffer with Background and empties the attached file
// list. Imports still decoding or waiting to be painted are dropped.
func (s *Surface) Clear() {
	if s.dc == nil {
		return
	}
	s.drag = nil
	s.queue.reset()
	s.fill()
	s.files.Clear()
	s.log.Info("surface cleared")
}

// ExportPNG encodes the current buffer as PNG.
func (s *Surface) ExportPNG() ([]byte, error) {
	if s.dc == nil {
		return nil, ErrNotReady
	}
	var buf bytes.Buffer
	if err := s.dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Image returns a copy of the buffer, or nil while not ready.
func (s *Surface) Image() *image.RGBA {
	if s.dc == nil {
		return nil
	}
	return s.pixels(s.copyPixels())
}

func (s *Surface) stroke(c gg.RGBA, width float64, path func(*gg.Context)) {
	dc := s.dc
	dc.SetColor(c.Color())
	dc.SetLineWidth(width)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	path(dc)
	if err := dc.Stroke(); err != nil {
		s.log.WithError(err).Warn("stroke failed")
	}
}

func (s *Surface) fill() {
	s.dc.ClearPath()
	s.dc.ClearWithColor(gg.FromColor(Background))
}

func (s *Surface) copyPixels() []uint8 {
	data := s.dc.ResizeTarget().Data()
	out := make([]uint8, len(data))
	copy(out, data)
	return out
}

func (s *Surface) restore(snapshot []uint8) {
	data := s.dc.ResizeTarget().Data()
	if len(snapshot) != len(data) {
		return
	}
	copy(data, snapshot)
}

// pixels wraps RGBA bytes laid out like the buffer as an image.
func (s *Surface) pixels(data []uint8) *image.RGBA {
	w, h := s.dc.Width(), s.dc.Height()
	return &image.RGBA{Pix: data, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
}
