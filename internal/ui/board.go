package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"MeetBoard/internal/board"
)

// boardRenderer shows the surface's buffer as a single image. The buffer
// is sized to the widget in fyne units, so pointer positions map 1:1.
type boardRenderer struct {
	board   *BoardWidget
	bg      *canvas.Rectangle
	image   *canvas.Image
	mounted bool
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillStretch
	img.ScaleMode = canvas.ImageScalePixels
	r := &boardRenderer{
		board: b,
		bg:    canvas.NewRectangle(color.White),
		image: img,
	}
	return r
}

func sizeOf(s fyne.Size) board.Size {
	return board.Size{Width: int(s.Width), Height: int(s.Height)}
}

func (r *boardRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.image.Resize(size)
	surface := r.board.surface
	if !r.mounted {
		surface.Mount(sizeOf(size))
		r.mounted = true
	} else {
		surface.Resize(sizeOf(size))
	}
	r.Refresh()
	if r.board.OnCommit != nil {
		r.board.OnCommit()
	}
}

func (r *boardRenderer) MinSize() fyne.Size {
	return fyne.NewSize(200, 150)
}

func (r *boardRenderer) Refresh() {
	if img := r.board.surface.Image(); img != nil {
		r.image.Image = img
	} else {
		r.image.Image = nil
	}
	r.image.Refresh()
}

func (r *boardRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.bg, r.image}
}

func (r *boardRenderer) Destroy() {
	r.board.surface.Unmount()
	r.mounted = false
}
